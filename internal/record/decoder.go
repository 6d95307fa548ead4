package record

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Record is one logical record: a decoded body plus where it came from.
type Record struct {
	Body   Body
	Frames int
	Offset int64
}

func (r Record) Tag() uint16 {
	return r.Body.TypeTag()
}

// Clone copies the record with an independent body.
func (r Record) Clone() Record {
	return Record{Body: r.Body.Clone(), Frames: r.Frames, Offset: r.Offset}
}

// DecoderOptions configures a Decoder. The zero value decodes BIFF8 with an
// empty registry, so every record comes back as RawPayload.
type DecoderOptions struct {
	Format   Format
	Registry *Registry
	Logger   *zerolog.Logger
	Observer Observer
}

type frameHeader struct {
	tag    uint16
	length uint16
	offset int64
}

// Decoder pulls logical records off a Source. It is not safe for concurrent
// use. After a format error every call returns that same error.
type Decoder struct {
	src      Source
	hr       HeaderReader
	format   Format
	registry *Registry
	log      zerolog.Logger
	obs      Observer
	offset   int64
	pending  *frameHeader
	err      error
}

func NewDecoder(src Source, opts DecoderOptions) (*Decoder, error) {
	f := opts.Format.orDefault()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	d := &Decoder{
		src:      src,
		hr:       NewHeaderReader(src),
		format:   f,
		registry: opts.Registry,
		log:      zerolog.Nop(),
		obs:      nopObserver{},
	}
	if opts.Logger != nil {
		d.log = *opts.Logger
	}
	if opts.Observer != nil {
		d.obs = opts.Observer
	}
	return d, nil
}

// Offset is the stream position of the next unread byte.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Next returns the next logical record, or io.EOF at a clean end of stream.
func (d *Decoder) Next() (Record, error) {
	if d.err != nil {
		return Record{}, d.err
	}
	rec, err := d.next()
	if err != nil {
		d.err = err
		var fe *FormatError
		if errors.As(err, &fe) {
			d.obs.FormatFailure(fe)
			d.log.Debug().
				Str("op", fe.Op).
				Uint16("tag", fe.Tag).
				Int64("offset", fe.Offset).
				Err(err).
				Msg("record stream rejected")
		}
		return Record{}, err
	}
	return rec, nil
}

func (d *Decoder) next() (Record, error) {
	head, ok, err := d.nextHeader()
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, io.EOF
	}
	if d.format.IsContinue(head.tag) {
		return Record{}, formatErr("decode", head.tag, head.offset, ErrOrphanContinuation, nil)
	}

	payload, err := d.readPayload(head)
	if err != nil {
		return Record{}, err
	}

	kind, known := d.registry.Lookup(head.tag)
	frames := 1
	for {
		h, ok, err := d.nextHeader()
		if err != nil {
			return Record{}, err
		}
		if !ok {
			break
		}
		if !d.format.IsContinue(h.tag) {
			d.pending = &h
			break
		}
		if !kind.Continuable {
			return Record{}, formatErr("decode", head.tag, h.offset, ErrIllegalContinuation, nil)
		}
		chunk, err := d.readPayload(h)
		if err != nil {
			return Record{}, err
		}
		payload = append(payload, chunk...)
		frames++
	}

	body, err := kind.Decode(head.tag, payload)
	if err != nil {
		return Record{}, formatErr("decode", head.tag, head.offset, ErrDecode, err)
	}
	if body == nil || body.TypeTag() != head.tag {
		cause := fmt.Errorf("decoder for %s returned a body for another tag", kind.Name)
		return Record{}, formatErr("decode", head.tag, head.offset, ErrDecode, cause)
	}

	if !known || frames > 1 {
		d.log.Debug().
			Uint16("tag", head.tag).
			Str("kind", kind.Name).
			Int("frames", frames).
			Int("size", len(payload)).
			Bool("raw", !known).
			Msg("record decoded")
	}
	d.obs.RecordDecoded(head.tag, kind.Name, frames, !known)
	return Record{Body: body, Frames: frames, Offset: head.offset}, nil
}

// nextHeader returns the buffered lookahead header or reads a new one. ok is
// false at a clean end of stream.
func (d *Decoder) nextHeader() (frameHeader, bool, error) {
	if d.pending != nil {
		h := *d.pending
		d.pending = nil
		return h, true, nil
	}
	avail, err := d.hr.Available()
	if err != nil {
		return frameHeader{}, false, d.annotate(err, 0)
	}
	if avail == 0 {
		return frameHeader{}, false, nil
	}

	start := d.offset
	tag, err := d.hr.ReadTypeTag()
	if err != nil {
		return frameHeader{}, false, d.annotate(err, 0)
	}
	length, err := d.hr.ReadLength()
	if err != nil {
		return frameHeader{}, false, d.annotate(err, tag)
	}
	d.offset += HeaderSize

	if int(length) > d.format.MaxPayload {
		return frameHeader{}, false, formatErr("read header", tag, start, ErrFrameTooLarge,
			fmt.Errorf("length %d > %d", length, d.format.MaxPayload))
	}
	avail, err = d.hr.Available()
	if err != nil {
		return frameHeader{}, false, d.annotate(err, tag)
	}
	if int64(length) > avail {
		return frameHeader{}, false, formatErr("read header", tag, start, ErrLengthExceedsAvailable,
			fmt.Errorf("length %d > %d available", length, avail))
	}

	d.obs.FrameRead(tag, int(length))
	return frameHeader{tag: tag, length: length, offset: start}, true, nil
}

func (d *Decoder) readPayload(h frameHeader) ([]byte, error) {
	p := make([]byte, h.length)
	if err := d.src.ReadPayload(p); err != nil {
		return nil, formatErr("read payload", h.tag, h.offset, ErrTruncatedPayload, err)
	}
	d.offset += int64(h.length)
	return p, nil
}

// annotate stamps header reader errors with the frame position.
func (d *Decoder) annotate(err error, tag uint16) error {
	var fe *FormatError
	if errors.As(err, &fe) {
		fe.Offset = d.offset
		fe.Tag = tag
	}
	return err
}

// DecodeAll reads src to the end.
func DecodeAll(src Source, opts DecoderOptions) ([]Record, error) {
	d, err := NewDecoder(src, opts)
	if err != nil {
		return nil, err
	}
	var out []Record
	for {
		rec, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// DecodeBytes is DecodeAll over an in-memory stream.
func DecodeBytes(b []byte, opts DecoderOptions) ([]Record, error) {
	return DecodeAll(NewBytesSource(b), opts)
}
