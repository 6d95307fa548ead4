package record

import (
	"bytes"
	"fmt"
	"io"
)

// Encoder writes logical records as framed bytes, splitting payloads larger
// than MaxPayload into continuation frames.
type Encoder struct {
	w        io.Writer
	format   Format
	registry *Registry
	obs      Observer
	written  int64
}

func NewEncoder(w io.Writer, f Format) (*Encoder, error) {
	f = f.orDefault()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{w: w, format: f, obs: nopObserver{}}, nil
}

func (e *Encoder) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.obs = o
}

// SetRegistry makes Encode refuse to split a payload whose kind reg does not
// mark continuable, since the decoder would reject the continuation frames.
// A nil registry disables the check.
func (e *Encoder) SetRegistry(reg *Registry) {
	e.registry = reg
}

// Encode writes b. A body tagged with the continuation tag is rejected: it
// would read back as an orphan continuation.
func (e *Encoder) Encode(b Body) error {
	tag := b.TypeTag()
	if e.format.IsContinue(tag) {
		return formatErr("encode", tag, e.written, ErrOrphanContinuation,
			fmt.Errorf("body tag equals continuation tag"))
	}
	payload, err := Payload(b)
	if err != nil {
		return err
	}
	if e.registry != nil && len(payload) > e.format.MaxPayload {
		if k, _ := e.registry.Lookup(tag); !k.Continuable {
			return formatErr("encode", tag, e.written, ErrIllegalContinuation,
				fmt.Errorf("%s payload of %d bytes exceeds %d and is not continuable", k.Name, len(payload), e.format.MaxPayload))
		}
	}
	frames := Split(tag, payload, e.format)
	for _, fr := range frames {
		if err := WriteFrame(e.w, fr); err != nil {
			return err
		}
		e.written += int64(fr.Size())
	}
	e.obs.RecordEncoded(tag, len(frames))
	return nil
}

// Written is the number of bytes encoded so far.
func (e *Encoder) Written() int64 {
	return e.written
}

// EncodeAll writes each record body in order. reg may be nil, see
// SetRegistry.
func EncodeAll(w io.Writer, f Format, reg *Registry, recs []Record) error {
	enc, err := NewEncoder(w, f)
	if err != nil {
		return err
	}
	enc.SetRegistry(reg)
	for _, rec := range recs {
		if err := enc.Encode(rec.Body); err != nil {
			return err
		}
	}
	return nil
}

// Marshal encodes bodies into a fresh buffer.
func Marshal(f Format, reg *Registry, bodies ...Body) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, f)
	if err != nil {
		return nil, err
	}
	enc.SetRegistry(reg)
	for _, b := range bodies {
		if err := enc.Encode(b); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
