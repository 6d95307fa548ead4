package record

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// testCell is a minimal coordinate-bearing kind.
type testCell struct {
	row, col, xf uint16
}

func (c *testCell) TypeTag() uint16 { return 0x0201 }
func (c *testCell) DataSize() int   { return 6 }
func (c *testCell) Serialize(w *PayloadWriter) {
	w.Uint16(c.row)
	w.Uint16(c.col)
	w.Uint16(c.xf)
}
func (c *testCell) Clone() Body {
	cp := *c
	return &cp
}
func (c *testCell) Row() int     { return int(c.row) }
func (c *testCell) Column() int  { return int(c.col) }
func (c *testCell) XFIndex() int { return int(c.xf) }

func decodeTestCell(tag uint16, payload []byte) (Body, error) {
	r := NewPayloadReader(payload)
	c := &testCell{row: r.Uint16(), col: r.Uint16(), xf: r.Uint16()}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return c, nil
}

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.MustRegister(
		Kind{Tag: 0x0201, Name: "BLANK", Decode: decodeTestCell},
		Kind{Tag: 0x00EB, Name: "MSODRAWINGGROUP", Continuable: true, Decode: DecodeRaw},
	)
	return reg
}

func frameBytes(frames ...Frame) []byte {
	var out []byte
	for _, fr := range frames {
		out = AppendFrame(out, fr)
	}
	return out
}

type countingObserver struct {
	frames   int
	records  int
	raw      int
	encoded  int
	failures []*FormatError
}

func (o *countingObserver) FrameRead(uint16, int) { o.frames++ }
func (o *countingObserver) RecordDecoded(_ uint16, _ string, _ int, raw bool) {
	o.records++
	if raw {
		o.raw++
	}
}
func (o *countingObserver) RecordEncoded(uint16, int)      { o.encoded++ }
func (o *countingObserver) FormatFailure(err *FormatError) { o.failures = append(o.failures, err) }

func TestDecoderRoundTripsMixedStream(t *testing.T) {
	f := DefaultFormat()
	bodies := []Body{
		&testCell{row: 3, col: 1, xf: 15},
		NewRawPayload(0x00EB, seqPayload(20000)),
		NewRawPayload(0x7777, []byte("unknown kind")),
		&testCell{row: 0, col: 4, xf: 15},
	}
	reg := testRegistry()
	stream, err := Marshal(f, reg, bodies...)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	obs := &countingObserver{}
	recs, err := DecodeBytes(stream, DecoderOptions{Registry: reg, Observer: obs})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != len(bodies) {
		t.Fatalf("records=%d want=%d", len(recs), len(bodies))
	}
	if recs[1].Frames != 3 {
		t.Fatalf("drawing frames=%d want=3", recs[1].Frames)
	}
	if recs[2].Tag() != 0x7777 {
		t.Fatalf("raw tag=0x%04X", recs[2].Tag())
	}
	if obs.frames != 6 || obs.records != 4 || obs.raw != 1 {
		t.Fatalf("observer frames=%d records=%d raw=%d", obs.frames, obs.records, obs.raw)
	}

	var out bytes.Buffer
	if err := EncodeAll(&out, f, reg, recs); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(out.Bytes(), stream) {
		t.Fatalf("re-encoded stream differs")
	}
}

func TestDecoderRecordsFrameOffsets(t *testing.T) {
	stream := frameBytes(
		Frame{Tag: 0x0201, Payload: make([]byte, 6)},
		Frame{Tag: 0x0201, Payload: make([]byte, 6)},
	)
	recs, err := DecodeBytes(stream, DecoderOptions{Registry: testRegistry()})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if recs[0].Offset != 0 || recs[1].Offset != 10 {
		t.Fatalf("offsets=%d,%d", recs[0].Offset, recs[1].Offset)
	}
}

func TestDecoderEmptyStream(t *testing.T) {
	dec, err := NewDecoder(NewBytesSource(nil), DecoderOptions{})
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestDecoderRejectsOrphanContinuation(t *testing.T) {
	stream := frameBytes(Frame{Tag: DefaultContinueTag, Payload: []byte{1, 2}})
	obs := &countingObserver{}
	_, err := DecodeBytes(stream, DecoderOptions{Observer: obs})
	if !errors.Is(err, ErrOrphanContinuation) {
		t.Fatalf("expected ErrOrphanContinuation, got %v", err)
	}
	if len(obs.failures) != 1 {
		t.Fatalf("failures=%d", len(obs.failures))
	}
}

func TestDecoderRejectsIllegalContinuation(t *testing.T) {
	stream := frameBytes(
		Frame{Tag: 0x0201, Payload: make([]byte, 6)},
		Frame{Tag: DefaultContinueTag, Payload: []byte{1}},
	)
	_, err := DecodeBytes(stream, DecoderOptions{Registry: testRegistry()})
	if !errors.Is(err, ErrIllegalContinuation) {
		t.Fatalf("expected ErrIllegalContinuation, got %v", err)
	}
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Tag != 0x0201 || fe.Offset != 10 {
		t.Fatalf("unexpected error detail: %+v", fe)
	}
}

func TestDecoderFallbackContinuable(t *testing.T) {
	stream := frameBytes(
		Frame{Tag: 0x5555, Payload: []byte{1, 2}},
		Frame{Tag: DefaultContinueTag, Payload: []byte{3}},
	)
	reg := NewRegistry()
	reg.SetFallbackContinuable(true)
	recs, err := DecodeBytes(stream, DecoderOptions{Registry: reg})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw := recs[0].Body.(*RawPayload)
	if !bytes.Equal(raw.Data, []byte{1, 2, 3}) || recs[0].Frames != 2 {
		t.Fatalf("raw=%v frames=%d", raw.Data, recs[0].Frames)
	}
}

func TestDecoderHeaderFailures(t *testing.T) {
	cases := []struct {
		name   string
		stream []byte
		want   error
	}{
		{"short header", []byte{0x09, 0x08, 0x02}, ErrTruncatedHeader},
		{"length past end", []byte{0x09, 0x08, 0x10, 0x00, 1, 2}, ErrLengthExceedsAvailable},
		{"frame too large", append([]byte{0x09, 0x08, 0x21, 0x20}, make([]byte, 8225)...), ErrFrameTooLarge},
	}
	for _, tc := range cases {
		_, err := DecodeBytes(tc.stream, DecoderOptions{})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsFormatError(err) {
			t.Fatalf("%s: not a FormatError: %v", tc.name, err)
		}
	}
}

func TestDecoderTruncatedHeaderAfterRecord(t *testing.T) {
	stream := append(frameBytes(Frame{Tag: 0x0201, Payload: make([]byte, 6)}), 0x3C)
	dec, err := NewDecoder(NewBytesSource(stream), DecoderOptions{Registry: testRegistry()})
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	_, err = dec.Next()
	var fe *FormatError
	if !errors.As(err, &fe) || !errors.Is(err, ErrTruncatedHeader) {
		t.Fatalf("expected truncated header, got %v", err)
	}
	if fe.Offset != 10 {
		t.Fatalf("offset=%d want=10", fe.Offset)
	}
}

func TestDecoderErrorIsSticky(t *testing.T) {
	stream := frameBytes(
		Frame{Tag: DefaultContinueTag, Payload: []byte{1}},
		Frame{Tag: 0x0201, Payload: make([]byte, 6)},
	)
	dec, err := NewDecoder(NewBytesSource(stream), DecoderOptions{Registry: testRegistry()})
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	_, first := dec.Next()
	_, second := dec.Next()
	if first == nil || first != second {
		t.Fatalf("expected sticky error, got %v then %v", first, second)
	}
}

func TestDecoderWrapsKindDecodeFailure(t *testing.T) {
	stream := frameBytes(Frame{Tag: 0x0201, Payload: make([]byte, 4)})
	_, err := DecodeBytes(stream, DecoderOptions{Registry: testRegistry()})
	if !errors.Is(err, ErrDecode) || !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrDecode wrapping ErrShortPayload, got %v", err)
	}
}

func TestDecoderRejectsMismatchedBodyTag(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Kind{Tag: 0x0202, Name: "LIAR", Decode: decodeTestCell})
	stream := frameBytes(Frame{Tag: 0x0202, Payload: make([]byte, 6)})
	if _, err := DecodeBytes(stream, DecoderOptions{Registry: reg}); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

// keystream flags any decryption that overlaps a header byte range.
type keystream struct {
	headers [][2]int64
	touched bool
}

func (k *keystream) Decrypt(offset int64, p []byte) {
	end := offset + int64(len(p))
	for _, h := range k.headers {
		if offset < h[1] && h[0] < end {
			k.touched = true
		}
	}
	for i := range p {
		p[i] ^= byte(offset+int64(i)) | 0x80
	}
}

func TestDecoderNeverDecryptsHeaders(t *testing.T) {
	f := DefaultFormat()
	plain := []Body{
		&testCell{row: 1, col: 2, xf: 3},
		NewRawPayload(0x00EB, seqPayload(9000)),
	}
	stream, err := Marshal(f, testRegistry(), plain...)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Headers at 0, 10 and 10+4+8224.
	ks := &keystream{headers: [][2]int64{{0, 4}, {10, 14}, {8238, 8242}}}
	encrypted := append([]byte(nil), stream...)
	for _, r := range [][2]int64{{4, 10}, {14, 8238}, {8242, int64(len(stream))}} {
		ks.Decrypt(r[0], encrypted[r[0]:r[1]])
	}
	ks.touched = false

	src := NewBytesSource(encrypted).WithDecryptor(ks)
	recs, err := DecodeAll(src, DecoderOptions{Registry: testRegistry()})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ks.touched {
		t.Fatalf("decryptor saw header bytes")
	}
	if c := recs[0].Body.(*testCell); c.row != 1 || c.col != 2 || c.xf != 3 {
		t.Fatalf("cell=%+v", c)
	}
	if !bytes.Equal(recs[1].Body.(*RawPayload).Data, seqPayload(9000)) {
		t.Fatalf("decrypted payload mismatch")
	}
}

func TestEncoderRejectsContinuationTaggedBody(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, DefaultFormat())
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	if err := enc.Encode(NewRawPayload(DefaultContinueTag, nil)); !errors.Is(err, ErrOrphanContinuation) {
		t.Fatalf("expected ErrOrphanContinuation, got %v", err)
	}
	if buf.Len() != 0 || enc.Written() != 0 {
		t.Fatalf("encoder wrote %d bytes", buf.Len())
	}
}

func TestRecordCloneIsIndependent(t *testing.T) {
	rec := Record{Body: &testCell{row: 1, col: 1}, Frames: 1}
	clone := rec.Clone()
	clone.Body.(*testCell).row = 9
	if rec.Body.(*testCell).row != 1 {
		t.Fatalf("clone shares body")
	}
}

func TestCellsOfSortsRowMajor(t *testing.T) {
	recs := []Record{
		{Body: &testCell{row: 2, col: 0}},
		{Body: NewRawPayload(0x00EB, nil)},
		{Body: &testCell{row: 0, col: 5}},
		{Body: &testCell{row: 0, col: 1}},
	}
	cells := CellsOf(recs)
	if len(cells) != 3 {
		t.Fatalf("cells=%d", len(cells))
	}
	SortCells(cells)
	if cells[0].Column() != 1 || cells[1].Column() != 5 || cells[2].Row() != 2 {
		t.Fatalf("unexpected order: %v", cells)
	}
}

func TestRegistryRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Kind{Tag: 1}); !errors.Is(err, ErrNilDecoder) {
		t.Fatalf("expected ErrNilDecoder, got %v", err)
	}
	if err := reg.Register(Kind{Tag: 1, Decode: DecodeRaw}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(Kind{Tag: 1, Decode: DecodeRaw}); !errors.Is(err, ErrKindExists) {
		t.Fatalf("expected ErrKindExists, got %v", err)
	}
	if reg.Name(1) != "0x0001" || reg.Name(2) != UnknownName {
		t.Fatalf("names=%q,%q", reg.Name(1), reg.Name(2))
	}
	var nilReg *Registry
	if k, known := nilReg.Lookup(5); known || k.Continuable || k.Decode == nil {
		t.Fatalf("nil registry lookup=%+v known=%v", k, known)
	}
	if tags := nilReg.Tags(); len(tags) != 0 {
		t.Fatalf("nil registry tags=%v", tags)
	}
	if got := reg.Tags(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("tags=%v", got)
	}
}

// negativeSource reports a remaining count below zero.
type negativeSource struct{}

func (negativeSource) ReadPlainUint16() (uint16, error) { return 0, nil }
func (negativeSource) ReadPayload([]byte) error         { return nil }
func (negativeSource) Remaining() int64                 { return -1 }

func TestDecoderRejectsNegativeAvailable(t *testing.T) {
	dec, err := NewDecoder(negativeSource{}, DecoderOptions{})
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	_, err = dec.Next()
	if !errors.Is(err, ErrNegativeAvailable) || !IsFormatError(err) {
		t.Fatalf("expected ErrNegativeAvailable format error, got %v", err)
	}
	if _, again := dec.Next(); again != err {
		t.Fatalf("error not sticky: %v", again)
	}
}

func TestDecoderReportsTruncatedPayload(t *testing.T) {
	stream := frameBytes(
		Frame{Tag: 0x0201, Payload: make([]byte, 6)},
		Frame{Tag: 0x1234, Payload: make([]byte, 10)},
	)
	// The declared size covers the whole second frame but the reader stops
	// three bytes into its payload.
	short := stream[:len(stream)-7]
	src := NewStreamSource(bytes.NewReader(short), int64(len(stream)))
	_, err := DecodeAll(src, DecoderOptions{Registry: testRegistry()})
	if !errors.Is(err, ErrTruncatedPayload) || !IsFormatError(err) {
		t.Fatalf("expected ErrTruncatedPayload format error, got %v", err)
	}
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Tag != 0x1234 || fe.Offset != 10 {
		t.Fatalf("format error=%+v", fe)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("cause not kept: %v", err)
	}
}

func TestEncoderRefusesToSplitNonContinuableKinds(t *testing.T) {
	f := DefaultFormat()
	reg := testRegistry()
	big := seqPayload(f.MaxPayload + 1)

	for _, b := range []Body{NewRawPayload(0x7777, big), NewRawPayload(0x0201, big)} {
		var buf bytes.Buffer
		enc, err := NewEncoder(&buf, f)
		if err != nil {
			t.Fatalf("new encoder: %v", err)
		}
		enc.SetRegistry(reg)
		err = enc.Encode(b)
		if !errors.Is(err, ErrIllegalContinuation) || !IsFormatError(err) {
			t.Fatalf("tag 0x%04X: expected ErrIllegalContinuation, got %v", b.TypeTag(), err)
		}
		if buf.Len() != 0 {
			t.Fatalf("tag 0x%04X: encoder wrote %d bytes", b.TypeTag(), buf.Len())
		}
	}

	// Exactly one frame needs no continuation and is always allowed.
	if _, err := Marshal(f, reg, NewRawPayload(0x7777, seqPayload(f.MaxPayload))); err != nil {
		t.Fatalf("single frame: %v", err)
	}

	stream, err := Marshal(f, reg, NewRawPayload(0x00EB, big))
	if err != nil {
		t.Fatalf("continuable kind: %v", err)
	}
	if _, err := DecodeBytes(stream, DecoderOptions{Registry: reg}); err != nil {
		t.Fatalf("decode continuable kind: %v", err)
	}

	reg.SetFallbackContinuable(true)
	stream, err = Marshal(f, reg, NewRawPayload(0x7777, big))
	if err != nil {
		t.Fatalf("fallback continuable: %v", err)
	}
	recs, err := DecodeBytes(stream, DecoderOptions{Registry: reg})
	if err != nil || len(recs) != 1 || recs[0].Frames != 2 {
		t.Fatalf("decode fallback continuable: recs=%d err=%v", len(recs), err)
	}

	// Without a registry the encoder only frames bytes.
	if _, err := Marshal(f, nil, NewRawPayload(0x7777, big)); err != nil {
		t.Fatalf("nil registry: %v", err)
	}
}
