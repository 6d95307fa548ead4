package record

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Body is the contract every payload kind implements. TypeTag is fixed at
// construction and never derived from payload content. Serialize must write
// exactly DataSize bytes. Clone must not share mutable state with the source.
type Body interface {
	TypeTag() uint16
	DataSize() int
	Serialize(w *PayloadWriter)
	Clone() Body
}

// Validator is implemented by bodies that can hold values with no valid
// encoding. Payload calls Validate before serializing.
type Validator interface {
	Validate() error
}

// Payload serializes b and checks the result against DataSize.
func Payload(b Body) ([]byte, error) {
	if v, ok := b.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: tag=0x%04X: %w", ErrInvalidBody, b.TypeTag(), err)
		}
	}
	w := NewPayloadWriter(b.DataSize())
	b.Serialize(w)
	if w.Len() != b.DataSize() {
		return nil, fmt.Errorf("%w: tag=0x%04X wrote %d, DataSize %d", ErrSizeMismatch, b.TypeTag(), w.Len(), b.DataSize())
	}
	return w.Bytes(), nil
}

// Size is the full encoded size of b: one header per physical frame plus the
// payload.
func Size(b Body, f Format) int {
	f = f.orDefault()
	n := b.DataSize()
	return n + HeaderSize*f.FrameCount(n)
}

// SerializeAt encodes b into buf starting at offset and returns the number of
// bytes written.
func SerializeAt(buf []byte, offset int, b Body, f Format) (int, error) {
	f = f.orDefault()
	payload, err := Payload(b)
	if err != nil {
		return 0, err
	}
	need := len(payload) + HeaderSize*f.FrameCount(len(payload))
	if offset < 0 || offset > len(buf) || len(buf)-offset < need {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooSmall, need, offset, len(buf)-offset)
	}
	out := buf[offset:offset:len(buf)]
	for _, fr := range Split(b.TypeTag(), payload, f) {
		out = AppendFrame(out, fr)
	}
	return len(out), nil
}

// PayloadWriter accumulates little-endian payload bytes.
type PayloadWriter struct {
	buf []byte
}

func NewPayloadWriter(capacity int) *PayloadWriter {
	return &PayloadWriter{buf: make([]byte, 0, max(capacity, 0))}
}

func (w *PayloadWriter) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *PayloadWriter) Uint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *PayloadWriter) Uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *PayloadWriter) Uint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *PayloadWriter) Float64(v float64) {
	w.Uint64(math.Float64bits(v))
}

func (w *PayloadWriter) Write(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *PayloadWriter) Len() int {
	return len(w.buf)
}

func (w *PayloadWriter) Bytes() []byte {
	return w.buf
}

// PayloadReader reads little-endian fields from a reassembled payload. The
// first short read sticks: later reads return zero values and Err reports
// ErrShortPayload.
type PayloadReader struct {
	b   []byte
	off int
	err error
}

func NewPayloadReader(b []byte) *PayloadReader {
	return &PayloadReader{b: b}
}

func (r *PayloadReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.b)-r.off < n {
		r.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrShortPayload, n, r.off, len(r.b)-r.off)
		return nil
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p
}

func (r *PayloadReader) Uint8() uint8 {
	p := r.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (r *PayloadReader) Uint16() uint16 {
	p := r.take(2)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(p)
}

func (r *PayloadReader) Uint32() uint32 {
	p := r.take(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

func (r *PayloadReader) Uint64() uint64 {
	p := r.take(8)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(p)
}

func (r *PayloadReader) Float64() float64 {
	return math.Float64frombits(r.Uint64())
}

// Bytes returns a copy of the next n bytes.
func (r *PayloadReader) Bytes(n int) []byte {
	p := r.take(n)
	if p == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, p)
	return out
}

func (r *PayloadReader) Remaining() int {
	return len(r.b) - r.off
}

func (r *PayloadReader) Err() error {
	return r.err
}

// Done fails when a read came up short or bytes were left over.
func (r *PayloadReader) Done() error {
	if r.err != nil {
		return r.err
	}
	if rest := r.Remaining(); rest != 0 {
		return fmt.Errorf("%w: %d left", ErrTrailingBytes, rest)
	}
	return nil
}
