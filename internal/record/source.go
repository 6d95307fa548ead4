package record

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Source is the byte transport a Decoder pulls from. Header fields go through
// ReadPlainUint16 and are never decrypted; payload bytes go through
// ReadPayload and are.
type Source interface {
	ReadPlainUint16() (uint16, error)
	ReadPayload(p []byte) error
	Remaining() int64
}

// Decryptor transforms payload bytes in place. offset is the stream position
// of p[0], so position-keyed keystreams stay aligned across skipped headers.
type Decryptor interface {
	Decrypt(offset int64, p []byte)
}

// StreamSource reads a sized, forward-only stream.
type StreamSource struct {
	r       io.Reader
	size    int64
	offset  int64
	dec     Decryptor
	scratch [2]byte
}

var _ Source = (*StreamSource)(nil)

// NewStreamSource reads at most size bytes from r.
func NewStreamSource(r io.Reader, size int64) *StreamSource {
	return &StreamSource{r: io.LimitReader(r, size), size: size}
}

func NewBytesSource(b []byte) *StreamSource {
	return NewStreamSource(bytes.NewReader(b), int64(len(b)))
}

// WithDecryptor routes payload reads through d.
func (s *StreamSource) WithDecryptor(d Decryptor) *StreamSource {
	s.dec = d
	return s
}

func (s *StreamSource) ReadPlainUint16() (uint16, error) {
	n, err := io.ReadFull(s.r, s.scratch[:])
	s.offset += int64(n)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s.scratch[:]), nil
}

func (s *StreamSource) ReadPayload(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	start := s.offset
	n, err := io.ReadFull(s.r, p)
	s.offset += int64(n)
	if err != nil {
		return err
	}
	if s.dec != nil {
		s.dec.Decrypt(start, p)
	}
	return nil
}

func (s *StreamSource) Remaining() int64 {
	return s.size - s.offset
}

// Offset is the number of bytes consumed so far.
func (s *StreamSource) Offset() int64 {
	return s.offset
}
