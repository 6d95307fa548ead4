package record

import (
	"fmt"
	"math"
)

// HeaderSize is the size of the tag + length frame header.
const HeaderSize = 4

// Published BIFF8 constants.
const (
	DefaultContinueTag uint16 = 0x003C
	DefaultMaxPayload         = 8224
)

// Format carries the frame constants of the target format. They are
// configured, never inferred from the stream.
type Format struct {
	ContinueTag uint16
	MaxPayload  int
}

func DefaultFormat() Format {
	return Format{
		ContinueTag: DefaultContinueTag,
		MaxPayload:  DefaultMaxPayload,
	}
}

// orDefault maps the zero Format to DefaultFormat.
func (f Format) orDefault() Format {
	if f == (Format{}) {
		return DefaultFormat()
	}
	return f
}

func (f Format) Validate() error {
	if f.MaxPayload <= 0 || f.MaxPayload > math.MaxUint16 {
		return fmt.Errorf("%w: max payload %d outside 1..%d", ErrInvalidFormat, f.MaxPayload, math.MaxUint16)
	}
	return nil
}

// IsContinue reports whether tag is the continuation tag.
func (f Format) IsContinue(tag uint16) bool {
	return tag == f.ContinueTag
}

// FrameCount is the number of physical frames a payload of n bytes needs.
// An empty payload still takes one frame.
func (f Format) FrameCount(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + f.MaxPayload - 1) / f.MaxPayload
}
