package record

import (
	"errors"
	"fmt"
)

// Format violations. These are always reported wrapped in a *FormatError.
var (
	ErrTruncatedHeader        = errors.New("record: truncated frame header")
	ErrTruncatedPayload       = errors.New("record: truncated frame payload")
	ErrLengthExceedsAvailable = errors.New("record: declared length exceeds available bytes")
	ErrFrameTooLarge          = errors.New("record: frame length exceeds max payload")
	ErrNegativeAvailable      = errors.New("record: negative available byte count")
	ErrOrphanContinuation     = errors.New("record: continuation frame without a preceding record")
	ErrIllegalContinuation    = errors.New("record: continuation frame after non-continuable record")
	ErrNotContinuation        = errors.New("record: trailing frame is not a continuation frame")
	ErrDecode                 = errors.New("record: payload decode failed")
)

// Usage errors.
var (
	ErrNoFrames       = errors.New("record: no frames")
	ErrKindExists     = errors.New("record: kind already registered")
	ErrNilDecoder     = errors.New("record: kind has no decode func")
	ErrBufferTooSmall = errors.New("record: output buffer too small")
	ErrSizeMismatch   = errors.New("record: serialized size differs from DataSize")
	ErrInvalidFormat  = errors.New("record: invalid format constants")
	ErrShortPayload   = errors.New("record: payload shorter than layout")
	ErrTrailingBytes  = errors.New("record: trailing payload bytes")
	ErrInvalidBody    = errors.New("record: body failed validation")
)

// FormatError reports a malformed record stream. Once a FormatError is seen
// the byte offsets of every later frame are untrustworthy, so callers must
// treat it as fatal for the whole stream.
type FormatError struct {
	Op     string
	Tag    uint16
	Offset int64
	Err    error
	Cause  error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%v (op=%s tag=0x%04X offset=%d)", e.Err, e.Op, e.Tag, e.Offset)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// IsFormatError reports whether err carries a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func formatErr(op string, tag uint16, offset int64, sentinel, cause error) *FormatError {
	return &FormatError{Op: op, Tag: tag, Offset: offset, Err: sentinel, Cause: cause}
}
