package kinds

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/danmuck/biffrec/internal/record"
)

// ErrLabelText is returned when a string cannot be stored in a LABEL.
var ErrLabelText = errors.New("kinds: label text not encodable")

const labelHighByte = 0x01

// MaxLabelChars is the BIFF8 limit on LABEL text. It keeps the record inside
// a single frame.
const MaxLabelChars = 255

// Label is an inline string cell. Chars holds the characters exactly as
// stored: one byte per char when HighByte is false (compressed Latin-1),
// two when true (UTF-16LE).
type Label struct {
	Cell
	HighByte bool
	Chars    []byte
}

func latin1() encoding.Encoding { return charmap.ISO8859_1 }

func utf16LE() encoding.Encoding {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

// NewLabel stores text compressed when every rune fits Latin-1 and as
// UTF-16LE otherwise.
func NewLabel(cell Cell, text string) (*Label, error) {
	l := &Label{Cell: cell}
	if err := l.SetText(text); err != nil {
		return nil, err
	}
	return l, nil
}

// Len is the character count written to the payload.
func (l *Label) Len() int {
	if l.HighByte {
		return len(l.Chars) / 2
	}
	return len(l.Chars)
}

// Text decodes the stored characters.
func (l *Label) Text() (string, error) {
	enc := latin1()
	if l.HighByte {
		enc = utf16LE()
	}
	b, err := enc.NewDecoder().Bytes(l.Chars)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLabelText, err)
	}
	return string(b), nil
}

// SetText replaces the stored characters. l is left unchanged on error.
func (l *Label) SetText(text string) error {
	highByte := false
	chars, err := latin1().NewEncoder().Bytes([]byte(text))
	if err != nil {
		highByte = true
		if chars, err = utf16LE().NewEncoder().Bytes([]byte(text)); err != nil {
			return fmt.Errorf("%w: %v", ErrLabelText, err)
		}
	}
	n := len(chars)
	if highByte {
		n /= 2
	}
	if n > MaxLabelChars {
		return fmt.Errorf("%w: %d chars, max %d", ErrLabelText, n, MaxLabelChars)
	}
	l.HighByte, l.Chars = highByte, chars
	return nil
}

func (l *Label) TypeTag() uint16 { return TagLabel }
func (l *Label) DataSize() int   { return cellSize + 3 + len(l.Chars) }

func (l *Label) Serialize(w *record.PayloadWriter) {
	l.put(w)
	w.Uint16(uint16(l.Len()))
	var flags uint8
	if l.HighByte {
		flags |= labelHighByte
	}
	w.Uint8(flags)
	w.Write(l.Chars)
}

func (l *Label) Clone() record.Body {
	cp := *l
	cp.Chars = append([]byte(nil), l.Chars...)
	return &cp
}

func decodeLabel(_ uint16, payload []byte) (record.Body, error) {
	r := record.NewPayloadReader(payload)
	l := &Label{Cell: readCell(r)}
	n := int(r.Uint16())
	flags := r.Uint8()
	if flags&^labelHighByte != 0 {
		return nil, fmt.Errorf("LABEL: unsupported string flags 0x%02X", flags)
	}
	l.HighByte = flags&labelHighByte != 0
	if l.HighByte {
		n *= 2
	}
	l.Chars = r.Bytes(n)
	if err := r.Done(); err != nil {
		return nil, err
	}
	return l, nil
}
