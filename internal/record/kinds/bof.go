package kinds

import (
	"fmt"

	"github.com/danmuck/biffrec/internal/record"
)

// Substream types carried in BOF.
const (
	SubstreamWorkbook  uint16 = 0x0005
	SubstreamWorksheet uint16 = 0x0010
	SubstreamChart     uint16 = 0x0020
	SubstreamMacro     uint16 = 0x0040

	BIFF8Version uint16 = 0x0600
)

// BOF opens a substream.
type BOF struct {
	Version      uint16
	Type         uint16
	Build        uint16
	Year         uint16
	HistoryFlags uint32
	LowestVer    uint32
}

const bofSize = 16

func (b *BOF) TypeTag() uint16 { return TagBOF }
func (b *BOF) DataSize() int   { return bofSize }

func (b *BOF) Serialize(w *record.PayloadWriter) {
	w.Uint16(b.Version)
	w.Uint16(b.Type)
	w.Uint16(b.Build)
	w.Uint16(b.Year)
	w.Uint32(b.HistoryFlags)
	w.Uint32(b.LowestVer)
}

func (b *BOF) Clone() record.Body {
	cp := *b
	return &cp
}

func decodeBOF(_ uint16, payload []byte) (record.Body, error) {
	if len(payload) != bofSize {
		return nil, fmt.Errorf("BOF: %d bytes, want %d", len(payload), bofSize)
	}
	r := record.NewPayloadReader(payload)
	b := &BOF{
		Version:      r.Uint16(),
		Type:         r.Uint16(),
		Build:        r.Uint16(),
		Year:         r.Uint16(),
		HistoryFlags: r.Uint32(),
		LowestVer:    r.Uint32(),
	}
	return b, r.Done()
}

// EOF closes a substream. It has no payload.
type EOF struct{}

func (EOF) TypeTag() uint16                 { return TagEOF }
func (EOF) DataSize() int                   { return 0 }
func (EOF) Serialize(*record.PayloadWriter) {}
func (EOF) Clone() record.Body              { return EOF{} }

func decodeEOF(_ uint16, payload []byte) (record.Body, error) {
	if len(payload) != 0 {
		return nil, fmt.Errorf("EOF: %w: %d bytes", record.ErrTrailingBytes, len(payload))
	}
	return EOF{}, nil
}

// CodePage names the code page of byte strings in the workbook.
type CodePage struct {
	Value uint16
}

// CodePageUTF16 is the value BIFF8 writers always emit.
const CodePageUTF16 uint16 = 1200

func (c *CodePage) TypeTag() uint16                   { return TagCodePage }
func (c *CodePage) DataSize() int                     { return 2 }
func (c *CodePage) Serialize(w *record.PayloadWriter) { w.Uint16(c.Value) }

func (c *CodePage) Clone() record.Body {
	cp := *c
	return &cp
}

func decodeCodePage(_ uint16, payload []byte) (record.Body, error) {
	r := record.NewPayloadReader(payload)
	c := &CodePage{Value: r.Uint16()}
	return c, r.Done()
}
