// Package kinds holds the payload kinds the record layer knows how to decode.
// Everything else round-trips as record.RawPayload.
package kinds

import (
	"github.com/danmuck/biffrec/internal/record"
)

// BIFF8 type tags.
const (
	TagEOF             uint16 = 0x000A
	TagFilePass        uint16 = 0x002F
	TagCodePage        uint16 = 0x0042
	TagObj             uint16 = 0x005D
	TagMulBlank        uint16 = 0x00BE
	TagMsoDrawingGroup uint16 = 0x00EB
	TagMsoDrawing      uint16 = 0x00EC
	TagLabelSST        uint16 = 0x00FD
	TagTxo             uint16 = 0x01B6
	TagBlank           uint16 = 0x0201
	TagNumber          uint16 = 0x0203
	TagLabel           uint16 = 0x0204
	TagRK              uint16 = 0x027E
	TagBOF             uint16 = 0x0809
)

// continuableRaw are opaque kinds whose payloads routinely span CONTINUE
// frames. Their inner structure belongs to the drawing layer.
var continuableRaw = []record.Kind{
	{Tag: TagMsoDrawingGroup, Name: "MSODRAWINGGROUP"},
	{Tag: TagMsoDrawing, Name: "MSODRAWING"},
	{Tag: TagObj, Name: "OBJ"},
	{Tag: TagTxo, Name: "TXO"},
}

// All lists every built-in kind.
func All() []record.Kind {
	kinds := []record.Kind{
		{Tag: TagBOF, Name: "BOF", Decode: decodeBOF},
		{Tag: TagEOF, Name: "EOF", Decode: decodeEOF},
		{Tag: TagCodePage, Name: "CODEPAGE", Decode: decodeCodePage},
		// FILEPASS stays opaque; its layout depends on the cipher.
		{Tag: TagFilePass, Name: "FILEPASS", Decode: record.DecodeRaw},
		{Tag: TagNumber, Name: "NUMBER", Decode: decodeNumber},
		{Tag: TagBlank, Name: "BLANK", Decode: decodeBlank},
		{Tag: TagRK, Name: "RK", Decode: decodeRK},
		{Tag: TagLabelSST, Name: "LABELSST", Decode: decodeLabelSST},
		{Tag: TagLabel, Name: "LABEL", Decode: decodeLabel},
		{Tag: TagMulBlank, Name: "MULBLANK", Decode: decodeMulBlank},
	}
	for _, k := range continuableRaw {
		k.Continuable = true
		k.Decode = record.DecodeRaw
		kinds = append(kinds, k)
	}
	return kinds
}

// Register adds every built-in kind to reg.
func Register(reg *record.Registry) error {
	for _, k := range All() {
		if err := reg.Register(k); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in kinds.
func NewRegistry() *record.Registry {
	reg := record.NewRegistry()
	reg.MustRegister(All()...)
	return reg
}
