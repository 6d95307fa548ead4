package record

// RawPayload keeps the bytes of a kind with no specialized decoder so the
// record survives a read-modify-write cycle unchanged.
type RawPayload struct {
	tag  uint16
	Data []byte
}

var _ Body = (*RawPayload)(nil)

// NewRawPayload copies data.
func NewRawPayload(tag uint16, data []byte) *RawPayload {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &RawPayload{tag: tag, Data: buf}
}

// DecodeRaw is the fallback DecodeFunc.
func DecodeRaw(tag uint16, payload []byte) (Body, error) {
	return NewRawPayload(tag, payload), nil
}

func (p *RawPayload) TypeTag() uint16 {
	return p.tag
}

func (p *RawPayload) DataSize() int {
	return len(p.Data)
}

func (p *RawPayload) Serialize(w *PayloadWriter) {
	w.Write(p.Data)
}

func (p *RawPayload) Clone() Body {
	return NewRawPayload(p.tag, p.Data)
}
