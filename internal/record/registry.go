package record

import (
	"fmt"
	"slices"
	"strings"
)

// DecodeFunc builds a Body from a fully reassembled payload.
type DecodeFunc func(tag uint16, payload []byte) (Body, error)

// Kind is one registry entry. Continuable kinds may be followed by
// continuation frames; for every other kind a following continuation frame is
// a format error.
type Kind struct {
	Tag         uint16
	Name        string
	Continuable bool
	Decode      DecodeFunc
}

// UnknownName labels tags without a registry entry.
const UnknownName = "UNKNOWN"

// Registry maps type tags to decoders. Tags without an entry fall back to
// RawPayload. A Registry is not safe for concurrent registration; build it
// once and share it read-only.
type Registry struct {
	kinds               map[uint16]Kind
	fallbackContinuable bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[uint16]Kind)}
}

// Register adds a kind.
func (r *Registry) Register(k Kind) error {
	if k.Decode == nil {
		return fmt.Errorf("%w: tag=0x%04X", ErrNilDecoder, k.Tag)
	}
	if _, ok := r.kinds[k.Tag]; ok {
		return fmt.Errorf("%w: tag=0x%04X", ErrKindExists, k.Tag)
	}
	if strings.TrimSpace(k.Name) == "" {
		k.Name = fmt.Sprintf("0x%04X", k.Tag)
	}
	r.kinds[k.Tag] = k
	return nil
}

// MustRegister is Register for static tables.
func (r *Registry) MustRegister(kinds ...Kind) {
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
}

// MarkContinuable flags tag as continuable. Tags without an entry get a
// continuable RawPayload entry.
func (r *Registry) MarkContinuable(tag uint16) {
	k, ok := r.kinds[tag]
	if !ok {
		k = Kind{Tag: tag, Name: fmt.Sprintf("0x%04X", tag), Decode: DecodeRaw}
	}
	k.Continuable = true
	r.kinds[tag] = k
}

// SetFallbackContinuable controls whether unknown tags accept continuation
// frames.
func (r *Registry) SetFallbackContinuable(v bool) {
	r.fallbackContinuable = v
}

// Resolve returns the registered kind for tag.
func (r *Registry) Resolve(tag uint16) (Kind, bool) {
	if r == nil {
		return Kind{}, false
	}
	k, ok := r.kinds[tag]
	return k, ok
}

// Lookup returns the kind for tag, falling back to RawPayload. known is false
// for the fallback.
func (r *Registry) Lookup(tag uint16) (k Kind, known bool) {
	if k, ok := r.Resolve(tag); ok {
		return k, true
	}
	fallback := Kind{Tag: tag, Name: UnknownName, Decode: DecodeRaw}
	if r != nil {
		fallback.Continuable = r.fallbackContinuable
	}
	return fallback, false
}

// Name returns the registered name of tag or UnknownName.
func (r *Registry) Name(tag uint16) string {
	k, _ := r.Lookup(tag)
	return k.Name
}

// Tags lists registered tags in ascending order.
func (r *Registry) Tags() []uint16 {
	if r == nil {
		return nil
	}
	tags := make([]uint16, 0, len(r.kinds))
	for tag := range r.kinds {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}
