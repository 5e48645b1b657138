// Package codec centralizes JSON encoding of API payloads, CLI output and
// reference-model manifests.
//
// Manifests record the codec name so they can be decoded with the codec that
// wrote them.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Indenter is implemented by codecs that can produce human-readable output.
type Indenter interface {
	MarshalIndent(v any) ([]byte, error)
}

// MarshalIndent encodes v indented when c supports it, compact otherwise.
func MarshalIndent(c Codec, v any) ([]byte, error) {
	if in, ok := c.(Indenter); ok {
		return in.MarshalIndent(v)
	}
	return c.Marshal(v)
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests and fixed payloads.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
