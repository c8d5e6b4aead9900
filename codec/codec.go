// Package codec centralizes the payload encoding internal/checkpoint uses
// before lz4-compressing a graph snapshot.
//
// Codec selection is a breaking-change boundary: a checkpoint written
// under one codec cannot be read back after switching Default, so every
// checkpoint's header records the codec name it was written with.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name, used to decode a
// checkpoint whose header names the codec it was written with.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
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
