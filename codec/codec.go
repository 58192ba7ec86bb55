// Package codec encodes the JSON sidecars of a VectorMap: the key list
// (strings.json) and the frequency pairs (freqs.json).
//
// Keys are written verbatim. Neither codec HTML-escapes '<', '>' or '&',
// so a key such as "rock&roll|NOUN" appears in the file as typed and files
// written by one codec read back with the other.
package codec

import (
	"bytes"
	"fmt"
)

// Codec converts sidecar values to and from their on-disk form.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

// ByName resolves "json" or "go-json".
func ByName(name string) (Codec, bool) {
	switch name {
	case JSON{}.Name():
		return JSON{}, true
	case GoJSON{}.Name():
		return GoJSON{}, true
	}
	return nil, false
}

// MustMarshal panics on failure. Intended for tests and fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("codec: %s: %v", c.Name(), err))
	}
	return b
}

// encoder is the shape shared by the encoding/json and go-json encoders.
type encoder interface {
	SetEscapeHTML(on bool)
	Encode(v any) error
}

// marshalUnescaped runs v through an encoder with HTML escaping off and
// drops the newline Encode appends.
func marshalUnescaped(v any, newEncoder func(buf *bytes.Buffer) encoder) ([]byte, error) {
	var buf bytes.Buffer
	enc := newEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
