package codec

import (
	"bytes"

	gojson "github.com/goccy/go-json"
)

// GoJSON is a JSON codec backed by github.com/goccy/go-json.
type GoJSON struct{}

// Marshal encodes v to JSON without HTML escaping.
func (GoJSON) Marshal(v any) ([]byte, error) {
	return marshalUnescaped(v, func(buf *bytes.Buffer) encoder { return gojson.NewEncoder(buf) })
}

// Unmarshal decodes JSON data into v.
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns "go-json".
func (GoJSON) Name() string { return "go-json" }
