package codec

import (
	"bytes"
	"encoding/json"
)

// JSON is the standard-library JSON codec.
type JSON struct{}

// Marshal encodes v to JSON without HTML escaping.
func (JSON) Marshal(v any) ([]byte, error) {
	return marshalUnescaped(v, func(buf *bytes.Buffer) encoder { return json.NewEncoder(buf) })
}

// Unmarshal decodes JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }
