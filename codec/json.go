package codec

import (
	"bytes"
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Non-finite floats are rejected by both codecs; callers map NaN to null
// before encoding.
type JSON struct{}

// Marshal encodes v without HTML escaping.
func (JSON) Marshal(v any) ([]byte, error) { return stdEncode(v, "") }

// MarshalIndent encodes v with two-space indentation.
func (JSON) MarshalIndent(v any) ([]byte, error) { return stdEncode(v, "  ") }

func stdEncode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal decodes data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }

// Default is the codec used for API responses and new manifests.
var Default Codec = GoJSON{}
