package codec

import (
	"bytes"

	gojson "github.com/goccy/go-json"
)

// GoJSON is a JSON codec backed by github.com/goccy/go-json. It is the
// default for API payloads, where snapshot coordinate arrays dominate.
type GoJSON struct{}

// Marshal encodes v without HTML escaping; payloads are never embedded in HTML.
func (GoJSON) Marshal(v any) ([]byte, error) { return goEncode(v, "") }

// MarshalIndent encodes v with two-space indentation for terminal output.
func (GoJSON) MarshalIndent(v any) ([]byte, error) { return goEncode(v, "  ") }

// gojson.MarshalNoEscape still escapes HTML; only the Encoder can turn it off.
func goEncode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := gojson.NewEncoder(&buf)
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
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns "go-json".
func (GoJSON) Name() string { return "go-json" }

// Append encodes v and appends it to dst.
func (c GoJSON) Append(dst []byte, v any) ([]byte, error) {
	b, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
