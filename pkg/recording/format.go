package recording

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Marshal renders a record in its on-disk form: two-space indented JSON
// without HTML escaping, terminated by a newline.
func Marshal(rec *Record) ([]byte, error) {
	out := *rec
	if out.Request.Attributes == nil {
		out.Request.Attributes = map[string]any{}
	}
	if out.Headers == nil {
		out.Headers = Headers{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a stored record. Anything that is not a JSON object with
// a plausible status code fails with ErrMalformed.
func Unmarshal(data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, ErrMalformed
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.Status < 100 || rec.Status > 999 {
		return nil, fmt.Errorf("%w: status %d", ErrMalformed, rec.Status)
	}
	switch rec.BodyEncoding {
	case "", BodyEncodingBase64:
	default:
		return nil, fmt.Errorf("%w: unsupported body encoding %q", ErrMalformed, rec.BodyEncoding)
	}
	return &rec, nil
}

// URLOf extracts the echoed request URL from raw record bytes without
// decoding the whole document.
func URLOf(data []byte) (string, bool) {
	res := gjson.GetBytes(data, "request.url")
	if res.Type != gjson.String {
		return "", false
	}
	return res.String(), true
}
