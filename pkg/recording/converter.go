package recording

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/getmockd/httpreplay/pkg/httputil"
	"github.com/getmockd/httpreplay/pkg/matcher"
)

// Capture builds a record from a real response. The response body is read in
// full and put back, so the caller can still consume it.
//
// Compressed bodies (gzip, deflate, zstd) are stored decoded and their
// Content-Encoding and Content-Length headers are dropped.
func Capture(req *matcher.Request, resp *http.Response, at time.Time) (*Record, error) {
	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	header := resp.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	body := raw
	if decoded, ok := decodeContent(header.Get("Content-Encoding"), raw); ok {
		body = decoded
		header.Del("Content-Encoding")
		header.Del("Content-Length")
	}

	attrs := make(map[string]any, len(req.Attributes))
	for k, v := range req.Attributes {
		attrs[k] = v
	}

	rec := &Record{
		Status:     resp.StatusCode,
		Headers:    Headers(header),
		RecordedAt: at.UTC().Truncate(time.Second),
		Request: RecordedRequest{
			Method:     req.Method,
			URL:        req.URLString(),
			Attributes: attrs,
		},
	}
	if err := rec.SetBody(body); err != nil {
		return nil, err
	}
	return rec, nil
}

// SetBody stores body on the record: JSON objects, arrays, numbers and
// booleans structurally, other UTF-8 text as a string, anything else base64.
func (r *Record) SetBody(body []byte) error {
	r.BodyEncoding = ""

	switch {
	case !utf8.Valid(body):
		r.BodyEncoding = BodyEncodingBase64
		return r.setString(base64.StdEncoding.EncodeToString(body))
	case isStructured(body):
		var buf bytes.Buffer
		if err := json.Compact(&buf, body); err != nil {
			return r.setString(string(body))
		}
		r.Body = buf.Bytes()
		return nil
	default:
		return r.setString(string(body))
	}
}

func (r *Record) setString(s string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	r.Body = bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return nil
}

// isStructured reports whether body is JSON worth storing decoded. Strings
// and null stay raw so they round-trip byte for byte.
func isStructured(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return false
	}
	switch trimmed[0] {
	case '"', 'n':
		return false
	default:
		return true
	}
}

// BodyBytes returns the body in wire form.
func (r *Record) BodyBytes() ([]byte, error) {
	if len(r.Body) == 0 || string(r.Body) == "null" {
		return nil, nil
	}

	if r.IsStructured() {
		var buf bytes.Buffer
		if err := json.Compact(&buf, r.Body); err != nil {
			return nil, fmt.Errorf("%w: body: %v", ErrMalformed, err)
		}
		return buf.Bytes(), nil
	}

	var s string
	if err := json.Unmarshal(r.Body, &s); err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrMalformed, err)
	}

	switch r.BodyEncoding {
	case "":
		return []byte(s), nil
	case BodyEncodingBase64:
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: body: %v", ErrMalformed, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unsupported body encoding %q", ErrMalformed, r.BodyEncoding)
	}
}

// ToResponse turns the record into a fake response for req.
func (r *Record) ToResponse(req *http.Request) (*http.Response, error) {
	body, err := r.BodyBytes()
	if err != nil {
		return nil, err
	}
	return httputil.NewResponse(req, r.Status, r.Headers.HTTP(), body), nil
}
