// Package recording converts between live HTTP responses and stored records,
// the JSON documents kept on disk for replay.
package recording

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// ErrMalformed is returned when stored data is not a usable record.
var ErrMalformed = errors.New("malformed stored record")

// BodyEncodingBase64 marks a body stored as base64 because it was not valid UTF-8.
const BodyEncodingBase64 = "base64"

// Record is a captured response together with the request that produced it.
type Record struct {
	Status  int     `json:"status"`
	Headers Headers `json:"headers"`

	// Body holds structured JSON as-is, or a JSON string with the raw text.
	Body         json.RawMessage `json:"body"`
	BodyEncoding string          `json:"body_encoding,omitempty"`

	// RecordedAt is the capture time; the zero value means unknown.
	RecordedAt time.Time       `json:"recorded_at"`
	Request    RecordedRequest `json:"request"`
}

// RecordedRequest echoes the request a record was captured for.
type RecordedRequest struct {
	Method     string         `json:"method"`
	URL        string         `json:"url"`
	Attributes map[string]any `json:"attributes"`
}

// Headers is a header multimap. When decoding it also accepts single string
// values, which hand-written fixtures tend to use.
type Headers map[string][]string

// UnmarshalJSON implements json.Unmarshaler.
func (h *Headers) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Headers, len(raw))
	for name, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			out[name] = list
			continue
		}
		var single string
		if err := json.Unmarshal(v, &single); err != nil {
			return err
		}
		out[name] = []string{single}
	}
	*h = out
	return nil
}

// HTTP returns the headers flattened to their first value, as served on replay.
func (h Headers) HTTP() http.Header {
	out := make(http.Header, len(h))
	for name, vals := range h {
		if len(vals) > 0 {
			out.Set(name, vals[0])
		}
	}
	return out
}

// IsStructured reports whether the body was stored as decoded JSON.
func (r *Record) IsStructured() bool {
	if r.BodyEncoding != "" || len(r.Body) == 0 {
		return false
	}
	return r.Body[0] != '"'
}
