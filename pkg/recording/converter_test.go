package recording

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/httpreplay/pkg/matcher"
)

var capturedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newRequest(t *testing.T, method, rawURL string, attrs map[string]any) *matcher.Request {
	t.Helper()
	r, err := matcher.NewRequest(method, rawURL, nil, nil, attrs)
	require.NoError(t, err)
	return r
}

func newResponse(status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

func roundTrip(t *testing.T, body []byte) ([]byte, *Record) {
	t.Helper()

	rec, err := Capture(newRequest(t, "GET", "https://example.com/x", nil),
		newResponse(http.StatusOK, nil, body), capturedAt)
	require.NoError(t, err)

	data, err := Marshal(rec)
	require.NoError(t, err)
	stored, err := Unmarshal(data)
	require.NoError(t, err)

	resp, err := stored.ToResponse(nil)
	require.NoError(t, err)
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return got, stored
}

func TestCapture(t *testing.T) {
	header := http.Header{}
	header.Add("Content-Type", "application/json")
	header.Add("Set-Cookie", "a=1")
	header.Add("Set-Cookie", "b=2")

	resp := newResponse(http.StatusCreated, header, []byte(`{"id": 7}`))
	req := newRequest(t, "POST", "https://api.example.com/orders?x=1", map[string]any{"tenant": "acme"})

	rec, err := Capture(req, resp, capturedAt.Add(500*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Status)
	assert.Equal(t, []string{"a=1", "b=2"}, rec.Headers["Set-Cookie"])
	assert.JSONEq(t, `{"id":7}`, string(rec.Body))
	assert.True(t, rec.IsStructured())
	assert.Equal(t, capturedAt, rec.RecordedAt)
	assert.Equal(t, "POST", rec.Request.Method)
	assert.Equal(t, "https://api.example.com/orders?x=1", rec.Request.URL)
	assert.Equal(t, map[string]any{"tenant": "acme"}, rec.Request.Attributes)

	// The caller can still read the live response.
	rest, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"id": 7}`, string(rest))
}

func TestRoundTrip_StructuredBody(t *testing.T) {
	bodies := []string{
		`{"products":[{"id":1,"title":"Shirt"}],"next":null}`,
		`[1,2,3]`,
		`12345678901234567890`,
		`true`,
		"{\n  \"spaced\" : [ 1, 2 ]\n}",
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			got, stored := roundTrip(t, []byte(body))
			assert.True(t, stored.IsStructured())
			assert.JSONEq(t, body, string(got))
		})
	}
}

func TestRoundTrip_RawBody(t *testing.T) {
	bodies := []string{
		"plain text",
		"<html><body>a & b</body></html>",
		`"a json string"`,
		"null",
		"",
		"{not json",
		"line one\nline two\r\n",
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			got, stored := roundTrip(t, []byte(body))
			assert.False(t, stored.IsStructured())
			assert.Equal(t, body, string(got))
		})
	}
}

func TestRoundTrip_BinaryBody(t *testing.T) {
	body := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

	got, stored := roundTrip(t, body)
	assert.Equal(t, BodyEncodingBase64, stored.BodyEncoding)
	assert.Equal(t, body, got)
}

func TestCapture_DecodesCompressedBodies(t *testing.T) {
	plain := []byte(`{"compressed":true}`)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zs := enc.EncodeAll(plain, nil)
	require.NoError(t, enc.Close())

	tests := []struct {
		encoding string
		body     []byte
	}{
		{"gzip", gz.Bytes()},
		{"zstd", zs},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			header := http.Header{}
			header.Set("Content-Encoding", tt.encoding)
			header.Set("Content-Length", "123")

			rec, err := Capture(newRequest(t, "GET", "https://example.com", nil),
				newResponse(http.StatusOK, header, tt.body), capturedAt)
			require.NoError(t, err)

			assert.JSONEq(t, string(plain), string(rec.Body))
			assert.NotContains(t, rec.Headers, "Content-Encoding")
			assert.NotContains(t, rec.Headers, "Content-Length")
		})
	}
}

func TestCapture_KeepsUndecodableBody(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Encoding", "gzip")

	rec, err := Capture(newRequest(t, "GET", "https://example.com", nil),
		newResponse(http.StatusOK, header, []byte("not actually gzip")), capturedAt)
	require.NoError(t, err)

	assert.Equal(t, []string{"gzip"}, rec.Headers["Content-Encoding"])
	body, err := rec.BodyBytes()
	require.NoError(t, err)
	assert.Equal(t, "not actually gzip", string(body))
}

func TestToResponse(t *testing.T) {
	rec := &Record{
		Status: http.StatusAccepted,
		Headers: Headers{
			"Content-Type":   {"application/json"},
			"X-Multi":        {"first", "second"},
			"Content-Length": {"999"},
			"X-Empty":        {},
		},
		Body: json.RawMessage("{\n  \"ok\": true\n}"),
	}

	req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)

	resp, err := rec.ToResponse(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, []string{"first"}, resp.Header.Values("X-Multi"))
	assert.Empty(t, resp.Header.Values("X-Empty"))
	assert.Equal(t, "11", resp.Header.Get("Content-Length"))
	assert.Same(t, req, resp.Request)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestHeaders_AcceptsSingleValues(t *testing.T) {
	rec, err := Unmarshal([]byte(`{"status":200,"headers":{"Content-Type":"text/plain","X-A":["1","2"]},"body":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"text/plain"}, rec.Headers["Content-Type"])
	assert.Equal(t, []string{"1", "2"}, rec.Headers["X-A"])
	assert.True(t, rec.RecordedAt.IsZero())
}

func TestUnmarshal_Malformed(t *testing.T) {
	inputs := []string{
		``,
		`not json`,
		`[1,2]`,
		`"string"`,
		`{"headers":{}}`,
		`{"status":"200"}`,
		`{"status":42}`,
		`{"status":200,"recorded_at":"yesterday"}`,
		`{"status":200,"body":"x","body_encoding":"rot13"}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Unmarshal([]byte(in))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestURLOf(t *testing.T) {
	u, ok := URLOf([]byte(`{"status":200,"request":{"url":"https://example.com/a?b=1"}}`))
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/a?b=1", u)

	_, ok = URLOf([]byte(`{"status":200}`))
	assert.False(t, ok)
}

func TestMarshal_DoesNotMutate(t *testing.T) {
	rec := &Record{Status: 200, Body: json.RawMessage(`"x"`)}
	data, err := Marshal(rec)
	require.NoError(t, err)

	assert.Nil(t, rec.Request.Attributes)
	assert.True(t, strings.HasSuffix(string(data), "}\n"))
	assert.Contains(t, string(data), `"attributes": {}`)
}
