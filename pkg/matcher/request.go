package matcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/httpreplay/internal/matching"
)

// OverrideAttribute is the request attribute that, when set, names the
// fingerprint directly and bypasses every matcher.
const OverrideAttribute = "replay"

// Request is an immutable snapshot of an outbound request, the input to every
// matcher. The body is buffered so it can be examined any number of times.
type Request struct {
	Method     string
	URL        *url.URL
	Header     http.Header
	Body       []byte
	Attributes map[string]any

	query     url.Values
	queryDone bool
	json      any
	jsonOK    bool
	jsonDone  bool
}

// NewRequest builds a snapshot from its parts. Mostly useful in tests.
func NewRequest(method, rawURL string, header http.Header, body []byte, attrs map[string]any) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing request url: %w", err)
	}
	if header == nil {
		header = http.Header{}
	}
	return &Request{
		Method:     method,
		URL:        u,
		Header:     header,
		Body:       body,
		Attributes: attrs,
	}, nil
}

// FromHTTP snapshots req. The request body is read once and put back so the
// request can still be sent over the network; GetBody is set accordingly.
// Attributes are taken from the request context (see WithAttributes).
func FromHTTP(req *http.Request) (*Request, error) {
	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	return &Request{
		Method:     method,
		URL:        req.URL,
		Header:     req.Header,
		Body:       body,
		Attributes: AttributesFrom(req.Context()),
	}, nil
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	// Prefer GetBody: it leaves the original body untouched for the transport.
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err == nil {
			defer func() { _ = rc.Close() }()
			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, fmt.Errorf("reading request body: %w", err)
			}
			return data, nil
		}
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return data, nil
}

// URLString returns the full request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Host returns the URL host without port, or "" when there is none.
func (r *Request) Host() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}

// Query returns the parsed query string.
func (r *Request) Query() url.Values {
	if !r.queryDone {
		r.queryDone = true
		if r.URL != nil {
			r.query = r.URL.Query()
		}
	}
	return r.query
}

// JSON returns the decoded request body and whether it was valid JSON.
func (r *Request) JSON() (any, bool) {
	if !r.jsonDone {
		r.jsonDone = true
		r.json, r.jsonOK = matching.DecodeJSON(r.Body)
	}
	return r.json, r.jsonOK
}

// Attribute looks up a request attribute by dot path.
func (r *Request) Attribute(path string) (any, bool) {
	if len(r.Attributes) == 0 {
		return nil, false
	}
	if v, ok := r.Attributes[path]; ok {
		return v, v != nil
	}
	if !strings.Contains(path, ".") {
		return nil, false
	}
	return matching.Lookup(r.Attributes, path)
}

// OverrideName returns the explicit fingerprint override attribute, if set.
func (r *Request) OverrideName() (string, bool) {
	v, ok := r.Attributes[OverrideAttribute]
	if !ok {
		return "", false
	}
	s := matching.Stringify(v)
	return s, s != ""
}

type attributesKey struct{}

// WithAttributes returns a context carrying request attributes. Attributes are
// echoed into stored records and can be used by attribute matchers. Calling it
// again merges into the attributes already on ctx.
func WithAttributes(ctx context.Context, attrs map[string]any) context.Context {
	merged := make(map[string]any, len(attrs))
	for k, v := range AttributesFrom(ctx) {
		merged[k] = v
	}
	for k, v := range attrs {
		merged[k] = v
	}
	return context.WithValue(ctx, attributesKey{}, merged)
}

// WithName returns a context whose requests are stored under the given
// fingerprint name, regardless of the active matchers.
func WithName(ctx context.Context, name string) context.Context {
	return WithAttributes(ctx, map[string]any{OverrideAttribute: name})
}

// AttributesFrom returns the attributes carried by ctx, or nil.
func AttributesFrom(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attributesKey{}).(map[string]any)
	return attrs
}
