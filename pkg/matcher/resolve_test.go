package matcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReq(t *testing.T, method, rawURL string, body string) *Request {
	t.Helper()
	r, err := NewRequest(method, rawURL, nil, []byte(body), nil)
	require.NoError(t, err)
	return r
}

func resolve(s Spec, r *Request) any {
	v, ok := s.Resolve(r)
	if !ok {
		return nil
	}
	return v
}

func TestURLFamily(t *testing.T) {
	shop := func(t *testing.T) *Request { return newReq(t, "get", "https://shop.myshopify.com/x", "") }
	bare := func(t *testing.T) *Request { return newReq(t, "GET", "https://example.com/x", "") }

	tests := []struct {
		name string
		spec Spec
		req  func(*testing.T) *Request
		want any
	}{
		{"method upper-cases", Method(), shop, "GET"},
		{"url host and path", URL(), func(t *testing.T) *Request {
			return newReq(t, "GET", "https://api.example.com/products?page=2", "")
		}, "api.example.com_products"},
		{"url without path", URL(), func(t *testing.T) *Request {
			return newReq(t, "GET", "https://api.example.com/", "")
		}, "api.example.com"},
		{"url without host", URL(), func(t *testing.T) *Request {
			return newReq(t, "GET", "/relative/path", "")
		}, "unknown_relative/path"},
		{"host", Host(), shop, "shop.myshopify.com"},
		{"host ignores port", Host(), func(t *testing.T) *Request {
			return newReq(t, "GET", "http://localhost:8080/x", "")
		}, "localhost"},
		{"host missing", Host(), func(t *testing.T) *Request { return newReq(t, "GET", "/x", "") }, nil},
		{"subdomain", Subdomain(), shop, "shop"},
		{"subdomain absent on two labels", Subdomain(), bare, nil},
		{"domain strips first label", Domain(), shop, "myshopify.com"},
		{"domain keeps two labels", Domain(), bare, "example.com"},
		{"path trimmed", Path(), func(t *testing.T) *Request {
			return newReq(t, "GET", "https://example.com/api/v1/orders/", "")
		}, "api/v1/orders"},
		{"path absent at root", Path(), func(t *testing.T) *Request {
			return newReq(t, "GET", "https://example.com/", "")
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(tt.spec, tt.req(t)))
		})
	}
}

func TestParameterized(t *testing.T) {
	r, err := NewRequest(http.MethodPost, "https://example.com/api?page=2&empty=&filter[status]=open&tag=a&tag=b",
		http.Header{"X-Shop": []string{"acme"}, "X-Blank": []string{""}},
		[]byte(`{"variables":{"id":123,"flag":true},"items":[{"sku":"A1"}],"blank":""}`),
		map[string]any{"tenant": "t1", "nested": map[string]any{"id": 7}, "empty": ""},
	)
	require.NoError(t, err)

	tests := []struct {
		name string
		spec Spec
		want any
	}{
		{"header", Header("x-shop"), "acme"},
		{"header empty", Header("X-Blank"), nil},
		{"header missing", Header("X-Nope"), nil},
		{"query param", QueryParam("page"), "2"},
		{"query param empty", QueryParam("empty"), nil},
		{"query param missing", QueryParam("nope"), nil},
		{"query param bracket via dot path", QueryParam("filter.status"), "open"},
		{"query param repeated", QueryParam("tag"), `["a","b"]`},
		{"attribute", Attribute("tenant"), "t1"},
		{"attribute dot path", Attribute("nested.id"), "7"},
		{"attribute empty", Attribute("empty"), nil},
		{"attribute missing", Attribute("nope"), nil},
		{"body field number", BodyField("variables.id"), "123"},
		{"body field bool", BodyField("variables.flag"), "true"},
		{"body field array index", BodyField("items.0.sku"), "A1"},
		{"body field empty", BodyField("blank"), nil},
		{"body field missing", BodyField("variables.nope"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(tt.spec, r))
		})
	}
}

func TestBodyField_NonJSON(t *testing.T) {
	r := newReq(t, "POST", "https://example.com", "plain text")
	assert.Nil(t, resolve(BodyField("a"), r))
}

func TestBodyHash(t *testing.T) {
	t.Run("six characters", func(t *testing.T) {
		h := resolve(BodyHash(), newReq(t, "POST", "https://example.com/api", `{"query":"{products{...}}"}`))
		require.IsType(t, "", h)
		assert.Len(t, h, 6)
	})

	t.Run("differs for different bodies", func(t *testing.T) {
		a := resolve(BodyHash(), newReq(t, "POST", "https://example.com/api", `{"query":"{products{...}}"}`))
		b := resolve(BodyHash(), newReq(t, "POST", "https://example.com/api", `{"query":"{orders{...}}"}`))
		assert.NotEqual(t, a, b)
	})

	t.Run("independent of key order and whitespace", func(t *testing.T) {
		a := resolve(BodyHash(), newReq(t, "POST", "https://example.com/api", `{"a":1,"b":{"c":2,"d":3}}`))
		b := resolve(BodyHash(), newReq(t, "POST", "https://example.com/api", `{ "b": {"d":3, "c":2}, "a": 1 }`))
		assert.Equal(t, a, b)
	})

	t.Run("subset ignores other keys", func(t *testing.T) {
		spec := BodyHash("query", "variables.id")
		a := resolve(spec, newReq(t, "POST", "https://example.com/api",
			`{"query":"{products{...}}","variables":{"id":"123"},"timestamp":"2026-01-01"}`))
		b := resolve(spec, newReq(t, "POST", "https://example.com/api",
			`{"query":"{products{...}}","variables":{"id":"123"},"timestamp":"2026-02-02"}`))
		assert.Equal(t, a, b)
	})

	t.Run("subset differs when a named key differs", func(t *testing.T) {
		spec := BodyHash("query")
		a := resolve(spec, newReq(t, "POST", "https://example.com/api", `{"query":"{products{...}}"}`))
		b := resolve(spec, newReq(t, "POST", "https://example.com/api", `{"query":"{orders{...}}"}`))
		assert.NotEqual(t, a, b)
	})

	t.Run("non-JSON body hashes raw bytes", func(t *testing.T) {
		spec := BodyHash("query")
		a := resolve(spec, newReq(t, "POST", "https://example.com/api", "plain text body"))
		b := resolve(BodyHash(), newReq(t, "POST", "https://example.com/api", "plain text body"))
		assert.Len(t, a, 6)
		assert.Equal(t, a, b)
	})
}

func TestQueryHash(t *testing.T) {
	assert.Nil(t, resolve(QueryHash(), newReq(t, "GET", "https://example.com/api", "")))

	a := resolve(QueryHash(), newReq(t, "GET", "https://example.com/api?page=2&limit=10", ""))
	b := resolve(QueryHash(), newReq(t, "GET", "https://example.com/api?limit=10&page=2", ""))
	c := resolve(QueryHash(), newReq(t, "GET", "https://example.com/api?page=1&limit=10", ""))
	assert.Len(t, a, 6)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	spec := QueryHash("page", "limit")
	d := resolve(spec, newReq(t, "GET", "https://example.com/api?page=2&limit=10&timestamp=123", ""))
	e := resolve(spec, newReq(t, "GET", "https://example.com/api?page=2&limit=10&timestamp=456", ""))
	assert.Equal(t, d, e)
}

func TestCustom(t *testing.T) {
	r := newReq(t, "GET", "https://example.com/api/orders", "")

	spec := Custom("shop", func(r *Request) []string {
		return []string{"", "orders", "", "v2"}
	})
	assert.Equal(t, "orders_v2", resolve(spec, r))

	none := Custom("none", func(*Request) []string { return []string{"", ""} })
	assert.Nil(t, resolve(none, r))
}

func TestFromHTTP_RestoresBody(t *testing.T) {
	ctx := WithAttributes(context.Background(), map[string]any{"tenant": "t1"})
	ctx = WithName(ctx, "products")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://example.com/api",
		io.NopCloser(strings.NewReader(`{"a":1}`)))
	require.NoError(t, err)

	snap, err := FromHTTP(req)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(snap.Body))
	assert.Equal(t, "t1", snap.Attributes["tenant"])

	name, ok := snap.OverrideName()
	assert.True(t, ok)
	assert.Equal(t, "products", name)

	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(rest))

	again, err := FromHTTP(req)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again.Body))
}

func TestFromHTTP_GetBodyUntouched(t *testing.T) {
	req, err := http.NewRequest(http.MethodPut, "https://example.com/x", bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	snap, err := FromHTTP(req)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(snap.Body))

	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(rest))
}

func TestFromHTTP_NoBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.com/x", nil)
	require.NoError(t, err)

	snap, err := FromHTTP(req)
	require.NoError(t, err)
	assert.Nil(t, snap.Body)
	assert.Nil(t, snap.Attributes)
}
