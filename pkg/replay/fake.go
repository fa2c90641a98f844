package replay

import (
	"fmt"
	"net/http"
	"path"

	"github.com/getmockd/httpreplay/pkg/httputil"
	"github.com/getmockd/httpreplay/pkg/recording"
	"github.com/getmockd/httpreplay/pkg/store"
)

// Responder builds a fake response. Returning nil lets the request go to the network.
type Responder func(req *http.Request) *http.Response

// Status responds with an empty body.
func Status(code int) Responder {
	return func(req *http.Request) *http.Response {
		return httputil.NewResponse(req, code, nil, nil)
	}
}

// String responds with a plain text body.
func String(status int, body string) Responder {
	return func(req *http.Request) *http.Response {
		header := http.Header{}
		header.Set("Content-Type", "text/plain; charset=utf-8")
		return httputil.NewResponse(req, status, header, []byte(body))
	}
}

// JSON responds with v encoded as JSON. It panics if v cannot be encoded.
func JSON(status int, v any) Responder {
	if _, err := httputil.NewJSONResponse(nil, status, v); err != nil {
		panic(fmt.Sprintf("replay.JSON: %v", err))
	}
	return func(req *http.Request) *http.Response {
		resp, err := httputil.NewJSONResponse(req, status, v)
		if err != nil {
			return nil
		}
		return resp
	}
}

// FromRecord responds with a stored record, every time.
func FromRecord(rec *recording.Record) Responder {
	return func(req *http.Request) *http.Response {
		resp, err := rec.ToResponse(req)
		if err != nil {
			return nil
		}
		return resp
	}
}

// LoadShared loads a single record from a shared bucket, such as
// "shopify/GET_shop_json.json", for use with WithFake.
func LoadShared(s store.Store, layout store.Layout, name string) (Responder, error) {
	bucket, fname := path.Split(path.Clean("/" + name))
	dir := layout.SharedRoot()
	if bucket != "/" {
		dir = layout.Shared(bucket)
	}

	entries, err := s.Load(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Name == fname {
			return FromRecord(e.Record), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoRecord, name)
}
