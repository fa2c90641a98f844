package replay

import (
	"net/http"
)

// Transport is an http.RoundTripper that routes requests through an Engine.
// The engine works on a clone of each request; the caller's request is only
// read, and its body consumed, as with any transport.
type Transport struct {
	Engine *Engine

	// Base performs real calls. Nil means http.DefaultTransport.
	Base http.RoundTripper
}

var _ http.RoundTripper = (*Transport)(nil)

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	resp, err := t.Engine.Intercept(req)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		return resp, nil
	}

	resp, err = t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if err := t.Engine.Observe(req, resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Client returns an HTTP client whose requests go through the engine.
func (e *Engine) Client() *http.Client {
	return &http.Client{Transport: e.Wrap(nil)}
}

// Wrap returns a transport that sends real calls through base.
func (e *Engine) Wrap(base http.RoundTripper) *Transport {
	return &Transport{Engine: e, Base: base}
}
