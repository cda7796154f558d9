package engine

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Transport is the http.RoundTripper that feeds requests into an Engine.
type Transport struct {
	engine *Engine
}

// Engine returns the engine behind the transport.
func (t *Transport) Engine() *Engine {
	return t.engine
}

// RoundTrip dispatches r. Passthrough requests go to the engine's native
// transport; everything else blocks until the engine delivers a response,
// fails the request or r's context ends.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	e := t.engine
	req, err := e.NewRequestFromHTTP(r)
	if err != nil {
		return nil, err
	}

	pass, err := e.Dispatch(req)
	if err != nil {
		return nil, err
	}
	if pass {
		return e.forward(r, req.Body)
	}

	resp, err := req.Wait()
	if err != nil {
		return nil, err
	}
	return toHTTPResponse(r, resp), nil
}

// forward sends r through the native transport with its buffered body.
func (e *Engine) forward(r *http.Request, body []byte) (*http.Response, error) {
	if e.native == nil {
		return nil, fmt.Errorf("passthrough %s %s: no native transport", r.Method, r.URL)
	}
	out := r.Clone(r.Context())
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		out.ContentLength = int64(len(body))
	}
	return e.native.RoundTrip(out)
}

func toHTTPResponse(r *http.Request, resp *Response) *http.Response {
	body, _ := resp.Bytes()

	header := make(http.Header, len(resp.Headers))
	for k, v := range resp.Headers {
		header.Set(k, v)
	}
	if header.Get("Content-Length") == "" {
		header.Set("Content-Length", strconv.Itoa(len(body)))
	}

	out := &http.Response{
		Status:        fmt.Sprintf("%d %s", resp.Status, http.StatusText(resp.Status)),
		StatusCode:    resp.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		ContentLength: int64(len(body)),
		Request:       r,
	}
	if r.Method == http.MethodHead {
		out.Body = http.NoBody
	} else {
		out.Body = io.NopCloser(bytes.NewReader(body))
	}
	return out
}

// defaultNative returns the transport passthrough uses when nothing else
// was configured. It never returns an engine transport.
func defaultNative() http.RoundTripper {
	if t, ok := http.DefaultTransport.(*Transport); ok {
		return t.engine.native
	}
	return http.DefaultTransport
}
