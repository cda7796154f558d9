package engine

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
)

// ServeConfig configures HTTPHandler.
type ServeConfig struct {
	// Origin is the scheme and host inbound requests are routed as if they
	// had been sent to, e.g. "http://api.example.com". Empty routes by the
	// request's own Host header.
	Origin string

	// Passthrough serves requests the engine does not intercept. Nil
	// answers them with 502 Bad Gateway.
	Passthrough http.Handler
}

// HTTPHandler exposes the engine to inbound HTTP requests. Engine errors
// map to status codes: unhandled routes to 404, shutdown to 503 and handler
// failures to 500.
func (e *Engine) HTTPHandler(cfg ServeConfig) (http.Handler, error) {
	var origin *url.URL
	if cfg.Origin != "" {
		u, err := url.Parse(cfg.Origin)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("origin must be an absolute URL")
		}
		origin = u
	}
	return &serveHandler{engine: e, origin: origin, passthrough: cfg.Passthrough}, nil
}

type serveHandler struct {
	engine      *Engine
	origin      *url.URL
	passthrough http.Handler
}

func (h *serveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := *r.URL
	if h.origin != nil {
		target.Scheme = h.origin.Scheme
		target.Host = h.origin.Host
	} else {
		target.Scheme = "http"
		if r.TLS != nil {
			target.Scheme = "https"
		}
		target.Host = r.Host
	}

	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		body = data
	}

	req, err := h.engine.NewRequest(r.Context(), r.Method, target.String(), r.Header.Clone(), body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pass, err := h.engine.Dispatch(req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if pass {
		if h.passthrough == nil {
			http.Error(w, "passthrough is not configured", http.StatusBadGateway)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		h.passthrough.ServeHTTP(w, r)
		return
	}

	resp, err := req.Wait()
	if err != nil {
		if req.Aborted() {
			return
		}
		writeEngineError(w, err)
		return
	}

	data, _ := resp.Bytes()
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnhandled):
		status = http.StatusNotFound
	case errors.Is(err, ErrShutdown), errors.Is(err, ErrCompletedAfterShutdown):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}
