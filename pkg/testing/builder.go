package testing

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getmockd/intercept/pkg/config"
	"github.com/getmockd/intercept/pkg/engine"
)

// MockBuilder builds a route fixture using a fluent API.
type MockBuilder struct {
	server *Interceptor
	route  config.Route
	policy engine.Policy
	err    error // First error encountered during building
}

func newMockBuilder(m *Interceptor, method, url string) *MockBuilder {
	return &MockBuilder{
		server: m,
		route:  config.Route{Method: method, URL: url, Status: http.StatusOK},
	}
}

// setError records the first error encountered during building.
// Subsequent errors are ignored (first error wins pattern).
func (b *MockBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *MockBuilder) Err() error {
	return b.err
}

// WithStatus sets the HTTP response status code.
// Default is 200 (OK).
func (b *MockBuilder) WithStatus(status int) *MockBuilder {
	b.route.Status = status
	return b
}

// WithBody sets the response body.
// Values other than strings and byte slices are sent as JSON.
func (b *MockBuilder) WithBody(body any) *MockBuilder {
	switch v := body.(type) {
	case string:
		b.route.Body, b.route.JSON = v, nil
	case []byte:
		b.route.Body, b.route.JSON = string(v), nil
	default:
		return b.WithJSON(v)
	}
	return b
}

// WithJSON sets the response body as JSON.
// Content-Type defaults to application/json.
func (b *MockBuilder) WithJSON(body any) *MockBuilder {
	b.route.Body, b.route.JSON = "", body
	return b
}

// WithHeader adds a response header.
func (b *MockBuilder) WithHeader(key, value string) *MockBuilder {
	if b.route.Headers == nil {
		b.route.Headers = make(map[string]string)
	}
	b.route.Headers[key] = value
	return b
}

// WithHeaders sets multiple response headers at once.
func (b *MockBuilder) WithHeaders(headers map[string]string) *MockBuilder {
	for k, v := range headers {
		b.WithHeader(k, v)
	}
	return b
}

// WithDelay delays the response.
// Accepts duration strings like "100ms", "1s", "500ms".
func (b *MockBuilder) WithDelay(delay string) *MockBuilder {
	d, err := time.ParseDuration(delay)
	if err != nil {
		b.setError(fmt.Errorf("WithDelay: invalid duration %q: %w", delay, err))
		return b
	}
	b.route.Delay, b.route.Manual = d, false
	return b
}

// Manual holds responses until they are resolved through the engine or
// ResolveAll.
func (b *MockBuilder) Manual() *MockBuilder {
	b.route.Manual, b.route.Delay = true, 0
	return b
}

// WithPolicy sets a custom timing policy. It replaces WithDelay and Manual.
func (b *MockBuilder) WithPolicy(p engine.Policy) *MockBuilder {
	b.policy = p
	return b
}

// Reply registers the route and returns its handler. Building errors fail
// the test.
func (b *MockBuilder) Reply() *engine.Handler {
	m := b.server
	m.t.Helper()

	if b.err != nil {
		m.t.Fatalf("mock %s: %v", b.route.String(), b.err)
	}
	cfg := config.Config{Routes: []config.Route{b.route}}
	if err := cfg.Validate(); err != nil {
		m.t.Fatalf("mock %s: %v", b.route.String(), err)
	}
	fn, err := b.route.Handler()
	if err != nil {
		m.t.Fatalf("mock %s: %v", b.route.String(), err)
	}

	policy := b.policy
	if policy == nil {
		policy = b.route.Policy()
	}
	return m.Handle(b.route.Method, b.route.URL, fn, policy)
}

// RespondWith is a shorthand for setting status and body together.
func (b *MockBuilder) RespondWith(status int, body any) *MockBuilder {
	return b.WithStatus(status).WithBody(body)
}

// RespondJSON is a shorthand for JSON response with status 200.
func (b *MockBuilder) RespondJSON(body any) *MockBuilder {
	return b.WithStatus(http.StatusOK).WithJSON(body)
}

// RespondNotFound configures a 404 Not Found response.
func (b *MockBuilder) RespondNotFound() *MockBuilder {
	return b.WithStatus(http.StatusNotFound).WithJSON(map[string]string{
		"error": "not_found",
	})
}

// RespondServerError configures a 500 Internal Server Error response.
func (b *MockBuilder) RespondServerError(message string) *MockBuilder {
	return b.WithStatus(http.StatusInternalServerError).WithJSON(map[string]string{
		"error": message,
	})
}

// RespondNoContent configures a 204 No Content response.
func (b *MockBuilder) RespondNoContent() *MockBuilder {
	return b.WithStatus(http.StatusNoContent)
}
