package testing

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/logging"
)

// Interceptor is a test helper around an engine.Engine.
// It provides a fluent API for registering routes and assertions on the
// requests they received.
type Interceptor struct {
	t      testing.TB
	engine *engine.Engine

	mu     sync.Mutex
	routes map[string]*engine.Handler // "METHOD url" -> handler
}

// New creates an engine for the test. Engine logs go to t.Log and the
// engine is shut down when the test completes. opts are applied after the
// defaults and may override them.
func New(t testing.TB, opts ...engine.Option) *Interceptor {
	t.Helper()

	all := append([]engine.Option{engine.WithLogger(logging.ForTest(t, logging.LevelDebug))}, opts...)
	e, err := engine.New(all...)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	t.Cleanup(func() {
		if err := e.Shutdown(); err != nil {
			t.Errorf("shutting down engine: %v", err)
		}
	})

	return &Interceptor{
		t:      t,
		engine: e,
		routes: make(map[string]*engine.Handler),
	}
}

// Engine returns the underlying engine for advanced use cases.
func (m *Interceptor) Engine() *engine.Engine {
	return m.engine
}

// Client returns an http.Client whose requests go through the engine.
func (m *Interceptor) Client() *http.Client {
	return m.engine.Client()
}

// Mock starts a route for method and url. Use the builder's fluent
// methods to configure the response, then call Reply.
//
// Example:
//
//	m.Mock("GET", "/users/:id").
//	    WithStatus(200).
//	    WithJSON(map[string]any{"id": 1}).
//	    Reply()
func (m *Interceptor) Mock(method, url string) *MockBuilder {
	return newMockBuilder(m, method, url)
}

// Handle registers fn for method and url with the given policy, failing
// the test on error.
func (m *Interceptor) Handle(method, url string, fn engine.HandlerFunc, policy engine.Policy) *engine.Handler {
	m.t.Helper()
	h, err := m.engine.Register(method, url, fn, policy)
	if err != nil {
		m.t.Fatalf("registering %s %s: %v", method, url, err)
	}
	m.remember(method, url, h)
	return h
}

// Passthrough marks method and url as not intercepted.
func (m *Interceptor) Passthrough(method, url string) {
	m.t.Helper()
	if err := m.engine.Passthrough(method, url); err != nil {
		m.t.Fatalf("registering passthrough %s %s: %v", method, url, err)
	}
}

// Requests returns the handled requests, oldest first.
func (m *Interceptor) Requests() []RequestLog {
	handled := m.engine.HandledRequests()
	logs := make([]RequestLog, len(handled))
	for i, req := range handled {
		logs[i] = newRequestLog(req)
	}
	return logs
}

// ResolveAll delivers every pending response and returns how many were
// delivered.
func (m *Interceptor) ResolveAll() int {
	n := 0
	for _, req := range m.engine.Pending() {
		if m.engine.Resolve(req) {
			n++
		}
	}
	return n
}

// WaitForPending blocks until n responses are pending, failing the test
// after timeout.
func (m *Interceptor) WaitForPending(n int, timeout time.Duration) {
	m.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := m.engine.WaitForPending(ctx, n); err != nil {
		m.t.Fatal(err)
	}
}

func (m *Interceptor) remember(method, url string, h *engine.Handler) {
	m.mu.Lock()
	m.routes[routeKey(method, url)] = h
	m.mu.Unlock()
}

func (m *Interceptor) handler(method, url string) (*engine.Handler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.routes[routeKey(method, url)]
	return h, ok
}

func routeKey(method, url string) string {
	return strings.ToUpper(method) + " " + url
}
