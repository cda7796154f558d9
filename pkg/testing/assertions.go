package testing

import (
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/intercept/pkg/engine"
)

// RequestLog is a handled request captured for assertions.
type RequestLog struct {
	// Method is the HTTP method (GET, POST, etc.)
	Method string
	// URL is the absolute request URL
	URL string
	// Path is the request URL path
	Path string
	// Headers are the request headers
	Headers http.Header
	// Body is the request body content
	Body string
	// Params are the dynamic segments of the matched route
	Params map[string]string
	// QueryParams are the decoded query parameters
	QueryParams url.Values
	// Status is the delivered status, or 0 while the response is pending
	Status int
}

func newRequestLog(req *engine.Request) RequestLog {
	return RequestLog{
		Method:      req.Method,
		URL:         req.URL.String(),
		Path:        req.Path,
		Headers:     req.Header,
		Body:        string(req.Body),
		Params:      req.Params,
		QueryParams: req.QueryParams,
		Status:      req.Status(),
	}
}

// AssertCalled asserts that a route was called at least once.
func (m *Interceptor) AssertCalled(t testing.TB, method, url string) {
	t.Helper()

	if count := m.countCalls(method, url); count == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, url)
	}
}

// AssertCalledTimes asserts that a route was called exactly n times.
func (m *Interceptor) AssertCalledTimes(t testing.TB, method, url string, times int) {
	t.Helper()

	if count := m.countCalls(method, url); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, url, times, count)
	}
}

// AssertNotCalled asserts that a route was not called.
func (m *Interceptor) AssertNotCalled(t testing.TB, method, url string) {
	t.Helper()

	if count := m.countCalls(method, url); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, url, count)
	}
}

// AssertNoPending asserts that no response is waiting for delivery.
func (m *Interceptor) AssertNoPending(t testing.TB) {
	t.Helper()

	if n := m.engine.PendingRequests(); n > 0 {
		t.Errorf("expected no pending responses, but %d are pending", n)
	}
}

// AssertNoUnhandled asserts that every request matched a route.
func (m *Interceptor) AssertNoUnhandled(t testing.TB) {
	t.Helper()

	count := m.engine.UnhandledCount()
	if count == 0 {
		return
	}
	unhandled := m.engine.UnhandledRequests()
	if len(unhandled) == 0 {
		t.Errorf("expected no unhandled requests, got %d (request tracking is off)", count)
		return
	}
	lines := make([]string, len(unhandled))
	for i, req := range unhandled {
		lines[i] = "  " + req.Method + " " + req.URL.String()
	}
	t.Errorf("expected no unhandled requests, got %d:\n%s", len(unhandled), strings.Join(lines, "\n"))
}

// countCalls returns the call count of the route registered for method and
// url. For routes registered elsewhere it counts handled requests whose
// URL, full path or path equals url.
func (m *Interceptor) countCalls(method, url string) int {
	if h, ok := m.handler(method, url); ok {
		return h.Calls()
	}

	count := 0
	for _, req := range m.engine.HandledRequests() {
		if !strings.EqualFold(req.Method, method) {
			continue
		}
		if req.URL.String() == url || req.FullPath == url || req.Path == url {
			count++
		}
	}
	return count
}

// AssertJSONBody asserts that the request body matches the expected JSON.
// The expected value can be a string, []byte, or any value that will be JSON encoded.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var raw []byte
	switch v := expected.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := oj.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		raw = data
	}

	expectedJSON, err := oj.Parse(raw)
	if err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	actualJSON, err := oj.ParseString(r.Body)
	if err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			oj.JSON(expectedJSON, 2), oj.JSON(actualJSON, 2))
	}
}

// AssertBody asserts that the request body exactly matches the expected string.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts that the request body contains the expected substring.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()

	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertHeader asserts that the request had the specified header with the expected value.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	values := r.Headers.Values(key)
	if len(values) == 0 {
		t.Errorf("request does not have header %q", key)
		return
	}
	if values[0] != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, values[0])
	}
}

// AssertQueryParam asserts that the request had the specified query parameter.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	if !r.QueryParams.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := r.QueryParams.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertParam asserts the value of a dynamic route segment.
func (r *RequestLog) AssertParam(t testing.TB, name, expected string) {
	t.Helper()

	actual, ok := r.Params[name]
	if !ok {
		t.Errorf("route has no parameter %q", name)
		return
	}
	if actual != expected {
		t.Errorf("parameter %q value mismatch\nexpected: %q\nactual: %q", name, expected, actual)
	}
}

// AssertMethod asserts that the request used the expected HTTP method.
func (r *RequestLog) AssertMethod(t testing.TB, expected string) {
	t.Helper()

	if !strings.EqualFold(r.Method, expected) {
		t.Errorf("request method mismatch\nexpected: %q\nactual: %q", expected, r.Method)
	}
}

// AssertPath asserts that the request path matches.
func (r *RequestLog) AssertPath(t testing.TB, expected string) {
	t.Helper()

	if r.Path != expected {
		t.Errorf("request path mismatch\nexpected: %q\nactual: %q", expected, r.Path)
	}
}

// JSONField extracts a field from the request body JSON.
// Nested fields use dot notation. Returns nil if the body is not valid JSON
// or the field doesn't exist.
func (r *RequestLog) JSONField(field string) any {
	current, err := oj.ParseString(r.Body)
	if err != nil {
		return nil
	}

	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[part]
	}
	return current
}
