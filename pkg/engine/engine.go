package engine

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/intercept/pkg/clock"
	"github.com/getmockd/intercept/pkg/logging"
	"github.com/getmockd/intercept/pkg/registry"
)

// RouteMap registers a group of routes.
type RouteMap func(e *Engine) error

// Engine intercepts requests and resolves them against its routes.
type Engine struct {
	mu sync.Mutex

	hosts    *registry.Hosts[target]
	handlers []*Handler

	track       bool
	handled     []*Request
	passthrough []*Request
	unhandled   []*Request

	// unhandledCount counts unhandled requests even when tracking is off.
	unhandledCount int

	pending map[*Request]*pendingEntry

	running          bool
	forcePassthrough bool
	disableUnhandled bool
	progressInterval time.Duration

	clock       clock.Clock
	hooks       Hooks
	log         *slog.Logger
	recorder    Recorder
	interceptor Interceptor
	native      http.RoundTripper
	transport   *Transport
}

// New creates a running engine. When an Interceptor is configured the
// engine transport is installed before New returns.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	o.hooks = defaultHooks()
	for _, opt := range opts {
		opt(&o)
	}

	hosts, err := registry.NewHosts[target](o.baseURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		hosts:            hosts,
		track:            o.trackRequests,
		pending:          make(map[*Request]*pendingEntry),
		forcePassthrough: o.forcePassthrough,
		disableUnhandled: o.disableUnhandled,
		progressInterval: o.progressInterval,
		clock:            o.clock,
		hooks:            o.hooks,
		log:              o.logger,
		recorder:         o.recorder,
		interceptor:      o.interceptor,
		native:           o.native,
	}
	if e.log == nil {
		e.log = logging.Nop()
	}
	if e.recorder == nil {
		e.recorder = nopRecorder{}
	}
	e.transport = &Transport{engine: e}

	if e.interceptor != nil {
		native, err := e.interceptor.Install(e.transport)
		if err != nil {
			return nil, fmt.Errorf("installing interceptor: %w", err)
		}
		if other, ok := native.(*Transport); ok && other.engine != e {
			e.log.Warn("another engine is already intercepting requests; " +
				"running two engines at once leads to unexpected results, shut down engines you no longer need")
		}
		if e.native == nil {
			e.native = native
		}
	}
	if e.native == nil {
		e.native = defaultNative()
	}

	e.running = true

	if err := e.Map(o.routes...); err != nil {
		_ = e.Shutdown()
		return nil, err
	}

	e.log.Debug("engine started", "baseURL", o.baseURL,
		"forcePassthrough", e.forcePassthrough, "disableUnhandled", e.disableUnhandled)
	return e, nil
}

// Map applies route maps in order, stopping at the first error.
func (e *Engine) Map(maps ...RouteMap) error {
	for _, m := range maps {
		if m == nil {
			continue
		}
		if err := m(e); err != nil {
			return err
		}
	}
	return nil
}

// Register binds verb and url to fn. The url may be relative to the base
// URL and its path may contain ":name" or "{name}" segments and a trailing
// "*name" wildcard. A nil policy delivers synchronously.
func (e *Engine) Register(verb, url string, fn HandlerFunc, policy Policy) (*Handler, error) {
	verb = strings.ToUpper(verb)
	if fn == nil {
		return nil, fmt.Errorf("%w: the function you tried passing to handle %s %s is undefined or missing",
			ErrMissingHandler, verb, url)
	}
	if !registry.IsVerb(verb) {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedVerb, verb, url)
	}

	h := &Handler{Method: verb, Pattern: url, fn: fn, policy: policy}

	e.mu.Lock()
	defer e.mu.Unlock()

	vs, loc, err := e.hosts.ForURL(url)
	if err != nil {
		return nil, err
	}
	if _, err := vs.For(verb).Add(loc.PatternPath, intercept(h)); err != nil {
		return nil, fmt.Errorf("registering %s %s: %w", verb, url, err)
	}
	h.HostKey = loc.HostKey
	e.handlers = append(e.handlers, h)

	e.log.Debug("route registered", "method", verb, "host", loc.HostKey, "pattern", loc.PatternPath)
	return h, nil
}

// Passthrough marks verb and url as not intercepted: matching requests are
// forwarded to the native transport.
func (e *Engine) Passthrough(verb, url string) error {
	verb = strings.ToUpper(verb)
	if !registry.IsVerb(verb) {
		return fmt.Errorf("%w: %s %s", ErrUnsupportedVerb, verb, url)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vs, loc, err := e.hosts.ForURL(url)
	if err != nil {
		return err
	}
	if _, err := vs.For(verb).Add(loc.PatternPath, passthroughTarget); err != nil {
		return fmt.Errorf("registering passthrough %s %s: %w", verb, url, err)
	}

	e.log.Debug("passthrough registered", "method", verb, "host", loc.HostKey, "pattern", loc.PatternPath)
	return nil
}

// Get registers a GET route.
func (e *Engine) Get(url string, fn HandlerFunc, policy Policy) (*Handler, error) {
	return e.Register(registry.MethodGet, url, fn, policy)
}

// Post registers a POST route.
func (e *Engine) Post(url string, fn HandlerFunc, policy Policy) (*Handler, error) {
	return e.Register(registry.MethodPost, url, fn, policy)
}

// Put registers a PUT route.
func (e *Engine) Put(url string, fn HandlerFunc, policy Policy) (*Handler, error) {
	return e.Register(registry.MethodPut, url, fn, policy)
}

// Delete registers a DELETE route.
func (e *Engine) Delete(url string, fn HandlerFunc, policy Policy) (*Handler, error) {
	return e.Register(registry.MethodDelete, url, fn, policy)
}

// Patch registers a PATCH route.
func (e *Engine) Patch(url string, fn HandlerFunc, policy Policy) (*Handler, error) {
	return e.Register(registry.MethodPatch, url, fn, policy)
}

// Head registers a HEAD route.
func (e *Engine) Head(url string, fn HandlerFunc, policy Policy) (*Handler, error) {
	return e.Register(registry.MethodHead, url, fn, policy)
}

// Options registers an OPTIONS route.
func (e *Engine) Options(url string, fn HandlerFunc, policy Policy) (*Handler, error) {
	return e.Register(registry.MethodOptions, url, fn, policy)
}

// Routes lists every route, grouped by host key and verb, in registration
// order.
func (e *Engine) Routes() []Route {
	e.mu.Lock()
	defer e.mu.Unlock()

	var routes []Route
	for _, key := range e.hosts.Keys() {
		vs, _ := e.hosts.Lookup(key)
		for _, verb := range registry.Verbs {
			for _, entry := range vs.For(verb).Entries() {
				r := Route{
					Method:      verb,
					HostKey:     key,
					Pattern:     entry.Pattern.String(),
					Passthrough: entry.Target.kind == targetPassthrough,
					Handler:     entry.Target.handler,
				}
				routes = append(routes, r)
			}
		}
	}
	return routes
}

// RouteMatch is a route matched by Lookup.
type RouteMatch struct {
	Route       Route
	Params      map[string]string
	QueryParams url.Values
}

// Lookup matches verb and url against the routes the way dispatch would,
// without counting, tracking or creating anything. It reports false when
// no route matches.
func (e *Engine) Lookup(verb, rawURL string) (*RouteMatch, bool, error) {
	loc, err := e.hosts.Parse(rawURL)
	if err != nil {
		return nil, false, err
	}
	verb = strings.ToUpper(verb)

	e.mu.Lock()
	m, ok := e.hosts.Recognize(verb, loc)
	e.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	return &RouteMatch{
		Route: Route{
			Method:      verb,
			HostKey:     loc.HostKey,
			Pattern:     m.Entry.Pattern.String(),
			Passthrough: m.Entry.Target.kind == targetPassthrough,
			Handler:     m.Entry.Target.handler,
		},
		Params:      m.Params,
		QueryParams: m.QueryParams,
	}, true, nil
}

// Handlers returns every registered handler in registration order.
func (e *Engine) Handlers() []*Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Handler(nil), e.handlers...)
}

// HandledRequests returns the requests dispatched to a handler.
func (e *Engine) HandledRequests() []*Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Request(nil), e.handled...)
}

// PassthroughRequests returns the requests forwarded to the native transport.
func (e *Engine) PassthroughRequests() []*Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Request(nil), e.passthrough...)
}

// UnhandledRequests returns the requests that matched no route.
func (e *Engine) UnhandledRequests() []*Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Request(nil), e.unhandled...)
}

// UnhandledCount returns how many requests matched no route. Unlike
// UnhandledRequests it counts with tracking turned off.
func (e *Engine) UnhandledCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unhandledCount
}

// SetForcePassthrough toggles forwarding of every request.
func (e *Engine) SetForcePassthrough(force bool) {
	e.mu.Lock()
	e.forcePassthrough = force
	e.mu.Unlock()
}

// SetDisableUnhandled toggles silently dropping unmatched requests.
func (e *Engine) SetDisableUnhandled(disable bool) {
	e.mu.Lock()
	e.disableUnhandled = disable
	e.mu.Unlock()
}

// Running reports whether the engine has not been shut down.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Transport returns the engine's http.RoundTripper.
func (e *Engine) Transport() *Transport {
	return e.transport
}

// Client returns an *http.Client whose requests go through the engine.
func (e *Engine) Client() *http.Client {
	return &http.Client{Transport: e.transport}
}

// Native returns the transport passthrough requests are forwarded to.
func (e *Engine) Native() http.RoundTripper {
	return e.native
}

// Shutdown stops interception. Requests still pending fail with
// ErrCompletedAfterShutdown when they resolve. Calling Shutdown again is a
// no-op.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	pending := len(e.pending)
	e.mu.Unlock()

	if pending > 0 {
		e.log.Warn("engine shut down with pending requests", "pending", pending)
	}
	if e.interceptor != nil {
		if err := e.interceptor.Uninstall(); err != nil {
			return fmt.Errorf("uninstalling interceptor: %w", err)
		}
	}
	e.log.Debug("engine shut down")
	return nil
}

// trackLocked appends req to list when tracking is on. Must be called with
// e.mu held.
func (e *Engine) trackLocked(list *[]*Request, req *Request) {
	if e.track {
		*list = append(*list, req)
	}
}
