package engine

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// HandlerFunc answers an intercepted request.
type HandlerFunc func(req *Request) (Result, error)

// Handler is a registered HandlerFunc plus the metadata the engine keeps
// for it.
type Handler struct {
	// Method and Pattern describe the route the handler was registered for.
	Method  string
	Pattern string
	HostKey string

	fn HandlerFunc

	mu     sync.Mutex
	calls  int
	policy Policy
}

// Calls returns how many requests were dispatched to the handler.
func (h *Handler) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// Policy returns the handler's timing policy. Nil means Sync.
func (h *Handler) Policy() Policy {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.policy
}

// SetPolicy replaces the handler's timing policy. It applies to requests
// dispatched afterwards.
func (h *Handler) SetPolicy(p Policy) {
	h.mu.Lock()
	h.policy = p
	h.mu.Unlock()
}

func (h *Handler) countCall() {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
}

// invoke runs the handler, converting a panic into an error.
func (h *Handler) invoke(req *Request) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
	}()
	return h.fn(req)
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return fmt.Errorf("panic: %w\n%s", err, debug.Stack())
	}
	return fmt.Errorf("panic: %v\n%s", p, debug.Stack())
}

type targetKind int

const (
	targetIntercept targetKind = iota
	targetPassthrough
)

// target is what a route entry points at: a handler, or passthrough.
type target struct {
	kind    targetKind
	handler *Handler
}

func intercept(h *Handler) target {
	return target{kind: targetIntercept, handler: h}
}

var passthroughTarget = target{kind: targetPassthrough}

// Route describes one registered route.
type Route struct {
	Method      string
	HostKey     string
	Pattern     string
	Passthrough bool

	// Handler is nil for passthrough routes.
	Handler *Handler
}
