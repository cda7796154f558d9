package engine

import "fmt"

// Hooks are the overridable extension points of the dispatch pipeline.
// Nil fields keep their default behaviour.
type Hooks struct {
	// PrepareHeaders transforms handler headers before delivery.
	// Default: identity.
	PrepareHeaders func(headers map[string]string) map[string]string

	// PrepareBody transforms the handler body before delivery. The result
	// must be a string, a []byte or nil. Default: identity.
	PrepareBody func(body any, headers map[string]string) any

	// HandledRequest observes every delivered response. Default: no-op.
	HandledRequest func(verb, path string, req *Request)

	// PassthroughRequest observes every request forwarded to the native
	// transport. Default: no-op.
	PassthroughRequest func(verb, path string, req *Request)

	// UnhandledRequest is called when no route matches. A non-nil error
	// fails the request. Default: an ErrUnhandled error naming verb and path.
	UnhandledRequest func(verb, path string, req *Request) error

	// ErroredRequest is called when a handler returns an error or panics.
	// A non-nil error fails the request. Default: cause wrapped with
	// ErrHandlerFailed, naming verb and path.
	ErroredRequest func(verb, path string, req *Request, cause error) error

	// Progress receives synthetic upload progress for delayed requests.
	// Default: no-op.
	Progress func(req *Request, p Progress)
}

// DefaultUnhandledRequest is the default UnhandledRequest hook.
func DefaultUnhandledRequest(verb, path string, _ *Request) error {
	return fmt.Errorf("%w: intercepted %s %s but no handler was defined for this type of request",
		ErrUnhandled, verb, path)
}

// DefaultErroredRequest is the default ErroredRequest hook.
func DefaultErroredRequest(verb, path string, _ *Request, cause error) error {
	return fmt.Errorf("%w: intercepted %s %s but encountered an error: %w",
		ErrHandlerFailed, verb, path, cause)
}

func defaultHooks() Hooks {
	return Hooks{
		PrepareHeaders:     func(h map[string]string) map[string]string { return h },
		PrepareBody:        func(b any, _ map[string]string) any { return b },
		HandledRequest:     func(string, string, *Request) {},
		PassthroughRequest: func(string, string, *Request) {},
		UnhandledRequest:   DefaultUnhandledRequest,
		ErroredRequest:     DefaultErroredRequest,
		Progress:           func(*Request, Progress) {},
	}
}

// merge returns h with every nil field taken from base.
func (h Hooks) merge(base Hooks) Hooks {
	if h.PrepareHeaders == nil {
		h.PrepareHeaders = base.PrepareHeaders
	}
	if h.PrepareBody == nil {
		h.PrepareBody = base.PrepareBody
	}
	if h.HandledRequest == nil {
		h.HandledRequest = base.HandledRequest
	}
	if h.PassthroughRequest == nil {
		h.PassthroughRequest = base.PassthroughRequest
	}
	if h.UnhandledRequest == nil {
		h.UnhandledRequest = base.UnhandledRequest
	}
	if h.ErroredRequest == nil {
		h.ErroredRequest = base.ErroredRequest
	}
	if h.Progress == nil {
		h.Progress = base.Progress
	}
	return h
}
