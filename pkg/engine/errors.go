package engine

import "errors"

// Sentinel errors. Returned errors wrap these with the verb and URL of the
// request or route involved; test with errors.Is.
var (
	// ErrMissingHandler is returned when a route is registered without a handler.
	ErrMissingHandler = errors.New("handler is nil")

	// ErrUnsupportedVerb is returned for verbs that have no route registry.
	ErrUnsupportedVerb = errors.New("unsupported HTTP verb")

	// ErrInvalidResponse is returned when a handler's result is not a
	// status, headers and body triple.
	ErrInvalidResponse = errors.New("invalid handler response")

	// ErrUnhandled is returned by the default UnhandledRequest hook.
	ErrUnhandled = errors.New("no handler defined for request")

	// ErrHandlerFailed wraps errors and panics raised by route handlers.
	ErrHandlerFailed = errors.New("handler failed")

	// ErrShutdown is returned when a request is sent through a shut down engine.
	ErrShutdown = errors.New("engine is shut down")

	// ErrCompletedAfterShutdown is reported when a pending request resolves
	// after its engine was shut down.
	ErrCompletedAfterShutdown = errors.New("request completed after engine shutdown")

	// ErrNoResponse is the request error when handling ended without a response.
	ErrNoResponse = errors.New("request finished without a response")

	// ErrAborted is the request error after Abort.
	ErrAborted = errors.New("request aborted")
)
