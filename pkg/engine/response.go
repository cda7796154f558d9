package engine

import "fmt"

// Response is the status, headers and body triple a handler produces.
//
// Body may be a string, a []byte or nil. Any other value must be turned
// into one of those by the PrepareBody hook (see PrepareJSON), otherwise
// delivery fails with ErrInvalidResponse.
type Response struct {
	Status  int
	Headers map[string]string
	Body    any
}

// Bytes returns the body as bytes. It reports false when the body is not a
// string, a []byte or nil.
func (r *Response) Bytes() ([]byte, bool) {
	switch b := r.Body.(type) {
	case nil:
		return nil, true
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	default:
		return nil, false
	}
}

// Result is what a handler returns: either a response that is available
// now, or one that settles later. Build results with Reply, Defer or Async.
type Result interface {
	result()
}

type immediateResult struct {
	resp *Response
}

type deferredResult struct {
	ch <-chan *Response
}

type asyncResult struct {
	fn func() (*Response, error)
}

func (immediateResult) result() {}
func (deferredResult) result() {}
func (asyncResult) result() {}

// Reply returns an immediate result.
func Reply(status int, headers map[string]string, body any) Result {
	return immediateResult{resp: &Response{Status: status, Headers: headers, Body: body}}
}

// Respond returns an immediate result for resp.
func Respond(resp *Response) Result {
	return immediateResult{resp: resp}
}

// Defer returns a result that settles with the first value received from
// ch. Closing ch without sending, or sending nil, is an invalid response.
// If nothing is ever sent the request stays pending until it is aborted.
func Defer(ch <-chan *Response) Result {
	return deferredResult{ch: ch}
}

// Async returns a result computed by fn on its own goroutine. An error or
// panic from fn is handled like an error returned by the handler itself.
func Async(fn func() (*Response, error)) Result {
	return asyncResult{fn: fn}
}

func validStatus(code int) bool {
	// Same range net/http accepts for WriteHeader.
	return code >= 100 && code <= 999
}

func invalidResponse(verb, path, detail string) error {
	return fmt.Errorf("%w for %s %s: %s. Remember to return a status, headers and body from your route handler",
		ErrInvalidResponse, verb, path, detail)
}
