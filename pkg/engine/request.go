package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/intercept/pkg/registry"
)

type requestState int

const (
	statePending requestState = iota
	stateResponded
	stateFailed
	stateAborted
)

// Request is an intercepted request as seen by handlers and hooks.
//
// Params and QueryParams are filled in by the engine once the request
// matched a route.
type Request struct {
	// ID uniquely identifies the request.
	ID string

	// Method is the uppercased HTTP verb.
	Method string

	// URL is the absolute request URL.
	URL *url.URL

	// HostKey is the normalized "host[:port]" the request was routed by.
	HostKey string

	// Path is the escaped request path.
	Path string

	// RawQuery is the query string without the leading "?".
	RawQuery string

	// FullPath is Path plus "?RawQuery" when a query is present.
	FullPath string

	Header http.Header
	Body   []byte

	// Params holds the decoded dynamic segments of the matched route.
	Params map[string]string

	// QueryParams holds the decoded query string of a matched request.
	QueryParams url.Values

	ctx        context.Context
	loc        *registry.Location
	receivedAt time.Time

	mu          sync.Mutex
	state       requestState
	response    *Response
	err         error
	progress    Progress
	done        chan struct{}
	stopWatcher func() bool
}

// NewRequest builds a request for the engine. Relative URLs are resolved
// against the engine's base URL. A nil ctx means context.Background.
func (e *Engine) NewRequest(ctx context.Context, method, rawURL string, header http.Header, body []byte) (*Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	loc, err := e.hosts.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if base := e.hosts.Base(); base != nil && u.Host == "" {
		u = base.ResolveReference(u)
	}
	if header == nil {
		header = make(http.Header)
	}

	return &Request{
		ID:         uuid.NewString(),
		Method:     strings.ToUpper(method),
		URL:        u,
		HostKey:    loc.HostKey,
		Path:       loc.Path,
		RawQuery:   loc.RawQuery,
		FullPath:   loc.FullPath,
		Header:     header,
		Body:       body,
		ctx:        ctx,
		loc:        loc,
		receivedAt: e.clock.Now(),
		done:       make(chan struct{}),
	}, nil
}

// NewRequestFromHTTP builds a request from an outgoing *http.Request,
// buffering its body. The original body is replaced with a replayable copy
// so the request can still be forwarded.
func (e *Engine) NewRequestFromHTTP(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		body = data
		r.Body = io.NopCloser(bytes.NewReader(data))
	}
	return e.NewRequest(r.Context(), r.Method, r.URL.String(), r.Header.Clone(), body)
}

// Context returns the request context. Cancelling it aborts the request.
func (r *Request) Context() context.Context {
	return r.ctx
}

// Done is closed once the request has been responded to, failed or aborted.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request is finished and returns its response or
// the error it failed with.
func (r *Request) Wait() (*Response, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response, r.err
}

// Response returns the delivered response, or nil.
func (r *Request) Response() *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response
}

// Status returns the delivered status code, or 0 while no response was
// delivered.
func (r *Request) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.response == nil {
		return 0
	}
	return r.response.Status
}

// Err returns the error the request failed with, if any.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Aborted reports whether the request was aborted before it was resolved.
func (r *Request) Aborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateAborted
}

// Completed reports whether the request is no longer pending.
func (r *Request) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != statePending
}

// Progress returns the last progress notification.
func (r *Request) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *Request) setProgress(p Progress) {
	r.mu.Lock()
	r.progress = p
	r.mu.Unlock()
}

// finish moves a pending request to its terminal state. Only the first
// call has any effect.
func (r *Request) finish(state requestState, resp *Response, err error) bool {
	r.mu.Lock()
	if r.state != statePending {
		r.mu.Unlock()
		return false
	}
	r.state = state
	r.response = resp
	r.err = err
	stop := r.stopWatcher
	r.stopWatcher = nil
	r.mu.Unlock()

	if stop != nil {
		stop()
	}
	close(r.done)
	return true
}

func (r *Request) respond(resp *Response) bool {
	return r.finish(stateResponded, resp, nil)
}

func (r *Request) fail(err error) bool {
	return r.finish(stateFailed, nil, err)
}

func (r *Request) abort(cause error) bool {
	return r.finish(stateAborted, nil, cause)
}

// watch aborts the request through e when its context ends first.
func (r *Request) watch(e *Engine) {
	if r.ctx.Done() == nil {
		return
	}
	stop := context.AfterFunc(r.ctx, func() {
		e.abort(r, context.Cause(r.ctx))
	})
	r.mu.Lock()
	if r.state != statePending {
		r.mu.Unlock()
		stop()
		return
	}
	r.stopWatcher = stop
	r.mu.Unlock()
}
