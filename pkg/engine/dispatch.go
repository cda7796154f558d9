package engine

import (
	"fmt"
	"maps"
)

// Dispatch runs both dispatch phases for req. It reports passthrough=true
// when the caller must forward the request to the native transport itself.
// Otherwise the outcome is delivered through req (see Request.Wait); err is
// the synchronous failure, if any.
func (e *Engine) Dispatch(req *Request) (passthrough bool, err error) {
	if !e.Running() {
		return false, fmt.Errorf("%w: %s %s was sent after shutdown", ErrShutdown, req.Method, req.URL)
	}
	if e.CheckPassthrough(req) {
		return true, nil
	}
	req.watch(e)
	return false, e.HandleRequest(req)
}

// CheckPassthrough reports whether req must bypass interception, either
// because its route is a passthrough route or because the engine forces
// passthrough. Passthrough requests are tracked and reported to the
// PassthroughRequest hook.
func (e *Engine) CheckPassthrough(req *Request) bool {
	verb, path := req.Method, req.URL.String()

	e.mu.Lock()
	m, ok := e.hosts.Recognize(verb, req.loc)
	pass := (ok && m.Entry.Target.kind == targetPassthrough) || e.forcePassthrough
	if pass {
		e.trackLocked(&e.passthrough, req)
	}
	e.mu.Unlock()

	if !pass {
		return false
	}
	e.log.Debug("passthrough", "method", verb, "url", path, "id", req.ID)
	e.recorder.RequestOutcome(verb, OutcomePassthrough)
	e.hooks.PassthroughRequest(verb, path, req)
	return true
}

// HandleRequest resolves req to a handler and delivers the handler's
// result according to its timing policy. It must only be called after
// CheckPassthrough returned false.
//
// The returned error is the synchronous outcome: an unhandled route, a
// handler error or an invalid immediate response. The same error also
// fails req. Errors in deferred results only fail req.
func (e *Engine) HandleRequest(req *Request) error {
	verb, path := req.Method, req.URL.String()

	e.mu.Lock()
	m, ok := e.hosts.Recognize(verb, req.loc)
	// A passthrough route reached here was bypassed by the caller; there is
	// no handler to run for it.
	if ok && m.Entry.Target.kind != targetIntercept {
		ok = false
	}
	if !ok {
		if e.disableUnhandled {
			e.mu.Unlock()
			e.log.Debug("unhandled request dropped", "method", verb, "url", path, "id", req.ID)
			e.recorder.RequestOutcome(verb, OutcomeDropped)
			return nil
		}
		e.unhandledCount++
		e.trackLocked(&e.unhandled, req)
		e.mu.Unlock()

		e.log.Debug("unhandled request", "method", verb, "url", path, "id", req.ID)
		e.recorder.RequestOutcome(verb, OutcomeUnhandled)
		if err := e.hooks.UnhandledRequest(verb, path, req); err != nil {
			req.fail(err)
			return err
		}
		return nil
	}

	h := m.Entry.Target.handler
	h.countCall()
	req.Params = m.Params
	req.QueryParams = m.QueryParams
	e.trackLocked(&e.handled, req)
	e.mu.Unlock()

	e.log.Debug("handling request", "method", verb, "url", path, "pattern", h.Pattern, "id", req.ID)
	e.recorder.RequestOutcome(verb, OutcomeHandled)

	res, err := h.invoke(req)
	if err != nil {
		return e.errored(verb, path, req, err)
	}

	switch r := res.(type) {
	case immediateResult:
		return e.deliver(verb, path, req, h, r.resp)
	case deferredResult:
		go e.await(verb, path, req, h, r)
		return nil
	case asyncResult:
		go e.run(verb, path, req, h, r)
		return nil
	default:
		return e.invalid(verb, path, req, "the handler returned no result")
	}
}

// await delivers the first value of a deferred result.
func (e *Engine) await(verb, path string, req *Request, h *Handler, r deferredResult) {
	select {
	case resp, ok := <-r.ch:
		if !ok {
			resp = nil
		}
		_ = e.deliver(verb, path, req, h, resp)
	case <-req.Done():
	}
}

// run computes an async result.
func (e *Engine) run(verb, path string, req *Request, h *Handler, r asyncResult) {
	var (
		resp *Response
		err  error
	)
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = panicError(p)
			}
		}()
		resp, err = r.fn()
	}()
	if err != nil {
		_ = e.errored(verb, path, req, err)
		return
	}
	_ = e.deliver(verb, path, req, h, resp)
}

// deliver validates and prepares resp, then hands it to the timing policy
// of h.
func (e *Engine) deliver(verb, path string, req *Request, h *Handler, resp *Response) error {
	if resp == nil {
		return e.invalid(verb, path, req, "the handler settled without a response")
	}
	if !validStatus(resp.Status) {
		return e.invalid(verb, path, req, fmt.Sprintf("status %d is not a valid HTTP status", resp.Status))
	}

	headers := make(map[string]string, len(resp.Headers))
	maps.Copy(headers, resp.Headers)
	headers = e.hooks.PrepareHeaders(headers)
	body := e.hooks.PrepareBody(resp.Body, headers)

	prepared := &Response{Status: resp.Status, Headers: headers, Body: body}
	data, ok := prepared.Bytes()
	if !ok {
		return e.invalid(verb, path, req, fmt.Sprintf("body of type %T is not a string or []byte", body))
	}
	prepared.Body = data

	e.handleResponse(req, h.Policy(), func() {
		e.finalize(verb, path, req, prepared)
	})
	return nil
}

// finalize is the delivery action: it responds to req and reports the
// handled request.
func (e *Engine) finalize(verb, path string, req *Request, resp *Response) {
	if !e.Running() {
		err := fmt.Errorf("%w: %s %s completed after its engine was shut down; "+
			"check whether the engine was shut down earlier than intended", ErrCompletedAfterShutdown, verb, path)
		e.log.Error("request completed after shutdown", "method", verb, "url", path, "id", req.ID)
		req.fail(err)
		return
	}
	if !req.respond(resp) {
		return
	}
	e.recorder.ResponseDelivered(verb, resp.Status, e.clock.Since(req.receivedAt))
	e.hooks.HandledRequest(verb, path, req)
}

// errored reports a failed handler and finishes req without a response.
func (e *Engine) errored(verb, path string, req *Request, cause error) error {
	e.log.Debug("handler failed", "method", verb, "url", path, "id", req.ID, "error", cause)
	e.recorder.RequestOutcome(verb, OutcomeErrored)

	err := e.hooks.ErroredRequest(verb, path, req, cause)
	e.release(req)
	if err != nil {
		req.fail(err)
		return err
	}
	req.fail(fmt.Errorf("%w: %s %s", ErrNoResponse, verb, path))
	return nil
}

func (e *Engine) invalid(verb, path string, req *Request, detail string) error {
	err := invalidResponse(verb, path, detail)
	e.log.Error("invalid handler response", "method", verb, "url", path, "id", req.ID, "error", err)
	e.recorder.RequestOutcome(verb, OutcomeInvalid)
	req.fail(err)
	return err
}
