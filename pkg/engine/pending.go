package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/getmockd/intercept/pkg/clock"
)

// pendingEntry is a response waiting for delivery.
type pendingEntry struct {
	finalize func()
	timer    clock.Timer
	progress clock.Timer
}

func (p *pendingEntry) stop() {
	if p.timer != nil {
		p.timer.Stop()
	}
	if p.progress != nil {
		p.progress.Stop()
	}
}

// handleResponse applies the timing policy to a prepared response.
// Sync runs finalize now; Manual waits for Resolve; Delay schedules Resolve
// and progress notifications on the engine clock.
func (e *Engine) handleResponse(req *Request, policy Policy, finalize func()) {
	timing := evaluate(policy)
	if timing.IsSync() {
		finalize()
		return
	}

	entry := &pendingEntry{finalize: finalize}

	e.mu.Lock()
	if req.Completed() {
		e.mu.Unlock()
		return
	}
	e.pending[req] = entry
	if delay, ok := timing.Delay(); ok {
		start := e.clock.Now()
		entry.progress = e.clock.AfterFunc(e.progressInterval, func() {
			e.progressTick(req, start, delay)
		})
		entry.timer = e.clock.AfterFunc(delay, func() {
			e.Resolve(req)
		})
	}
	e.mu.Unlock()

	e.recorder.PendingChanged(1)
	e.log.Debug("response pending", "method", req.Method, "url", req.URL.String(), "id", req.ID, "timing", timing)
}

// Resolve delivers the pending response of req. Each pending response is
// delivered exactly once; Resolve reports false when req had nothing
// pending, including when it was already resolved.
func (e *Engine) Resolve(req *Request) bool {
	e.mu.Lock()
	entry, ok := e.pending[req]
	if ok {
		delete(e.pending, req)
		entry.stop()
	}
	e.mu.Unlock()

	if !ok {
		return false
	}
	e.recorder.PendingChanged(-1)
	entry.finalize()
	return true
}

// Abort stops req: its timers are cancelled, its pending response is
// discarded and it fails with ErrAborted. It reports false when req had
// already finished.
func (e *Engine) Abort(req *Request) bool {
	return e.abort(req, ErrAborted)
}

func (e *Engine) abort(req *Request, cause error) bool {
	if cause == nil {
		cause = ErrAborted
	}
	if !req.abort(cause) {
		return false
	}
	e.release(req)
	e.recorder.RequestOutcome(req.Method, OutcomeAborted)
	e.log.Debug("request aborted", "method", req.Method, "url", req.URL.String(), "id", req.ID, "cause", cause)
	return true
}

// release drops the pending entry of req without delivering it.
func (e *Engine) release(req *Request) {
	e.mu.Lock()
	entry, ok := e.pending[req]
	if ok {
		delete(e.pending, req)
		entry.stop()
	}
	e.mu.Unlock()

	if ok {
		e.recorder.PendingChanged(-1)
	}
}

// PendingRequests returns the number of responses awaiting delivery.
func (e *Engine) PendingRequests() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Pending returns the requests whose responses await delivery, oldest
// first. It reads the pending table, so it works with tracking turned off.
func (e *Engine) Pending() []*Request {
	e.mu.Lock()
	reqs := make([]*Request, 0, len(e.pending))
	for req := range e.pending {
		reqs = append(reqs, req)
	}
	e.mu.Unlock()

	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].receivedAt.Before(reqs[j].receivedAt)
	})
	return reqs
}

// IsPending reports whether req has a response awaiting delivery.
func (e *Engine) IsPending(req *Request) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[req]
	return ok
}

// RequiresManualResolution reports whether a request for verb and url would
// wait for Resolve. It only matches routes: nothing is counted, tracked or
// created.
func (e *Engine) RequiresManualResolution(verb, url string) (bool, error) {
	m, ok, err := e.Lookup(verb, url)
	if err != nil || !ok || m.Route.Passthrough {
		return false, err
	}
	return evaluate(m.Route.Handler.Policy()).IsManual(), nil
}

// progressTick emits one progress notification and schedules the next
// while req stays pending.
func (e *Engine) progressTick(req *Request, start time.Time, delay time.Duration) {
	if !e.IsPending(req) || req.Completed() {
		return
	}

	p := computeProgress(e.clock.Since(start), delay, len(req.Body))
	req.setProgress(p)
	// Resolve may have delivered the response since the check above.
	if !e.IsPending(req) || req.Completed() {
		return
	}
	e.hooks.Progress(req, p)

	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.pending[req]
	if !ok || req.Completed() {
		return
	}
	entry.progress = e.clock.AfterFunc(e.progressInterval, func() {
		e.progressTick(req, start, delay)
	})
}

// WaitForPending blocks until at least n responses are pending or ctx ends.
// It polls, so it is meant for tests that need a deferred handler to settle
// before calling Resolve.
func (e *Engine) WaitForPending(ctx context.Context, n int) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if e.PendingRequests() >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d pending requests: %w", n, ctx.Err())
		case <-ticker.C:
		}
	}
}
