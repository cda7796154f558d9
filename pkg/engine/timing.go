package engine

import (
	"fmt"
	"time"
)

type timingMode int

const (
	timingSync timingMode = iota
	timingManual
	timingDelayed
)

// Timing says when a response is delivered.
type Timing struct {
	mode  timingMode
	delay time.Duration
}

// Timings.
var (
	// Sync delivers the response as soon as the handler produced it.
	Sync = Timing{mode: timingSync}

	// Manual holds the response until Engine.Resolve is called.
	Manual = Timing{mode: timingManual}
)

// Delay delivers the response after d. Negative durations count as zero.
func Delay(d time.Duration) Timing {
	if d < 0 {
		d = 0
	}
	return Timing{mode: timingDelayed, delay: d}
}

// IsSync reports whether the response is delivered immediately.
func (t Timing) IsSync() bool { return t.mode == timingSync }

// IsManual reports whether the response waits for Engine.Resolve.
func (t Timing) IsManual() bool { return t.mode == timingManual }

// Delay returns the delivery delay and whether the timing is delayed.
func (t Timing) Delay() (time.Duration, bool) {
	return t.delay, t.mode == timingDelayed
}

// Timing implements Policy.
func (t Timing) Timing() Timing { return t }

func (t Timing) String() string {
	switch t.mode {
	case timingManual:
		return "manual"
	case timingDelayed:
		return fmt.Sprintf("delay %s", t.delay)
	default:
		return "sync"
	}
}

// Policy produces a Timing for each handled request. It is evaluated once
// per request, just before delivery is scheduled.
type Policy interface {
	Timing() Timing
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func() Timing

// Timing calls f.
func (f PolicyFunc) Timing() Timing { return f() }

func evaluate(p Policy) Timing {
	if p == nil {
		return Sync
	}
	return p.Timing()
}

// Progress is a synthetic upload progress notification for a delayed
// request.
type Progress struct {
	// Loaded approximates the bytes transmitted so far.
	Loaded int64

	// Total is the request body size.
	Total int64

	// Elapsed is the time since delivery was scheduled.
	Elapsed time.Duration
}

// computeProgress scales the body size by the elapsed share of the delay.
func computeProgress(elapsed, delay time.Duration, size int) Progress {
	p := Progress{Total: int64(size), Elapsed: elapsed}
	if delay <= 0 || size == 0 {
		return p
	}
	loaded := int64(float64(elapsed) / float64(delay) * float64(size))
	if loaded > p.Total {
		loaded = p.Total
	}
	p.Loaded = loaded
	return p
}
