// Package clock is the scheduler capability the engine uses for delayed
// delivery and progress notifications.
//
// Real returns wall-clock timers. Manual is a simulated clock for tests:
// time only moves when Advance is called, and due callbacks run on the
// calling goroutine in due-time order.
package clock

import (
	"time"

	k8sclock "k8s.io/utils/clock"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Clock tells time and schedules callbacks.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct {
	k8sclock.RealClock
}

// AfterFunc schedules f on its own goroutine after d.
func (c realClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.RealClock.AfterFunc(d, f)
}

// Real returns a Clock backed by the system clock.
func Real() Clock {
	return realClock{}
}
