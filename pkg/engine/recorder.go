package engine

import "time"

// Outcome classifies how a request left the dispatcher.
type Outcome string

// Outcomes.
const (
	OutcomeHandled     Outcome = "handled"
	OutcomePassthrough Outcome = "passthrough"
	OutcomeUnhandled   Outcome = "unhandled"
	OutcomeDropped     Outcome = "dropped"
	OutcomeErrored     Outcome = "errored"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeAborted     Outcome = "aborted"
)

// Recorder receives engine metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// RequestOutcome counts a request by verb and outcome.
	RequestOutcome(verb string, outcome Outcome)

	// PendingChanged adjusts the number of requests awaiting delivery.
	PendingChanged(delta int)

	// ResponseDelivered observes a delivered response and the time since
	// the request entered the engine.
	ResponseDelivered(verb string, status int, latency time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RequestOutcome(string, Outcome) {}
func (nopRecorder) PendingChanged(int) {}
func (nopRecorder) ResponseDelivered(string, int, time.Duration) {}
