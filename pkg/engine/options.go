package engine

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/intercept/pkg/clock"
)

// DefaultBaseURL is the origin relative routes and requests resolve against.
const DefaultBaseURL = "http://localhost"

// DefaultProgressInterval is how often delayed requests report progress.
const DefaultProgressInterval = 50 * time.Millisecond

// Option configures an Engine.
type Option func(*options)

type options struct {
	baseURL          string
	forcePassthrough bool
	disableUnhandled bool
	trackRequests    bool
	progressInterval time.Duration
	clock            clock.Clock
	hooks            Hooks
	logger           *slog.Logger
	recorder         Recorder
	interceptor      Interceptor
	native           http.RoundTripper
	routes           []RouteMap
}

func defaultOptions() options {
	return options{
		baseURL:          DefaultBaseURL,
		trackRequests:    true,
		progressInterval: DefaultProgressInterval,
		clock:            clock.Real(),
	}
}

// WithBaseURL sets the origin relative URLs resolve against. An empty
// string keeps relative routes under the empty host key.
func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = base }
}

// WithForcePassthrough sends every request to the native transport.
func WithForcePassthrough(force bool) Option {
	return func(o *options) { o.forcePassthrough = force }
}

// WithDisableUnhandled silently drops requests that match no route instead
// of calling the UnhandledRequest hook.
func WithDisableUnhandled(disable bool) Option {
	return func(o *options) { o.disableUnhandled = disable }
}

// WithTrackRequests turns the handled, passthrough and unhandled request
// lists on or off. Tracking is on by default.
func WithTrackRequests(track bool) Option {
	return func(o *options) { o.trackRequests = track }
}

// WithProgressInterval sets the progress notification period for delayed
// requests.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.progressInterval = d
		}
	}
}

// WithClock sets the clock used for delays and progress notifications.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithHooks overrides the non-nil hooks in h.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h.merge(o.hooks) }
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithInterceptor installs the engine transport through i at construction
// and removes it on Shutdown.
func WithInterceptor(i Interceptor) Option {
	return func(o *options) { o.interceptor = i }
}

// WithNativeTransport sets the transport passthrough requests are sent
// through. It takes precedence over the transport an Interceptor replaces.
func WithNativeTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.native = rt }
}

// WithRoutes registers route maps at construction.
func WithRoutes(maps ...RouteMap) Option {
	return func(o *options) { o.routes = append(o.routes, maps...) }
}
