package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getmockd/intercept/pkg/engine"
)

// Namespace prefixes every metric name.
const Namespace = "intercept"

// latencyBuckets cover synchronous replies up to multi-second simulated
// delays.
var latencyBuckets = []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Collector records engine metrics.
type Collector struct {
	requests *prometheus.CounterVec
	pending  prometheus.Gauge
	latency  *prometheus.HistogramVec
}

var _ engine.Recorder = (*Collector)(nil)

// New creates a Collector registered with reg. A nil reg registers with
// prometheus.DefaultRegisterer. Registering twice with the same registry
// panics, like any promauto metric.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "requests_total",
				Help:      "Total number of intercepted requests by outcome",
			},
			[]string{"method", "outcome"},
		),
		pending: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "pending_responses",
				Help:      "Number of responses waiting for delivery",
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "response_latency_seconds",
				Help:      "Time from interception to response delivery",
				Buckets:   latencyBuckets,
			},
			[]string{"method", "status"},
		),
	}
}

// RequestOutcome implements engine.Recorder.
func (c *Collector) RequestOutcome(verb string, outcome engine.Outcome) {
	c.requests.WithLabelValues(verb, string(outcome)).Inc()
}

// PendingChanged implements engine.Recorder.
func (c *Collector) PendingChanged(delta int) {
	c.pending.Add(float64(delta))
}

// ResponseDelivered implements engine.Recorder.
func (c *Collector) ResponseDelivered(verb string, status int, latency time.Duration) {
	c.latency.WithLabelValues(verb, strconv.Itoa(status)).Observe(latency.Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus exposition
// format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
