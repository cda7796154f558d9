// Package metrics exports engine activity as Prometheus metrics.
//
// A Collector implements engine.Recorder:
//
//	reg := prometheus.NewRegistry()
//	e, err := engine.New(engine.WithRecorder(metrics.New(reg)))
//	http.Handle("/metrics", metrics.Handler(reg))
//
// Exported metrics:
//
//   - intercept_requests_total: requests by method and outcome
//     (handled, passthrough, unhandled, dropped, errored, invalid, aborted)
//   - intercept_pending_responses: responses waiting for a timer or Resolve
//   - intercept_response_latency_seconds: time from interception to delivery,
//     by method and status
package metrics
