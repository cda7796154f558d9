// Package logging provides structured logging configuration for the
// interception engine and its tools.
//
// It wraps log/slog so every component logs the same way. Components accept
// a *slog.Logger through an option; when none is given they use Nop.
//
// # Usage
//
//	logger := logging.New(logging.FromEnv())
//	e, err := engine.New(engine.WithLogger(logger))
//
// Inside tests, ForTest routes records to t.Log:
//
//	e, err := engine.New(engine.WithLogger(logging.ForTest(t, logging.LevelDebug)))
//
// # Log Levels
//
// Four log levels are supported:
//   - Debug: one record per dispatch decision (passthrough, handled, dropped)
//   - Info: lifecycle of long-running tools such as "intercept serve"
//   - Warn: duplicate interception, shutdown with pending requests
//   - Error: invalid handler responses, requests completing after shutdown
//
// # Output Formats
//
//   - Text: Human-readable format for development
//   - JSON: Structured format for log aggregation systems
package logging
