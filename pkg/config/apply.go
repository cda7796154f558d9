package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/logging"
)

// Options returns the engine options for the configured flags. Routes are
// registered separately by Apply.
func (c *Config) Options() []engine.Option {
	opts := []engine.Option{
		engine.WithForcePassthrough(c.ForcePassthrough),
		engine.WithDisableUnhandled(c.DisableUnhandled),
	}
	if c.BaseURL != "" {
		opts = append(opts, engine.WithBaseURL(c.BaseURL))
	}
	if c.TrackRequests != nil {
		opts = append(opts, engine.WithTrackRequests(*c.TrackRequests))
	}
	if c.ProgressInterval > 0 {
		opts = append(opts, engine.WithProgressInterval(c.ProgressInterval))
	}
	return opts
}

// LoggerConfig returns the logging configuration: defaults, then the file,
// then INTERCEPT_LOG_LEVEL and INTERCEPT_LOG_FORMAT.
func (c *Config) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if c.Logging.Level != "" {
		cfg.Level = logging.ParseLevel(c.Logging.Level)
	}
	if c.Logging.Format != "" {
		cfg.Format = logging.ParseFormat(c.Logging.Format)
	}
	if v, ok := os.LookupEnv(logging.EnvLevel); ok {
		cfg.Level = logging.ParseLevel(v)
	}
	if v, ok := os.LookupEnv(logging.EnvFormat); ok {
		cfg.Format = logging.ParseFormat(v)
	}
	return cfg
}

// Logger builds the logger described by LoggerConfig.
func (c *Config) Logger() *slog.Logger {
	return logging.New(c.LoggerConfig())
}

// Apply registers every route on e, in file order. It has the signature of
// engine.RouteMap.
func (c *Config) Apply(e *engine.Engine) error {
	for i := range c.Routes {
		r := &c.Routes[i]
		if r.Passthrough {
			if err := e.Passthrough(r.Method, r.URL); err != nil {
				return fmt.Errorf("routes[%d]: %w", i, err)
			}
			continue
		}

		fn, err := r.Handler()
		if err != nil {
			return fmt.Errorf("routes[%d] %s: %w", i, r, err)
		}
		if _, err := e.Register(r.Method, r.URL, fn, r.Policy()); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
	}
	return nil
}

// Handler returns a handler replying with the fixture response. A json
// body is encoded once, here.
func (r *Route) Handler() (engine.HandlerFunc, error) {
	headers := maps.Clone(r.Headers)
	if headers == nil {
		headers = make(map[string]string)
	}

	var body []byte
	switch {
	case r.JSON != nil:
		data, err := oj.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("encoding json body: %w", err)
		}
		body = data
		if !hasHeader(headers, "Content-Type") {
			headers["Content-Type"] = "application/json"
		}
	case r.Body != "":
		body = []byte(r.Body)
	}

	status := r.StatusCode()
	return func(*engine.Request) (engine.Result, error) {
		// Hooks may modify headers, so every reply gets its own copy.
		return engine.Reply(status, maps.Clone(headers), body), nil
	}, nil
}

// Policy returns the fixture timing: Manual, Delay or nil for Sync.
func (r *Route) Policy() engine.Policy {
	switch {
	case r.Manual:
		return engine.Manual
	case r.Delay > 0:
		return engine.Delay(r.Delay)
	default:
		return nil
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
