package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/getmockd/intercept/pkg/registry"
)

// ErrInvalidRoute is wrapped by every route validation error.
var ErrInvalidRoute = errors.New("invalid route")

// RouteError is a validation failure of one route fixture.
type RouteError struct {
	Index   int
	Route   string
	Source  string
	Message string
}

func (e *RouteError) Error() string {
	where := fmt.Sprintf("routes[%d]", e.Index)
	if e.Source != "" {
		where = e.Source + ": " + where
	}
	return fmt.Sprintf("%s (%s): %s", where, e.Route, e.Message)
}

func (e *RouteError) Unwrap() error {
	return ErrInvalidRoute
}

// Validate checks the engine flags and every route, reporting all problems
// at once.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("baseURL %q must be an absolute URL", c.BaseURL))
		}
	}
	if c.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf("progressInterval must not be negative, got %s", c.ProgressInterval))
	}

	for i := range c.Routes {
		for _, msg := range c.Routes[i].problems() {
			errs = append(errs, &RouteError{
				Index:   i,
				Route:   c.Routes[i].String(),
				Source:  c.Routes[i].Source,
				Message: msg,
			})
		}
	}
	return errors.Join(errs...)
}

func (r *Route) problems() []string {
	var msgs []string
	if !registry.IsVerb(strings.ToUpper(r.Method)) {
		msgs = append(msgs, fmt.Sprintf("method %q is not one of %s", r.Method, strings.Join(registry.Verbs, ", ")))
	}
	if r.URL == "" {
		msgs = append(msgs, "url is required")
	}

	if r.Passthrough {
		if r.Status != 0 || len(r.Headers) > 0 || r.Body != "" || r.JSON != nil || r.Delay != 0 || r.Manual {
			msgs = append(msgs, "passthrough routes cannot define a response")
		}
		return msgs
	}

	if r.Status != 0 && (r.Status < 100 || r.Status > 999) {
		msgs = append(msgs, fmt.Sprintf("status %d is not a valid HTTP status", r.Status))
	}
	if r.Body != "" && r.JSON != nil {
		msgs = append(msgs, "body and json are mutually exclusive")
	}
	if r.Delay < 0 {
		msgs = append(msgs, "delay must not be negative")
	}
	if r.Delay > 0 && r.Manual {
		msgs = append(msgs, "delay and manual are mutually exclusive")
	}
	return msgs
}
