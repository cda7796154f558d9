package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is an engine configuration file.
type Config struct {
	// BaseURL is the origin relative URLs resolve against.
	BaseURL string `yaml:"baseURL,omitempty"`

	ForcePassthrough bool `yaml:"forcePassthrough,omitempty"`
	DisableUnhandled bool `yaml:"disableUnhandled,omitempty"`

	// TrackRequests defaults to true when unset.
	TrackRequests *bool `yaml:"trackRequests,omitempty"`

	// ProgressInterval overrides the progress notification period.
	ProgressInterval time.Duration `yaml:"progressInterval,omitempty"`

	Logging LoggingConfig `yaml:"logging,omitempty"`

	// Include lists glob patterns of route files, relative to the
	// configuration file. "**" matches across directories.
	Include []string `yaml:"include,omitempty"`

	// OpenAPI lists OpenAPI 3 documents whose response examples become
	// routes.
	OpenAPI []string `yaml:"openapi,omitempty"`

	Routes []Route `yaml:"routes,omitempty"`

	// path is the file the configuration was loaded from.
	path string
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Route is a route fixture: a canned response, or a passthrough marker.
type Route struct {
	Method string `yaml:"method"`
	URL    string `yaml:"url"`

	// Passthrough forwards matching requests instead of answering them.
	// Response fields must be empty.
	Passthrough bool `yaml:"passthrough,omitempty"`

	// Status defaults to 200.
	Status  int               `yaml:"status,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`

	// Body is sent verbatim. JSON is encoded and sent with a JSON content
	// type. At most one of them may be set.
	Body string `yaml:"body,omitempty"`
	JSON any    `yaml:"json,omitempty"`

	// Delay holds the response for the given duration. Manual holds it
	// until the request is resolved. At most one of them may be set.
	Delay  time.Duration `yaml:"delay,omitempty"`
	Manual bool          `yaml:"manual,omitempty"`

	// Source is the file the route was loaded from.
	Source string `yaml:"-"`
}

// StatusCode returns Status, or 200 when unset.
func (r *Route) StatusCode() int {
	if r.Status == 0 {
		return 200
	}
	return r.Status
}

// Timing describes when the response is delivered: "sync", "manual" or
// "delay <duration>".
func (r *Route) Timing() string {
	switch {
	case r.Passthrough:
		return "-"
	case r.Manual:
		return "manual"
	case r.Delay > 0:
		return fmt.Sprintf("delay %s", r.Delay)
	default:
		return "sync"
	}
}

func (r *Route) String() string {
	return strings.ToUpper(r.Method) + " " + r.URL
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}
