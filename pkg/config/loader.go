package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrInvalidEnv       = errors.New("invalid environment override")
)

// Environment variables read by ApplyEnv.
const (
	EnvForcePassthrough = "INTERCEPT_FORCE_PASSTHROUGH"
	EnvDisableUnhandled = "INTERCEPT_DISABLE_UNHANDLED"
	EnvBaseURL          = "INTERCEPT_BASE_URL"
)

// LoadError describes a file that could not be loaded.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadFromFile reads a configuration file, expands its includes and OpenAPI
// imports, applies environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseYAML(data)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "parsing configuration", Err: err}
	}
	cfg.path = path
	for i := range cfg.Routes {
		cfg.Routes[i].Source = path
	}

	baseDir := filepath.Dir(path)
	if err := cfg.loadIncludes(baseDir); err != nil {
		return nil, err
	}
	if err := cfg.loadOpenAPI(baseDir); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML parses a configuration document. It does not follow includes
// or validate routes.
func ParseYAML(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Config{}, nil
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	return &cfg, nil
}

// ParseRoutes parses a route file: either a list of routes or a mapping
// with a routes key.
func ParseRoutes(data []byte) ([]Route, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	doc := node.Content[0]

	if doc.Kind == yaml.SequenceNode {
		var routes []Route
		if err := doc.Decode(&routes); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
		}
		return routes, nil
	}

	var file struct {
		Routes []Route `yaml:"routes"`
	}
	if err := doc.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	return file.Routes, nil
}

// loadIncludes appends the routes of every file matched by the include
// patterns. Files are read in sorted order and each file once.
func (c *Config) loadIncludes(baseDir string) error {
	seen := make(map[string]bool)
	if c.path != "" {
		if abs, err := filepath.Abs(c.path); err == nil {
			seen[abs] = true
		}
	}

	for _, pattern := range c.Include {
		matches, err := expandGlob(ResolvePath(baseDir, pattern))
		if err != nil {
			return &LoadError{Path: pattern, Message: "expanding include pattern", Err: err}
		}
		sort.Strings(matches)

		for _, file := range matches {
			abs, err := filepath.Abs(file)
			if err != nil {
				abs = file
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true

			data, err := readFile(file)
			if err != nil {
				return err
			}
			routes, err := ParseRoutes(data)
			if err != nil {
				return &LoadError{Path: file, Message: "parsing routes", Err: err}
			}
			for i := range routes {
				routes[i].Source = file
			}
			c.Routes = append(c.Routes, routes...)
		}
	}
	return nil
}

func (c *Config) loadOpenAPI(baseDir string) error {
	for _, spec := range c.OpenAPI {
		path := ResolvePath(baseDir, spec)
		routes, err := RoutesFromOpenAPI(path)
		if err != nil {
			return &LoadError{Path: path, Message: "importing OpenAPI document", Err: err}
		}
		c.Routes = append(c.Routes, routes...)
	}
	return nil
}

// ApplyEnv overrides engine flags from the environment through lookup,
// which is normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvForcePassthrough); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvForcePassthrough, v)
		}
		c.ForcePassthrough = b
	}
	if v, ok := lookup(EnvDisableUnhandled); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvDisableUnhandled, v)
		}
		c.DisableUnhandled = b
	}
	return nil
}

// ResolvePath resolves path relative to baseDir unless it is absolute.
func ResolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// expandGlob expands a glob pattern to a list of matching file paths.
// Uses doublestar for ** support, falls back to filepath.Glob for simple patterns.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}
