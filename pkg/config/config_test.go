package config

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const mainConfig = `
baseURL: https://api.example.com
trackRequests: false
progressInterval: 10ms
logging:
  level: debug
  format: json
include:
  - fixtures/**/*.yaml
routes:
  - method: GET
    url: /users/:id
    json: {id: 1, name: ada}
  - method: post
    url: /uploads
    status: 201
    delay: 150ms
  - method: GET
    url: /health
    passthrough: true
`

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "intercept.yaml", mainConfig)
	writeFile(t, dir, "fixtures/orders.yaml", `
- method: GET
  url: /orders
  body: "[]"
  headers:
    Content-Type: application/json
`)
	writeFile(t, dir, "fixtures/nested/jobs.yaml", `
routes:
  - method: PUT
    url: /jobs/{id}
    manual: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	require.NotNil(t, cfg.TrackRequests)
	assert.False(t, *cfg.TrackRequests)
	assert.Equal(t, 10*time.Millisecond, cfg.ProgressInterval)

	require.Len(t, cfg.Routes, 5)
	assert.Equal(t, "GET /users/:id", cfg.Routes[0].String())
	assert.Equal(t, 150*time.Millisecond, cfg.Routes[1].Delay)
	assert.Equal(t, "delay 150ms", cfg.Routes[1].Timing())
	assert.Equal(t, "-", cfg.Routes[2].Timing())
	assert.Equal(t, "/jobs/{id}", cfg.Routes[3].URL, "includes are read in sorted order")
	assert.Equal(t, filepath.Join(dir, "fixtures/nested/jobs.yaml"), cfg.Routes[3].Source)
	assert.Equal(t, "/orders", cfg.Routes[4].URL)
	assert.Equal(t, path, cfg.Routes[0].Source)

	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "intercept.yaml", "routes: []\n")

	t.Setenv(EnvBaseURL, "http://staging.internal:8080")
	t.Setenv(EnvForcePassthrough, "true")
	t.Setenv(EnvDisableUnhandled, "1")
	t.Setenv(logging.EnvLevel, "error")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://staging.internal:8080", cfg.BaseURL)
	assert.True(t, cfg.ForcePassthrough)
	assert.True(t, cfg.DisableUnhandled)
	assert.Equal(t, logging.LevelError, cfg.LoggerConfig().Level)
}

func TestLoadFromFile_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
		require.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFromFile(writeFile(t, dir, "empty.yaml", "  \n"))
		require.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFromFile(dir)
		require.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFromFile(writeFile(t, dir, "unknown.yaml", "baseUrl: http://x\n"))
		require.ErrorIs(t, err, ErrInvalidYAML)
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Contains(t, le.Path, "unknown.yaml")
	})

	t.Run("broken include", func(t *testing.T) {
		t.Parallel()
		sub := t.TempDir()
		writeFile(t, sub, "routes/bad.yaml", "- method: [\n")
		_, err := LoadFromFile(writeFile(t, sub, "main.yaml", "include: [routes/*.yaml]\n"))
		require.ErrorIs(t, err, ErrInvalidYAML)
		assert.Contains(t, err.Error(), "bad.yaml")
	})

	t.Run("invalid routes", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFromFile(writeFile(t, dir, "invalid.yaml", `
routes:
  - method: GET
    url: /ok
  - method: FETCH
    url: /bad
    body: x
    json: {a: 1}
`))
		require.ErrorIs(t, err, ErrInvalidRoute)
		assert.Contains(t, err.Error(), "routes[1]")
		assert.Contains(t, err.Error(), "method \"FETCH\"")
		assert.Contains(t, err.Error(), "mutually exclusive")
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		cfg   Config
		wants []string
	}{
		{
			name: "valid",
			cfg:  Config{BaseURL: "http://localhost", Routes: []Route{{Method: "get", URL: "/a"}}},
		},
		{
			name:  "relative base url",
			cfg:   Config{BaseURL: "/api"},
			wants: []string{"must be an absolute URL"},
		},
		{
			name:  "passthrough with response",
			cfg:   Config{Routes: []Route{{Method: "GET", URL: "/a", Passthrough: true, Status: 200}}},
			wants: []string{"passthrough routes cannot define a response"},
		},
		{
			name:  "bad status and timing",
			cfg:   Config{Routes: []Route{{Method: "GET", URL: "/a", Status: 42, Delay: time.Second, Manual: true}}},
			wants: []string{"status 42", "delay and manual"},
		},
		{
			name:  "missing url",
			cfg:   Config{Routes: []Route{{Method: "GET"}}},
			wants: []string{"url is required"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if len(tc.wants) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tc.wants {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestApplyEnv_InvalidBool(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	err := cfg.ApplyEnv(func(key string) (string, bool) {
		if key == EnvDisableUnhandled {
			return "sometimes", true
		}
		return "", false
	})
	require.ErrorIs(t, err, ErrInvalidEnv)
	assert.Contains(t, err.Error(), EnvDisableUnhandled)
}

func TestParseRoutes(t *testing.T) {
	t.Parallel()

	routes, err := ParseRoutes([]byte("- {method: GET, url: /a}\n- {method: GET, url: /b}\n"))
	require.NoError(t, err)
	assert.Len(t, routes, 2)

	routes, err = ParseRoutes([]byte("routes:\n  - {method: GET, url: /a}\n"))
	require.NoError(t, err)
	assert.Len(t, routes, 1)

	routes, err = ParseRoutes([]byte("# nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, routes)
}

// ============================================================================
// Engine wiring
// ============================================================================

func TestApply(t *testing.T) {
	t.Parallel()

	cfg, err := ParseYAML([]byte(mainConfig))
	require.NoError(t, err)
	cfg.Routes = append(cfg.Routes, Route{Method: "DELETE", URL: "/jobs/:id", Manual: true, Status: 202})
	require.NoError(t, cfg.Validate())

	e, err := engine.New(append(cfg.Options(), engine.WithRoutes(cfg.Apply))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })

	assert.Len(t, e.Routes(), 4)
	assert.Empty(t, e.HandledRequests(), "trackRequests: false")

	resp, err := e.Client().Get("https://api.example.com/users/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"id":1,"name":"ada"}`, string(body))

	manual, err := e.RequiresManualResolution("DELETE", "/jobs/3")
	require.NoError(t, err)
	assert.True(t, manual)

	m, found, err := e.Lookup("GET", "https://api.example.com/health")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, m.Route.Passthrough)

	req, err := e.NewRequest(context.Background(), "DELETE", "/jobs/3", nil, nil)
	require.NoError(t, err)
	_, err = e.Dispatch(req)
	require.NoError(t, err)
	require.True(t, e.Resolve(req))
	assert.Equal(t, 202, req.Status())
}

func TestApply_RegistrationError(t *testing.T) {
	t.Parallel()
	cfg := &Config{Routes: []Route{{Method: "GET", URL: "/files/*rest/tail"}}}

	_, err := engine.New(engine.WithRoutes(cfg.Apply))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routes[0]")
}

func TestRoute_Handler(t *testing.T) {
	t.Parallel()

	t.Run("keeps explicit content type", func(t *testing.T) {
		t.Parallel()
		r := Route{Headers: map[string]string{"content-type": "application/problem+json"}, JSON: []any{1}}
		fn, err := r.Handler()
		require.NoError(t, err)

		res, err := fn(nil)
		require.NoError(t, err)
		assert.Equal(t, engine.Reply(200, map[string]string{"content-type": "application/problem+json"}, []byte("[1]")), res)
	})

	t.Run("fixture edits after creation do not leak", func(t *testing.T) {
		t.Parallel()
		r := Route{Status: 204, Headers: map[string]string{"X-A": "1"}}
		fn, err := r.Handler()
		require.NoError(t, err)
		r.Headers["X-A"] = "2"

		res, err := fn(nil)
		require.NoError(t, err)
		assert.Equal(t, engine.Reply(204, map[string]string{"X-A": "1"}, []byte(nil)), res)
	})

	t.Run("policy", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, (&Route{}).Policy())
		assert.Equal(t, engine.Manual, (&Route{Manual: true}).Policy())
		assert.Equal(t, engine.Delay(time.Second), (&Route{Delay: time.Second}).Policy())
	})
}

func TestLoadError(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	err := &LoadError{Path: "a.yaml", Message: "parsing", Err: cause}
	assert.Equal(t, "a.yaml: parsing: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "a.yaml: parsing", (&LoadError{Path: "a.yaml", Message: "parsing"}).Error())
}
