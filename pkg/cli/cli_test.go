package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/intercept/pkg/config"
	"github.com/getmockd/intercept/pkg/engine"
)

const serveConfig = `
baseURL: https://api.example.com
routes:
  - method: GET
    url: /users/:id
    json: {id: 1}
  - method: POST
    url: /orders
    status: 201
    headers: {Location: /orders/9}
  - method: GET
    url: /slow
    manual: true
  - method: GET
    url: /health
    passthrough: true
`

func parseConfig(t *testing.T, data string) *config.Config {
	t.Helper()
	cfg, err := config.ParseYAML([]byte(data))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// ============================================================================
// serve
// ============================================================================

func TestNewServer(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "upstream "+r.URL.Path)
	}))
	t.Cleanup(upstream.Close)

	reg := prometheus.NewRegistry()
	srv, err := newServer(parseConfig(t, serveConfig), serveFlags{upstream: upstream.URL, metricsPath: "/metrics"}, reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.engine.Shutdown() })

	rec := do(t, srv.handler, "GET", "http://localhost:8080/users/7")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())

	rec = do(t, srv.handler, "POST", "/orders")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/orders/9", rec.Header().Get("Location"))

	rec = do(t, srv.handler, "GET", "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "upstream /health", rec.Body.String())

	rec = do(t, srv.handler, "DELETE", "/users/7")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv.handler, "GET", "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `intercept_requests_total{method="GET",outcome="handled"} 1`)
	assert.Contains(t, rec.Body.String(), `intercept_requests_total{method="GET",outcome="passthrough"} 1`)
}

func TestNewServer_Options(t *testing.T) {
	t.Parallel()

	t.Run("route by host", func(t *testing.T) {
		t.Parallel()
		srv, err := newServer(parseConfig(t, serveConfig), serveFlags{routeByHost: true}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = srv.engine.Shutdown() })

		assert.Equal(t, http.StatusOK, do(t, srv.handler, "GET", "http://api.example.com/users/1").Code)
		assert.Equal(t, http.StatusNotFound, do(t, srv.handler, "GET", "http://localhost/users/1").Code)
		assert.Equal(t, http.StatusBadGateway, do(t, srv.handler, "GET", "http://api.example.com/health").Code)
		assert.Equal(t, http.StatusNotFound, do(t, srv.handler, "GET", "http://api.example.com/metrics").Code, "metrics need a registry")
	})

	t.Run("origin flag wins", func(t *testing.T) {
		t.Parallel()
		cfg := parseConfig(t, "routes: [{method: GET, url: 'http://internal:9000/ping', body: pong}]\n")
		srv, err := newServer(cfg, serveFlags{origin: "http://internal:9000"}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = srv.engine.Shutdown() })

		rec := do(t, srv.handler, "GET", "/ping")
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("invalid upstream", func(t *testing.T) {
		t.Parallel()
		_, err := newServer(parseConfig(t, serveConfig), serveFlags{upstream: "staging"}, nil)
		require.ErrorContains(t, err, "--upstream")
	})

	t.Run("invalid origin", func(t *testing.T) {
		t.Parallel()
		_, err := newServer(parseConfig(t, serveConfig), serveFlags{origin: "/relative"}, nil)
		require.ErrorContains(t, err, "--origin")
	})
}

func TestOriginFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "http://a", originFor(&config.Config{BaseURL: "http://b"}, serveFlags{origin: "http://a"}))
	assert.Equal(t, "http://b", originFor(&config.Config{BaseURL: "http://b"}, serveFlags{}))
	assert.Equal(t, engine.DefaultBaseURL, originFor(&config.Config{}, serveFlags{}))
}

func TestRunServe(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	cfg := parseConfig(t, serveConfig)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, cmd, cfg, serveFlags{addr: "127.0.0.1:0", metricsPath: "/metrics"})
	}()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Serving 4 routes") }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Contains(t, out.String(), "Shutting down...")
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunServe_ListenError(t *testing.T) {
	t.Parallel()
	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)
	err := runServe(context.Background(), cmd, parseConfig(t, serveConfig), serveFlags{addr: "not-an-address"})
	require.ErrorContains(t, err, "listening on not-an-address")
}

// ============================================================================
// helpers
// ============================================================================

func TestNewRouteOutput(t *testing.T) {
	t.Parallel()

	e, err := newEngine(parseConfig(t, serveConfig+`
  - method: PUT
    url: /later
    delay: 2s
`))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })

	var rows []RouteOutput
	for _, r := range e.Routes() {
		rows = append(rows, newRouteOutput(r))
	}
	assert.Contains(t, rows, RouteOutput{Method: "GET", Host: "api.example.com", Pattern: "/users/:id", Kind: "intercept", Timing: "sync"})
	assert.Contains(t, rows, RouteOutput{Method: "GET", Host: "api.example.com", Pattern: "/slow", Kind: "intercept", Timing: "manual"})
	assert.Contains(t, rows, RouteOutput{Method: "GET", Host: "api.example.com", Pattern: "/health", Kind: "passthrough", Timing: "-"})
	assert.Contains(t, rows, RouteOutput{Method: "PUT", Host: "api.example.com", Pattern: "/later", Kind: "intercept", Timing: "delay 2s"})
}

func TestSplitErrors(t *testing.T) {
	t.Parallel()

	a, b, c := errors.New("a"), errors.New("b"), errors.New("c")
	assert.Equal(t, []string{"a", "b", "c"}, splitErrors(errors.Join(a, errors.Join(b, c))))
	assert.Equal(t, []string{"wrapped: a"}, splitErrors(errors.New("wrapped: a")))
}

// Not parallel: uses the package-level -f flag and the working directory.
func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvConfig, "")
	configFile = ""
	t.Cleanup(func() { configFile = "" })

	_, err := resolveConfigPath()
	require.ErrorContains(t, err, "no configuration file")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "intercept.yml"), []byte("routes: []\n"), 0o644))
	path, err := resolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "intercept.yml", path)

	t.Setenv(EnvConfig, "from-env.yaml")
	path, err = resolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", path)

	configFile = "flag.yaml"
	path, err = resolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "flag.yaml", path)
}
