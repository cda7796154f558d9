package engine

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/intercept/pkg/logging"
)

func newBenchEngine(b *testing.B, routes int) *Engine {
	b.Helper()
	e, err := New(WithLogger(logging.Nop()), WithTrackRequests(false))
	if err != nil {
		b.Fatalf("Failed to create engine: %v", err)
	}
	b.Cleanup(func() { _ = e.Shutdown() })

	for i := 0; i < routes; i++ {
		if _, err := e.Get(fmt.Sprintf("/api/v1/resource%d/:id", i), ok("bench"), nil); err != nil {
			b.Fatalf("Failed to register route: %v", err)
		}
	}
	if _, err := e.Get("/api/bench", ok("benchmark response"), nil); err != nil {
		b.Fatalf("Failed to register route: %v", err)
	}
	return e
}

func BenchmarkTransport(b *testing.B) {
	e := newBenchEngine(b, 100)
	client := e.Client()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			resp, err := client.Get("http://localhost/api/bench")
			if err == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		}
	})
}

func BenchmarkLookup(b *testing.B) {
	e := newBenchEngine(b, 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, found, _ := e.Lookup("GET", "http://localhost/api/v1/resource99/42?x=1"); !found {
			b.Fatal("route not found")
		}
	}
}

// Test handling of many concurrent held responses
func TestConcurrentManualRequests(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithLogger(logging.Nop()))
	_, err := e.Get("/held", ok("released"), Manual)
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	var successCount int64

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := e.Client().Get("http://localhost/held")
			if err != nil {
				return
			}
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if string(body) == "released" {
				atomic.AddInt64(&successCount, 1)
			}
		}()
	}

	require.Eventually(t, func() bool { return e.PendingRequests() == n }, 5*time.Second, time.Millisecond)
	for _, req := range e.HandledRequests() {
		assert.True(t, e.Resolve(req))
	}
	wg.Wait()

	assert.Equal(t, int64(n), successCount, "All 100 held requests should complete")
	assert.Equal(t, 0, e.PendingRequests())
}
