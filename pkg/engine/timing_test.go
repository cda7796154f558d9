package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTiming(t *testing.T) {
	t.Parallel()

	assert.True(t, evaluate(nil).IsSync())
	assert.True(t, evaluate(Sync).IsSync())
	assert.True(t, evaluate(Manual).IsManual())

	d, delayed := Delay(-time.Second).Delay()
	assert.True(t, delayed)
	assert.Zero(t, d)

	_, delayed = Manual.Delay()
	assert.False(t, delayed)

	assert.Equal(t, "sync", Sync.String())
	assert.Equal(t, "manual", Manual.String())
	assert.Equal(t, "delay 150ms", Delay(150*time.Millisecond).String())
}

func TestComputeProgress(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		elapsed time.Duration
		delay   time.Duration
		size    int
		want    int64
	}{
		{"halfway", 50 * time.Millisecond, 100 * time.Millisecond, 10, 5},
		{"capped at total", 300 * time.Millisecond, 100 * time.Millisecond, 10, 10},
		{"empty body", 50 * time.Millisecond, 100 * time.Millisecond, 0, 0},
		{"zero delay", 50 * time.Millisecond, 0, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := computeProgress(tc.elapsed, tc.delay, tc.size)
			assert.Equal(t, tc.want, p.Loaded)
			assert.Equal(t, int64(tc.size), p.Total)
			assert.Equal(t, tc.elapsed, p.Elapsed)
		})
	}
}
