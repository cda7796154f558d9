package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		{"DEBUG", LevelDebug},
		{"WARNING", LevelWarn},
		{"Error", LevelError},
		{"dEbUg", LevelDebug},
		{"  warn\n", LevelWarn},

		// Anything else is info
		{"", LevelInfo},
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{" Json ", FormatJSON},
		{"text", FormatText},
		{"", FormatText},
		{"yaml", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseFormat(tt.input), "ParseFormat(%q)", tt.input)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Equal(t, LevelWarn, cfg.Level)
		assert.Equal(t, FormatText, cfg.Format)
		assert.NotNil(t, cfg.Output)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv(EnvLevel, "debug")
		t.Setenv(EnvFormat, "json")
		cfg := FromEnv()
		assert.Equal(t, LevelDebug, cfg.Level)
		assert.Equal(t, FormatJSON, cfg.Format)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})
		log.Debug("dropped")
		log.Info("request handled", "verb", "GET", "status", 200)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
		assert.Equal(t, "request handled", record["msg"])
		assert.Equal(t, "GET", record["verb"])
		assert.InDelta(t, 200, record["status"], 0)
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(Config{Level: LevelWarn, Output: &buf}).Warn("unhandled request", "path", "/x")
		assert.Contains(t, buf.String(), `msg="unhandled request" path=/x`)
	})
}

func TestNop(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { Nop().Error("ignored") })
}

type captureTB struct {
	testing.TB
	logs    []string
	helpers int
}

func (c *captureTB) Helper() { c.helpers++ }

func (c *captureTB) Log(args ...any) {
	for _, a := range args {
		c.logs = append(c.logs, a.(string))
	}
}

func TestForTest(t *testing.T) {
	t.Parallel()
	c := &captureTB{TB: t}
	log := ForTest(c, LevelInfo)
	log.Debug("hidden")
	log.Info("pending response", "count", 2)

	require.Len(t, c.logs, 1)
	assert.Contains(t, c.logs[0], `msg="pending response" count=2`)
	assert.False(t, strings.HasSuffix(c.logs[0], "\n"))
}

func TestForTest_ReportsCallSite(t *testing.T) {
	t.Parallel()
	c := &captureTB{TB: t}
	ForTest(c, LevelInfo).Info("delivered")

	require.Len(t, c.logs, 1)
	// Marking the writer as a helper would attribute the line to slog internals.
	assert.Zero(t, c.helpers)
	assert.Contains(t, c.logs[0], "source=")
	assert.Contains(t, c.logs[0], "logging_test.go:")
}
