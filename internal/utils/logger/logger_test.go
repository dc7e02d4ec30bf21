package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("creates with default config", func(t *testing.T) {
		l := New(nil)
		assert.NotNil(t, l)
		assert.NotNil(t, l.Logger)
	})

	t.Run("json format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "json", Output: buf})

		l.Info("payment created", String("order_id", "ord_1"), Int("items", 2))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "payment created", entry["msg"])
		assert.Equal(t, "ord_1", entry["order_id"])
		assert.Equal(t, float64(2), entry["items"])
	})

	t.Run("text and console formats", func(t *testing.T) {
		for _, format := range []string{"text", "console"} {
			buf := &bytes.Buffer{}
			New(&Config{Level: "info", Format: format, Output: buf}).Info("hello")
			assert.Contains(t, buf.String(), "hello")
			assert.False(t, strings.HasPrefix(buf.String(), "{"), format)
		}
	})

	t.Run("level filters", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "warn", Format: "json", Output: buf})

		l.Info("hidden")
		assert.Empty(t, buf.String())
		l.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(&Config{Level: "info", Format: "json", Output: buf}).With("request_id", "req-1")

	l.Error("failed", Err(assert.AnError))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Contains(t, entry["error"], "assert.AnError")
}

func TestLogger_Context(t *testing.T) {
	l := New(&Config{Level: "info", Format: "json", Output: &bytes.Buffer{}})

	ctx := ContextWithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input).String())
		})
	}
}

func TestNewZapLogger(t *testing.T) {
	t.Run("production", func(t *testing.T) {
		l, err := NewZapLogger(&Config{Level: "warning", Format: "json"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("development", func(t *testing.T) {
		l, err := NewZapLogger(&Config{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("defaults", func(t *testing.T) {
		l, err := NewZapLogger(nil)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewZapLogger(&Config{Level: "loud"})
		assert.Error(t, err)
	})
}
