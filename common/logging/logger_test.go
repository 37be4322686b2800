package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-watch/common/middleware"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestNewWithWriter_Formats(t *testing.T) {
	var buf bytes.Buffer
	New(slog.LevelInfo, "json").Info("smoke")

	NewWithWriter(&buf, slog.LevelInfo, "json").Info("hello", Tenant("acme"))
	entry := decodeLine(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "acme", entry[FieldTenant])

	buf.Reset()
	NewWithWriter(&buf, slog.LevelInfo, "TEXT").Info("hello", Tenant("acme"))
	assert.Contains(t, buf.String(), "tenant=acme")
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn, "json")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Equal(t, "kept", decodeLine(t, &buf)["msg"])
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelDebug, "json")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	logger.InfoContext(ctx, "with id")
	assert.Equal(t, "req-42", decodeLine(t, &buf)[FieldRequestID])

	buf.Reset()
	logger.DebugContext(context.Background(), "without id")
	_, ok := decodeLine(t, &buf)[FieldRequestID]
	assert.False(t, ok)
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json").With(Service("alerting"))

	logger.With(FieldComponent, "summary").Info("tagged")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "alerting", entry[FieldService])
	assert.Equal(t, "summary", entry[FieldComponent])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(NewWithWriter(&buf, slog.LevelInfo, "text"))
	slog.Info("via default")
	assert.True(t, strings.Contains(buf.String(), "via default"))
}
