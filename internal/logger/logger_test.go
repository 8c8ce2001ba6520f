package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel(" warning "))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestJSONFormatTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "api", "info", "json")
	log.Info("hello", slog.String("task_id", "t-1"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "api", rec["service"])
	require.Equal(t, "t-1", rec["task_id"])
	require.Equal(t, "hello", rec["msg"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "worker", "warn", "text")
	log.Info("dropped")
	require.Empty(t, buf.String())
	log.Warn("kept")
	require.Contains(t, buf.String(), "service=worker")
}

func TestNewCLILevelOverridesEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	log := NewCLI(&buf, "docctl", "error")
	log.Warn("dropped")
	require.Empty(t, buf.String())

	buf.Reset()
	NewCLI(&buf, "docctl", "").Debug("kept")
	require.Contains(t, buf.String(), "service=docctl")
}
