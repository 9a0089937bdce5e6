package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLoggerRecordsEntries(t *testing.T) {
	log := NewTestLogger()
	log.Info("hello %s", "world")
	log.Error("boom")

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Severity)
	assert.Equal(t, "hello %s", entries[0].Message)
	assert.Equal(t, "ERROR", entries[1].Severity)
}

func TestTestLoggerDerivedLoggersShareEntries(t *testing.T) {
	log := NewTestLogger()
	child := log.With(map[string]interface{}{"component": "bus"})
	child.Warn("dropped")
	child.WithPrefix("[sub]").Error("boom")

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Severity)
	assert.Equal(t, "ERROR", entries[1].Severity)
}

func TestJSONLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, LevelDebug).With(map[string]interface{}{"component": "test"})
	log.Info("count=%d", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "count=3", entry["message"])
	assert.Equal(t, "test", entry["component"])
}

func TestJSONLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, LevelWarn)
	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())
	log.Warn("visible")
	assert.NotZero(t, buf.Len())
}

func TestJSONLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, LevelDebug).WithPrefix("[engine]")
	log.Info("ready")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "[engine] ready", entry["message"])
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("CACHEKIT_LOG_LEVEL", "error")
	assert.Equal(t, LevelError, GetLevelFromEnv())
	t.Setenv("CACHEKIT_LOG_LEVEL", "nonsense")
	assert.Equal(t, LevelInfo, GetLevelFromEnv())
}
