// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/ghosttype/internal/config"
)

// initBuffered resets the singleton and routes console output into a buffer.
func initBuffered(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize_ConsoleFormat(t *testing.T) {
	buf := initBuffered(t, config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "test-service",
	})

	GetLogger().Info("console message", zap.String("key", "value"))

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "console message")
	assert.Contains(t, out, "test-service.")
}

func TestInitialize_JSONFormat(t *testing.T) {
	buf := initBuffered(t, config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "json-service",
	})

	GetLogger().Warn("json message", zap.String("key", "value"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be valid JSON")
	assert.Equal(t, "json message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestInitialize_LevelFiltering(t *testing.T) {
	buf := initBuffered(t, config.LoggerConfig{
		Level:       "warn",
		Format:      "json",
		ServiceName: "filtered",
	})

	logger := GetLogger()
	logger.Info("should be dropped")
	logger.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be dropped")
	assert.Contains(t, out, "should appear")
}

func TestInitialize_BadLevelFallsBackToInfo(t *testing.T) {
	buf := initBuffered(t, config.LoggerConfig{
		Level:       "shouting",
		Format:      "json",
		ServiceName: "fallback",
	})

	logger := GetLogger()
	logger.Debug("debug is below info")
	logger.Info("info passes")

	out := buf.String()
	assert.NotContains(t, out, "debug is below info")
	assert.Contains(t, out, "info passes")
}

func TestInitialize_OnlyOnce(t *testing.T) {
	buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})

	// A second Initialize must be a no-op until ResetForTest.
	var other bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, zapcore.AddSync(&other))

	GetLogger().Info("routed to the first writer")
	assert.Contains(t, buf.String(), "routed to the first writer")
	assert.Empty(t, other.String())
}

func TestGetLogger_FallbackBeforeInit(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
}
