package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	for _, level := range []string{"", "bogus"} {
		var buf bytes.Buffer
		logger := newLogger(LogConfig{Level: level}, &buf)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel(), "level %q", level)
	}
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "debug", Format: "console"}, &buf)
	logger.Debug().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
