package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewJSONOutputForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf})

	logger.Info().Str("mode", "tariff").Msg("started")
	logger.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "started", entry["message"])
	assert.Equal(t, "tariff", entry["mode"])
	assert.Equal(t, "info", entry["level"])
}

func TestPrintfLogger(t *testing.T) {
	var buf bytes.Buffer
	p := Printf(New(Config{Level: "warn", Output: &buf, Format: "json"}))

	p.Info("ignored %d", 1)
	p.Warn("repeats %d keys", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "repeats 3 keys", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestPrintfLoggerKeepsPercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	p := Printf(New(Config{Output: &buf, Format: "json"}))

	p.Info("100% done")
	assert.Contains(t, buf.String(), "100% done")
}
