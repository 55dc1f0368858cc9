package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	prevTimeFormat := zerolog.TimeFieldFormat
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		zerolog.TimeFieldFormat = prevTimeFormat
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
}

func TestSetupWriter_JSON(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	require.NoError(t, SetupWriter(LogConfig{Level: "info", Format: "json"}, &buf))

	l := WithComponent("nfse-importer")
	l.Info().Str("file", "a.xml").Msg("Invoice parsed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "nfse-importer", entry["component"])
	assert.Equal(t, "a.xml", entry["file"])
	assert.Equal(t, "Invoice parsed", entry["message"])
}

func TestSetupWriter_LevelFilters(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	require.NoError(t, SetupWriter(LogConfig{Level: "warn", Format: "json"}, &buf))

	l := WithComponent("nfse-importer")
	l.Info().Msg("hidden")
	l.Debug().Msg("hidden")
	l.Warn().Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestSetupWriter_Console(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	require.NoError(t, SetupWriter(LogConfig{Level: "info", Format: "console"}, &buf))
	l := WithBatchID("nfse-importer", "b-1")
	l.Info().Msg("Starting import")

	out := buf.String()
	assert.Contains(t, out, "Starting import")
	assert.Contains(t, out, "batch_id=b-1")
	// Buffers are never terminals.
	assert.NotContains(t, out, "\x1b[")
}

func TestSetupWriter_InvalidLevel(t *testing.T) {
	restoreGlobals(t)
	err := SetupWriter(LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestWithBatchID(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	require.NoError(t, SetupWriter(LogConfig{Level: "debug", Format: "json"}, &buf))

	l := WithBatchID("nfse-importer", "3f1c2a")
	l.Debug().Int("workers", 4).Msg("Starting import")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "nfse-importer", entry["component"])
	assert.Equal(t, "3f1c2a", entry["batch_id"])
	assert.Equal(t, float64(4), entry["workers"])
	assert.Contains(t, entry, "caller")
}
