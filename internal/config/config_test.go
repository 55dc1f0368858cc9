package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"HOME_MUNICIPALITY_CODE", "HOME_MUNICIPALITY_NAME", "BATCH_WORKERS", "IMPORT_LIMIT",
	"STATE_DIR", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_TEMPERATURE",
	"GOOGLE_SHEET_URL", "GOOGLE_SHEET_WORKSHEET",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
}

// clearEnv blanks every key; getEnv treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3301009", cfg.HomeMunicipalityCode)
	assert.Equal(t, "Campos dos Goytacazes", cfg.HomeMunicipalityName)
	assert.Equal(t, 4, cfg.BatchWorkers)
	assert.Equal(t, 3, cfg.ImportLimit)
	assert.Equal(t, filepath.Join(home, ".fiscampos"), cfg.StateDir)
	assert.Equal(t, filepath.Join(home, ".fiscampos", "state.toml"), cfg.StatePath())
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.InDelta(t, 0.7, cfg.OpenAITemperature, 0.0001)
	assert.Equal(t, "NFSe", cfg.GoogleSheetWorksheet)
	assert.Empty(t, cfg.OpenAIAPIKey)
	assert.Equal(t, "stderr", cfg.LogOutput)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	stateDir := t.TempDir()
	t.Setenv("HOME_MUNICIPALITY_CODE", "3304557")
	t.Setenv("HOME_MUNICIPALITY_NAME", "Rio de Janeiro")
	t.Setenv("BATCH_WORKERS", "8")
	t.Setenv("IMPORT_LIMIT", "0")
	t.Setenv("STATE_DIR", stateDir)
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3304557", cfg.HomeMunicipalityCode)
	assert.Equal(t, "Rio de Janeiro", cfg.HomeMunicipalityName)
	assert.Equal(t, 8, cfg.BatchWorkers)
	assert.Equal(t, 0, cfg.ImportLimit)
	assert.Equal(t, stateDir, cfg.StateDir)
	assert.InDelta(t, 0.2, cfg.OpenAITemperature, 0.0001)

	logCfg := cfg.GetLoggerConfig()
	assert.Equal(t, "json", logCfg.Format)
	assert.Equal(t, "info", logCfg.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"HOME_MUNICIPALITY_CODE", "Campos"},
		{"HOME_MUNICIPALITY_CODE", "330100"},
		{"BATCH_WORKERS", "zero"},
		{"BATCH_WORKERS", "0"},
		{"IMPORT_LIMIT", "-1"},
		{"OPENAI_TEMPERATURE", "hot"},
		{"OPENAI_TEMPERATURE", "3"},
		{"LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/fiscampos", expandHome("/var/lib/fiscampos"))
	assert.Equal(t, filepath.Join(home, "state"), expandHome("~/state"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}
