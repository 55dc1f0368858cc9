package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"fiscampos/internal/logger"
)

// IBGE municipality codes have seven digits.
var municipalityCodePattern = regexp.MustCompile(`^[0-9]{7}$`)

type Config struct {
	// Home municipality
	HomeMunicipalityCode string
	HomeMunicipalityName string

	// Import
	BatchWorkers int
	ImportLimit  int
	StateDir     string

	// OpenAI Configuration
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float32

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment. Nothing is required:
// feature-specific settings such as OPENAI_API_KEY are checked when used.
func Load() (*Config, error) {
	var errs []string

	config := &Config{
		HomeMunicipalityCode: getEnv("HOME_MUNICIPALITY_CODE", "3301009"),
		HomeMunicipalityName: getEnv("HOME_MUNICIPALITY_NAME", "Campos dos Goytacazes"),
		BatchWorkers:         getEnvInt("BATCH_WORKERS", 4, &errs),
		ImportLimit:          getEnvInt("IMPORT_LIMIT", 3, &errs),
		StateDir:             expandHome(getEnv("STATE_DIR", "~/.fiscampos")),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature:    getEnvFloat32("OPENAI_TEMPERATURE", 0.7, &errs),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "NFSe"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if !municipalityCodePattern.MatchString(c.HomeMunicipalityCode) {
		return fmt.Errorf("HOME_MUNICIPALITY_CODE must be a 7-digit IBGE code, got %q", c.HomeMunicipalityCode)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", c.BatchWorkers)
	}
	if c.ImportLimit < 0 {
		return fmt.Errorf("IMPORT_LIMIT must not be negative, got %d", c.ImportLimit)
	}
	if c.OpenAITemperature < 0 || c.OpenAITemperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2, got %g", c.OpenAITemperature)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// StatePath returns the path of the persisted quota state.
func (c *Config) StatePath() string {
	return filepath.Join(c.StateDir, "state.toml")
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]string) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return n
}

func getEnvFloat32(key string, defaultValue float32, errs *[]string) float32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be a number, got %q", key, value))
		return defaultValue
	}
	return float32(f)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
