// Package config provides configuration loading and validation for the editor.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that reads "30s"-style strings or integer seconds from JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds")
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config represents the editor configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults.
type Config struct {
	// Server
	Port int `json:"port,omitempty"`

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty uses DataDir
	DocumentID  string `json:"document_id,omitempty"`  // Key of the persisted document
	DataDir     string `json:"data_dir,omitempty"`     // Directory for file-backed persistence

	// Engine
	AutosaveInterval         Duration `json:"autosave_interval,omitempty"`
	HistoryLimit             int      `json:"history_limit,omitempty"` // 0 keeps every entry
	MaxConcurrentGenerations int      `json:"max_concurrent_generations,omitempty"`
	AutoCaptureVersions      bool     `json:"auto_capture_versions,omitempty"`

	// Behavior
	APIKey  string `json:"api_key,omitempty"` // Gemini API key
	LogMode string `json:"log_mode,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                     8080,
		DocumentID:               "default",
		DataDir:                  "data",
		AutosaveInterval:         Duration(30 * time.Second),
		MaxConcurrentGenerations: 4,
		LogMode:                  "development",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields with environment variables that are set. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strVars := map[string]*string{
		"DATABASE_URL":   &c.DatabaseURL,
		"DOCUMENT_ID":    &c.DocumentID,
		"DATA_DIR":       &c.DataDir,
		"GEMINI_API_KEY": &c.APIKey,
		"LOG_MODE":       &c.LogMode,
	}
	for name, field := range strVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*field = v
		}
	}

	intVars := map[string]*int{
		"PORT":                       &c.Port,
		"HISTORY_LIMIT":              &c.HistoryLimit,
		"MAX_CONCURRENT_GENERATIONS": &c.MaxConcurrentGenerations,
	}
	for name, field := range intVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config error: %s must be an integer: %w", name, err)
			}
			*field = n
		}
	}

	if v := strings.TrimSpace(getenv("AUTOSAVE_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: AUTOSAVE_INTERVAL: %w", err)
		}
		c.AutosaveInterval = Duration(d)
	}
	if v := strings.TrimSpace(getenv("AUTO_CAPTURE_VERSIONS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config error: AUTO_CAPTURE_VERSIONS: %w", err)
		}
		c.AutoCaptureVersions = b
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("config error: 'history_limit' must be non-negative")
	}
	if c.MaxConcurrentGenerations < 0 {
		return fmt.Errorf("config error: 'max_concurrent_generations' must be non-negative")
	}
	if c.AutosaveInterval != 0 && time.Duration(c.AutosaveInterval) < time.Second {
		return fmt.Errorf("config error: 'autosave_interval' must be at least 1s")
	}
	if strings.TrimSpace(c.DocumentID) == "" {
		return fmt.Errorf("config error: 'document_id' is required")
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.DocumentID == "" {
		result.DocumentID = defaults.DocumentID
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.AutosaveInterval == 0 {
		result.AutosaveInterval = defaults.AutosaveInterval
	}
	if result.HistoryLimit == 0 {
		result.HistoryLimit = defaults.HistoryLimit
	}
	if result.MaxConcurrentGenerations == 0 {
		result.MaxConcurrentGenerations = defaults.MaxConcurrentGenerations
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
