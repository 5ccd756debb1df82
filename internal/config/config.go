package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned by Validate when no text-generation API key is configured.
var ErrMissingCredential = errors.New("GEMINI_API_KEY is not set")

// Config holds all nlsql configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP surface
	Server ServerConfig `yaml:"server"`

	// Text-generation service
	LLM LLMConfig `yaml:"llm"`

	// Read-only relational dataset
	Database DatabaseConfig `yaml:"database"`

	// Schema description embedded in prompts
	Schema SchemaConfig `yaml:"schema"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener and page rendering.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	TemplateDir     string `yaml:"template_dir"`     // empty = embedded templates
	ReloadTemplates bool   `yaml:"reload_templates"` // watch TemplateDir for changes
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MetricsEnabled  bool   `yaml:"metrics_enabled"`
}

// LLMConfig configures the translator's text-generation backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	RowLimit int    `yaml:"row_limit"` // default LIMIT suggested to the model

	Timeout    string `yaml:"timeout"`     // per attempt, e.g. "30s"; empty or "0" = no local deadline
	MaxRetries *int   `yaml:"max_retries"` // nil or 0 = single attempt
}

// DatabaseConfig configures the dataset connection.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite (modernc) or sqlite3 (mattn, cgo)
	Path   string `yaml:"path"`
}

// SchemaConfig points at an optional YAML schema description.
type SchemaConfig struct {
	Path string `yaml:"path"` // empty = built-in airline schema
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "nlsql",
		Version: "0.3.0",

		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: "10s",
			MetricsEnabled:  true,
		},

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			RowLimit: 20,
		},

		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./data.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if model := os.Getenv("NLSQL_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if path := os.Getenv("NLSQL_DB"); path != "" {
		c.Database.Path = path
	}
	if driver := os.Getenv("NLSQL_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}

	// NLSQL_ADDR wins over PORT
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("NLSQL_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if dir := os.Getenv("NLSQL_TEMPLATES"); dir != "" {
		c.Server.TemplateDir = dir
	}

	if level := os.Getenv("NLSQL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetRowLimit returns the default row limit suggested to the model.
func (c *Config) GetRowLimit() int {
	if c.LLM.RowLimit <= 0 {
		return 20
	}
	return c.LLM.RowLimit
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini"}

// ValidDrivers lists the database/sql drivers the dataset can be opened with.
var ValidDrivers = []string{"sqlite", "sqlite3"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return ErrMissingCredential
	}

	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path not configured (set database.path or NLSQL_DB)")
	}

	if !contains(ValidDrivers, c.Database.Driver) {
		return fmt.Errorf("invalid database driver: %s (valid: %v)", c.Database.Driver, ValidDrivers)
	}

	if c.Server.ReloadTemplates && c.Server.TemplateDir == "" {
		return fmt.Errorf("server.reload_templates requires server.template_dir")
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
