package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "CONDUIT_"

// LoadOptions represents options for loading configuration
type LoadOptions struct {
	Path string
	// Getenv defaults to os.Getenv
	Getenv func(string) string
}

// Load loads configuration from various sources
func Load(opts ...LoadOptions) (*Config, error) {
	cfg := Default()

	var options LoadOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	if options.Getenv == nil {
		options.Getenv = os.Getenv
	}

	if options.Path != "" {
		if err := loadFromFile(cfg, options.Path); err != nil {
			return nil, err
		}
	}

	if err := loadFromEnv(cfg, options.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads configuration from a file
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	return nil
}

// loadFromEnv overrides cfg from CONDUIT_* environment variables
func loadFromEnv(cfg *Config, getenv func(string) string) error {
	env := func(key string) string {
		return getenv(envPrefix + key)
	}

	if host := env("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}

	ints := []struct {
		key   string
		field string
		dst   *int
	}{
		{"SERVER_PORT", "server.port", &cfg.Server.Port},
		{"COMMANDS_MAX_COUNT", "commands.max_count", &cfg.Commands.MaxCount},
		{"COMMANDS_DEFAULT_COUNT", "commands.default_count", &cfg.Commands.DefaultCount},
		{"COMMANDS_RADIUS", "commands.radius", &cfg.Commands.Radius},
	}
	for _, v := range ints {
		raw := env(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return NewConfigError(v.field, fmt.Sprintf("invalid integer %q", raw))
		}
		*v.dst = n
	}

	if target := env("COMMANDS_TARGET"); target != "" {
		cfg.Commands.Target = target
	}

	if command := env("PROCESS_COMMAND"); command != "" {
		cfg.Process.Command = strings.Fields(command)
	}

	if level := env("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := env("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	return nil
}

// Addr returns the host:port the server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a new configuration error
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s': %s", e.Field, e.Message)
}
