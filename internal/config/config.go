package config

import (
	"strings"
	"time"

	"github.com/HMasataka/conduit/internal/logging"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Process  ProcessConfig  `json:"process" yaml:"process"`
	Commands CommandsConfig `json:"commands" yaml:"commands"`
	Logging  logging.Config `json:"logging" yaml:"logging"`
}

// ServerConfig represents the client-facing listener configuration
type ServerConfig struct {
	Host           string        `json:"host" yaml:"host"`
	Port           int           `json:"port" yaml:"port"`
	Path           string        `json:"path" yaml:"path"`
	SendTimeout    time.Duration `json:"send_timeout" yaml:"send_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout"`
	PingInterval   time.Duration `json:"ping_interval" yaml:"ping_interval"`
	MaxMessageSize int64         `json:"max_message_size" yaml:"max_message_size"`
}

// ProcessConfig describes how the child process is launched
type ProcessConfig struct {
	Command        []string      `json:"command" yaml:"command"`
	Dir            string        `json:"dir,omitempty" yaml:"dir,omitempty"`
	TerminateGrace time.Duration `json:"terminate_grace" yaml:"terminate_grace"`
}

// CommandsConfig bounds the request types the interpreter expands
type CommandsConfig struct {
	Target       string `json:"target" yaml:"target"`
	MaxCount     int    `json:"max_count" yaml:"max_count"`
	DefaultCount int    `json:"default_count" yaml:"default_count"`
	Radius       int    `json:"radius" yaml:"radius"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8765,
			Path:           "/ws",
			SendTimeout:    5 * time.Second,
			ReadTimeout:    60 * time.Second,
			WriteTimeout:   10 * time.Second,
			PingInterval:   30 * time.Second,
			MaxMessageSize: 64 * 1024,
		},
		Process: ProcessConfig{
			Command:        []string{"./start.sh"},
			TerminateGrace: 10 * time.Second,
		},
		Commands: CommandsConfig{
			Target:       "RhamzThev",
			MaxCount:     100,
			DefaultCount: 4,
			Radius:       5,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigError("server.port", "invalid port number")
	}

	if !strings.HasPrefix(c.Server.Path, "/") {
		return NewConfigError("server.path", "path must start with /")
	}

	if c.Server.SendTimeout <= 0 {
		return NewConfigError("server.send_timeout", "timeout must be positive")
	}

	if c.Server.ReadTimeout < 0 {
		return NewConfigError("server.read_timeout", "timeout cannot be negative")
	}

	if c.Server.WriteTimeout < 0 {
		return NewConfigError("server.write_timeout", "timeout cannot be negative")
	}

	if c.Server.PingInterval < 0 {
		return NewConfigError("server.ping_interval", "interval cannot be negative")
	}

	if c.Server.ReadTimeout > 0 && c.Server.PingInterval >= c.Server.ReadTimeout {
		return NewConfigError("server.ping_interval", "interval must be shorter than read_timeout")
	}

	if len(c.Process.Command) == 0 || c.Process.Command[0] == "" {
		return NewConfigError("process.command", "command is required")
	}

	if c.Commands.Target == "" {
		return NewConfigError("commands.target", "target is required")
	}

	if c.Commands.MaxCount < 1 {
		return NewConfigError("commands.max_count", "must be at least 1")
	}

	if c.Commands.DefaultCount < 1 || c.Commands.DefaultCount > c.Commands.MaxCount {
		return NewConfigError("commands.default_count", "must be between 1 and max_count")
	}

	if c.Commands.Radius < 1 {
		return NewConfigError("commands.radius", "must be at least 1")
	}

	return nil
}
