package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.Commands.MaxCount)
	assert.Equal(t, 4, cfg.Commands.DefaultCount)
	assert.Equal(t, 5, cfg.Commands.Radius)
	assert.Equal(t, "localhost:8765", cfg.Addr())
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  send_timeout: 3s
process:
  command: ["java", "-jar", "server.jar", "nogui"]
commands:
  target: Steve
  max_count: 50
logging:
  level: debug
`), 0o600))

	cfg, err := Load(LoadOptions{Path: path, Getenv: noEnv})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.SendTimeout)
	assert.Equal(t, []string{"java", "-jar", "server.jar", "nogui"}, cfg.Process.Command)
	assert.Equal(t, "Steve", cfg.Commands.Target)
	assert.Equal(t, 50, cfg.Commands.MaxCount)
	assert.Equal(t, 5, cfg.Commands.Radius)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"commands":{"radius":8}}`), 0o600))

	cfg, err := Load(LoadOptions{Path: path, Getenv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Commands.Radius)
}

func TestLoad_JSONDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "server": {"port": 9001, "send_timeout": "3s", "ping_interval": 15000000000},
  "process": {"terminate_grace": "1m30s"}
}`), 0o600))

	cfg, err := Load(LoadOptions{Path: path, Getenv: noEnv})
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.SendTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.PingInterval)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout, "unset fields keep defaults")
	assert.Equal(t, "/ws", cfg.Server.Path)
	assert.Equal(t, 90*time.Second, cfg.Process.TerminateGrace)
	assert.Equal(t, []string{"./start.sh"}, cfg.Process.Command)
}

func TestLoad_JSONInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"send_timeout": "soon"}}`), 0o600))

	_, err := Load(LoadOptions{Path: path, Getenv: noEnv})
	require.ErrorContains(t, err, "invalid duration")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.toml")
	require.NoError(t, os.WriteFile(path, []byte(`x = 1`), 0o600))

	_, err := Load(LoadOptions{Path: path, Getenv: noEnv})
	require.ErrorContains(t, err, "unsupported config file format")
}

func TestLoad_EnvOverrides(t *testing.T) {
	env := map[string]string{
		"CONDUIT_SERVER_PORT":        "7000",
		"CONDUIT_PROCESS_COMMAND":    "./run.sh --fast",
		"CONDUIT_COMMANDS_MAX_COUNT": "20",
		"CONDUIT_LOG_FORMAT":         "json",
	}

	cfg, err := Load(LoadOptions{Getenv: func(k string) string { return env[k] }})
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{"./run.sh", "--fast"}, cfg.Process.Command)
	assert.Equal(t, 20, cfg.Commands.MaxCount)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvInvalidInteger(t *testing.T) {
	_, err := Load(LoadOptions{Getenv: func(k string) string {
		if k == "CONDUIT_COMMANDS_RADIUS" {
			return "wide"
		}
		return ""
	}})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "commands.radius", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"path", func(c *Config) { c.Server.Path = "ws" }, "server.path"},
		{"send timeout", func(c *Config) { c.Server.SendTimeout = 0 }, "server.send_timeout"},
		{"ping", func(c *Config) { c.Server.PingInterval = time.Hour }, "server.ping_interval"},
		{"command", func(c *Config) { c.Process.Command = nil }, "process.command"},
		{"target", func(c *Config) { c.Commands.Target = "" }, "commands.target"},
		{"max", func(c *Config) { c.Commands.MaxCount = 0 }, "commands.max_count"},
		{"default above max", func(c *Config) { c.Commands.DefaultCount = 101 }, "commands.default_count"},
		{"radius", func(c *Config) { c.Commands.Radius = 0 }, "commands.radius"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			var cfgErr *ConfigError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
