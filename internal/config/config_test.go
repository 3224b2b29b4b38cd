package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "ALLOWED_ORIGINS", "STORAGE_DRIVER", "SQLITE_PATH",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"GENERATOR_PROVIDER", "USE_CLI_GENERATOR", "MOCK_GENERATOR", "GENERATOR_MODEL",
	"CLAUDE_CLI_PATH", "OPENROUTER_URL", "OPENROUTER_MODEL", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	"AUTH_ENABLED", "TASKVENTURE_AUTH_SECRET", "TOKEN_TTL_HOURS", "TASKVENTURE_SECRET",
	"GENERATOR_TIMEOUT_SECONDS", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "taskventure.db", cfg.Storage.SQLitePath)
	assert.Equal(t, ProviderAnthropic, cfg.Generator.Provider)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 72, cfg.Auth.TokenTTLHours)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "taskventure.yaml")
	yamlDoc := `
server:
  port: "9090"
  allowed_origins: ["http://example.test"]
storage:
  driver: postgres
  postgres:
    host: db.internal
    name: quests
generator:
  provider: openrouter
  model: openai/o1-mini
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://example.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "override.internal", cfg.Storage.Postgres.Host)
	assert.Equal(t, "quests", cfg.Storage.Postgres.Name)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, "5432", cfg.Storage.Postgres.Port)
	assert.Equal(t, ProviderOpenRouter, cfg.Generator.Provider)
	assert.Equal(t, "openai/o1-mini", cfg.Generator.Model)
	assert.Equal(t, "sk-or-test", cfg.Generator.OpenRouterAPIKey)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_LegacyGeneratorToggles(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOCK_GENERATOR", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.Generator.Provider)

	t.Setenv("USE_CLI_GENERATOR", "true")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderCLI, cfg.Generator.Provider)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"non numeric port", func(c *Config) { c.Server.Port = "http" }, "numeric"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "redis" }, "unknown storage driver"},
		{"sqlite without path", func(c *Config) { c.Storage.SQLitePath = "" }, "sqlite_path"},
		{"unknown provider", func(c *Config) { c.Generator.Provider = "gpt" }, "unknown generator provider"},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true }, "TASKVENTURE_AUTH_SECRET"},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTLHours = 0 }, "token_ttl_hours"},
		{"memory driver", func(c *Config) { c.Storage.Driver = DriverMemory }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf)
	logger.Debug("hello", "component", "test")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	buf.Reset()
	logger = LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf)
	logger.Info("dropped")
	assert.Empty(t, buf.String())
}
