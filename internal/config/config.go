package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Generator providers.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderCLI        = "cli"
	ProviderMock       = "mock"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Generator GeneratorConfig `yaml:"generator"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StorageConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the lib/pq connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode,
	)
}

type GeneratorConfig struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	CLIPath       string `yaml:"cli_path"`
	OpenRouterURL string `yaml:"openrouter_url"`

	// OpenRouterModel is used instead of Model by the openrouter provider.
	OpenRouterModel string `yaml:"openrouter_model"`

	// TimeoutSeconds bounds a single generation request.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Keys read from the environment. They take precedence over keys saved
	// through the settings endpoint and are never read from the YAML file.
	AnthropicAPIKey  string `yaml:"-"`
	OpenRouterAPIKey string `yaml:"-"`
}

type AuthConfig struct {
	// Enabled requires a bearer token on every /api route.
	Enabled       bool   `yaml:"enabled"`
	TokenSecret   string `yaml:"-"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`

	// CredentialSecret seals provider API keys at rest.
	CredentialSecret string `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "taskventure.db",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "taskventure",
				Password: "taskventure",
				Name:     "taskventure",
				SSLMode:  "disable",
			},
		},
		Generator: GeneratorConfig{
			Provider:        ProviderAnthropic,
			Model:           "claude-sonnet-4-5-20250929",
			CLIPath:         "claude",
			OpenRouterURL:   "https://openrouter.ai/api/v1",
			OpenRouterModel: "openai/o1-mini",
			TimeoutSeconds:  120,
		},
		Auth: AuthConfig{
			TokenTTLHours: 72,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.SQLitePath = getEnv("SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.Postgres.Host = getEnv("DB_HOST", c.Storage.Postgres.Host)
	c.Storage.Postgres.Port = getEnv("DB_PORT", c.Storage.Postgres.Port)
	c.Storage.Postgres.User = getEnv("DB_USER", c.Storage.Postgres.User)
	c.Storage.Postgres.Password = getEnv("DB_PASSWORD", c.Storage.Postgres.Password)
	c.Storage.Postgres.Name = getEnv("DB_NAME", c.Storage.Postgres.Name)
	c.Storage.Postgres.SSLMode = getEnv("DB_SSLMODE", c.Storage.Postgres.SSLMode)

	c.Generator.Provider = getEnv("GENERATOR_PROVIDER", c.Generator.Provider)
	// Older toggles still honored.
	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		c.Generator.Provider = ProviderCLI
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		c.Generator.Provider = ProviderMock
	}
	c.Generator.Model = getEnv("GENERATOR_MODEL", c.Generator.Model)
	c.Generator.CLIPath = getEnv("CLAUDE_CLI_PATH", c.Generator.CLIPath)
	c.Generator.OpenRouterURL = getEnv("OPENROUTER_URL", c.Generator.OpenRouterURL)
	c.Generator.OpenRouterModel = getEnv("OPENROUTER_MODEL", c.Generator.OpenRouterModel)
	if v := os.Getenv("GENERATOR_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Generator.TimeoutSeconds = n
		}
	}
	c.Generator.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.Generator.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")

	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		c.Auth.Enabled, _ = strconv.ParseBool(v)
	}
	c.Auth.TokenSecret = getEnv("TASKVENTURE_AUTH_SECRET", c.Auth.TokenSecret)
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Auth.TokenTTLHours = n
		}
	}
	c.Auth.CredentialSecret = getEnv("TASKVENTURE_SECRET", c.Auth.CredentialSecret)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate checks the configuration before the service starts.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be numeric, got %q", c.Server.Port)
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.Postgres.Host == "" || c.Storage.Postgres.Name == "" {
			return errors.New("postgres host and name are required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Generator.Provider {
	case ProviderAnthropic, ProviderOpenRouter, ProviderMock:
	case ProviderCLI:
		if c.Generator.CLIPath == "" {
			return errors.New("cli_path is required for the cli provider")
		}
	default:
		return fmt.Errorf("unknown generator provider %q", c.Generator.Provider)
	}

	if c.Generator.TimeoutSeconds <= 0 {
		return errors.New("generator timeout_seconds must be positive")
	}

	if c.Auth.Enabled && c.Auth.TokenSecret == "" {
		return errors.New("TASKVENTURE_AUTH_SECRET is required when auth is enabled")
	}
	if c.Auth.TokenTTLHours <= 0 {
		return errors.New("token_ttl_hours must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
