package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the full server configuration, loaded from environment variables.
type Config struct {
	// HTTP server
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`

	// Logging
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	LogPath     string `envconfig:"LOG_PATH" default:""`

	// AI generation tiers, attempted in order. The primary and secondary tiers
	// speak the OpenAI chat API (OpenRouter-compatible); the tertiary tier is a
	// local Ollama instance that stays reachable when the hosted tiers are down.
	AIPrimaryBaseURL   string `envconfig:"AI_PRIMARY_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIPrimaryModel     string `envconfig:"AI_PRIMARY_MODEL" default:"deepseek/deepseek-chat:free"`
	AIPrimaryAPIKey    string `envconfig:"AI_PRIMARY_API_KEY"`
	AISecondaryBaseURL string `envconfig:"AI_SECONDARY_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AISecondaryModel   string `envconfig:"AI_SECONDARY_MODEL" default:"deepseek/deepseek-chat"`
	AISecondaryAPIKey  string `envconfig:"AI_SECONDARY_API_KEY"`
	AIOllamaBaseURL    string `envconfig:"AI_OLLAMA_BASE_URL" default:"http://localhost:11434"`
	AIOllamaModel      string `envconfig:"AI_OLLAMA_MODEL" default:"llama3.1"`

	AITimeout time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string        `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"dreamweaver_db"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`

	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"internal/database/migrations"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetMaskedDSN returns the DSN with the password replaced, for logging.
func (c *Config) GetMaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}
