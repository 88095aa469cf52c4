package uptask

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Session SessionConfig
	SMTP    SMTPConfig

	// FrontendURL is embedded in outbound emails so links land on the
	// right client.
	FrontendURL string

	// CORSOrigins is the comma separated allow list for browser clients.
	CORSOrigins string

	LogLevel string
	Debug    bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ShutdownTimeout time.Duration
}

// Addr returns the host:port bind address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	// DSN is the sqlite data source, "file::memory:?cache=shared" for an
	// in-memory database.
	DSN string

	// DeterministicIDs derives new account ids from the registration email
	// so seeded environments keep stable identifiers across rebuilds.
	DeterministicIDs bool
}

// SessionConfig holds session credential settings.
type SessionConfig struct {
	SigningKey string
	TTL        time.Duration
	Issuer     string
	Audience   []string

	// TokenTTL is the lifetime of the emailed verification codes.
	TokenTTL time.Duration

	// ReapSchedule is the cron expression for purging expired codes.
	ReapSchedule string
}

// SMTPConfig holds outbound email settings. An empty Host disables
// delivery and the app falls back to a logging mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("UPTASK_HOST", "0.0.0.0"),
			Port:            getEnv("UPTASK_PORT", "4000"),
			ShutdownTimeout: getEnvDuration("UPTASK_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			DSN:              getEnv("UPTASK_DATABASE_DSN", "file:uptask.db?cache=shared"),
			DeterministicIDs: getEnvBool("UPTASK_DETERMINISTIC_IDS", false),
		},
		Session: SessionConfig{
			SigningKey:   getEnv("UPTASK_JWT_SECRET", ""),
			TTL:          getEnvDuration("UPTASK_SESSION_TTL", 180*24*time.Hour),
			Issuer:       getEnv("UPTASK_JWT_ISSUER", "uptask"),
			Audience:     splitList(getEnv("UPTASK_JWT_AUDIENCE", "uptask-client")),
			TokenTTL:     getEnvDuration("UPTASK_TOKEN_TTL", TokenTTL),
			ReapSchedule: getEnv("UPTASK_TOKEN_REAP_SCHEDULE", "@every 10m"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("UPTASK_SMTP_HOST", ""),
			Port:     getEnvInt("UPTASK_SMTP_PORT", 587),
			Username: getEnv("UPTASK_SMTP_USER", ""),
			Password: getEnv("UPTASK_SMTP_PASS", ""),
			From:     getEnv("UPTASK_SMTP_FROM", "UpTask <admin@uptask.dev>"),
		},
		FrontendURL: getEnv("UPTASK_FRONTEND_URL", "http://localhost:5173"),
		CORSOrigins: getEnv("UPTASK_CORS_ORIGINS", "http://localhost:5173"),
		LogLevel:    getEnv("UPTASK_LOG_LEVEL", "info"),
		Debug:       getEnvBool("UPTASK_DEBUG", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.Session.SigningKey == "" {
		return fmt.Errorf("UPTASK_JWT_SECRET is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Session.TokenTTL <= 0 {
		return fmt.Errorf("verification token TTL must be positive")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return fmt.Errorf("SMTP sender address is required when SMTP host is set")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
