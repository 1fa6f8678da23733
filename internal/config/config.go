// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinJWTSecretLength is the minimum required length for the JWT signing
// secret. HS256 keys shorter than 32 bytes are trivially brute-forceable.
const MinJWTSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string        `env:"RSVP_DB_PATH" envDefault:"./data/rsvp.db"`
	JWTSecret  string        `env:"RSVP_JWT_SECRET,required"`
	TokenTTL   time.Duration `env:"RSVP_TOKEN_TTL" envDefault:"1h"`
	ServerHost string        `env:"RSVP_SERVER_HOST" envDefault:"localhost"`
	ServerPort int           `env:"RSVP_SERVER_PORT" envDefault:"8080"`
	Env        string        `env:"RSVP_ENV" envDefault:"development"`
	LogLevel   string        `env:"RSVP_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL string `env:"RSVP_REDIS_URL"`                 // Optional Redis URL for the listing cache
	CacheTTL int    `env:"RSVP_CACHE_TTL" envDefault:"30"` // Listing cache TTL in seconds

	// Transactional mail configuration (Brevo-compatible HTTP API).
	// Mail is disabled when the API key is empty.
	MailAPIURL  string `env:"RSVP_MAIL_API_URL" envDefault:"https://api.brevo.com/v3/smtp/email"`
	MailAPIKey  string `env:"RSVP_MAIL_API_KEY"`
	MailSender  string `env:"RSVP_MAIL_SENDER" envDefault:"noreply@example.com"`
	MailWorkers int    `env:"RSVP_MAIL_WORKERS" envDefault:"3"`

	// Seeding configuration
	DoSeed bool `env:"RSVP_DO_SEED" envDefault:"false"` // Enable default admin seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MailEnabled returns true if the transactional mail API is configured.
func (c Config) MailEnabled() bool {
	return c.MailAPIKey != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("RSVP_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("RSVP_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("RSVP_TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}

	return cfg, nil
}
