package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Data sources for the product and task catalogs.
const (
	DataSourceEmbedded = "embedded"
	DataSourcePostgres = "postgres"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	DataSource string `envconfig:"DATA_SOURCE" default:"embedded"`
	PGDSN      string `envconfig:"PG_DSN"`

	// Empty disables the list cache and the reload channel.
	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	ListCacheTTL        time.Duration `envconfig:"LIST_CACHE_TTL" default:"1m"`
	ListDefaultPageSize int           `envconfig:"LIST_DEFAULT_PAGE_SIZE" default:"25"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	PreferenceCookieSecure bool `envconfig:"PREFERENCE_COOKIE_SECURE" default:"false"`

	// APIBaseURL is where listctl and the warm-up job reach the server.
	APIBaseURL string `envconfig:"API_BASE_URL" default:"http://127.0.0.1:8080"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	switch c.DataSource {
	case DataSourceEmbedded:
	case DataSourcePostgres:
		if c.PGDSN == "" {
			return errors.New("PG_DSN must be provided when DATA_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q", c.DataSource)
	}
	if c.ListDefaultPageSize <= 0 {
		return errors.New("LIST_DEFAULT_PAGE_SIZE must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
