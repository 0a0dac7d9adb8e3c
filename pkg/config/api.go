package config

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultListen is the default API listen address.
	DefaultListen = ":8080"

	// DefaultIndexInterval is how often the indexer checks for a new
	// snapshot when none is configured.
	DefaultIndexInterval = 5 * time.Minute

	// DefaultPublicRequestsPerMinute limits read requests per client IP.
	DefaultPublicRequestsPerMinute = 600

	// DefaultReloadRequestsPerMinute limits reload requests per client IP.
	DefaultReloadRequestsPerMinute = 10
)

// APIConfig contains all API server configuration.
type APIConfig struct {
	Server   APIServerConfig    `yaml:"server" mapstructure:"server"`
	Auth     APIAuthConfig      `yaml:"auth" mapstructure:"auth"`
	Indexing *APIIndexingConfig `yaml:"indexing,omitempty" mapstructure:"indexing"`
}

// APIServerConfig contains HTTP server settings.
type APIServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
	Metrics     bool            `yaml:"metrics" mapstructure:"metrics"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Public  RateLimitTier `yaml:"public,omitempty" mapstructure:"public"`
	Reload  RateLimitTier `yaml:"reload,omitempty" mapstructure:"reload"`
}

// RateLimitTier defines request limits for a specific tier.
type RateLimitTier struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// APIAuthConfig contains authentication settings for mutating endpoints.
type APIAuthConfig struct {
	Basic BasicAuthConfig `yaml:"basic,omitempty" mapstructure:"basic"`
}

// BasicAuthConfig configures username/password authentication for the
// reload endpoint.
type BasicAuthConfig struct {
	Enabled bool            `yaml:"enabled" mapstructure:"enabled"`
	Users   []BasicAuthUser `yaml:"users,omitempty" mapstructure:"users"`
}

// BasicAuthUser defines a basic auth user. PasswordHash is a bcrypt hash,
// e.g. generated with `htpasswd -bnBC 10 "" password`.
type BasicAuthUser struct {
	Username     string `yaml:"username" mapstructure:"username"`
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash"`
}

// APIIndexingConfig configures the background indexer that persists
// snapshots of the loaded run records into a database.
type APIIndexingConfig struct {
	Enabled  bool              `yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration     `yaml:"interval,omitempty" mapstructure:"interval"`
	Database APIDatabaseConfig `yaml:"database" mapstructure:"database"`
}

// APIDatabaseConfig contains database connection settings.
type APIDatabaseConfig struct {
	Driver   string               `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteDatabaseConfig `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig       `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteDatabaseConfig contains SQLite-specific settings.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
}

// IndexingEnabled reports whether the indexer should run.
func (c *APIConfig) IndexingEnabled() bool {
	return c.Indexing != nil && c.Indexing.Enabled
}

func (c *APIConfig) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	if c.Server.RateLimit.Public.RequestsPerMinute <= 0 {
		c.Server.RateLimit.Public.RequestsPerMinute = DefaultPublicRequestsPerMinute
	}

	if c.Server.RateLimit.Reload.RequestsPerMinute <= 0 {
		c.Server.RateLimit.Reload.RequestsPerMinute = DefaultReloadRequestsPerMinute
	}

	if c.Indexing != nil {
		if c.Indexing.Interval <= 0 {
			c.Indexing.Interval = DefaultIndexInterval
		}

		if c.Indexing.Database.Driver == "" {
			c.Indexing.Database.Driver = "sqlite"
		}

		if c.Indexing.Database.Postgres.Port == 0 {
			c.Indexing.Database.Postgres.Port = 5432
		}

		if c.Indexing.Database.Postgres.SSLMode == "" {
			c.Indexing.Database.Postgres.SSLMode = "disable"
		}
	}
}

// Validate checks the API configuration for errors.
func (c *APIConfig) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	if c.Auth.Basic.Enabled {
		if len(c.Auth.Basic.Users) == 0 {
			return fmt.Errorf("auth.basic: at least one user is required when enabled")
		}

		seen := make(map[string]struct{}, len(c.Auth.Basic.Users))

		for i, u := range c.Auth.Basic.Users {
			if u.Username == "" {
				return fmt.Errorf("auth.basic.users[%d]: username is required", i)
			}

			if _, ok := seen[u.Username]; ok {
				return fmt.Errorf("auth.basic.users[%d]: duplicate username %q", i, u.Username)
			}

			seen[u.Username] = struct{}{}

			if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
				return fmt.Errorf(
					"auth.basic.users[%d]: password_hash is not a bcrypt hash: %w", i, err,
				)
			}
		}
	}

	if c.IndexingEnabled() {
		if err := c.Indexing.Database.Validate(); err != nil {
			return fmt.Errorf("indexing.database: %w", err)
		}
	}

	return nil
}

// Validate checks the database configuration for errors.
func (c *APIDatabaseConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required")
		}
	case "postgres":
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres.host is required")
		}

		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres.database is required")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}

	return nil
}
