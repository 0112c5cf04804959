// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string `env:"ENV" envDefault:"development"`

	// Port is the HTTP listen port (default: 8080).
	Port int `env:"PORT" envDefault:"8080"`

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`

	// TrustedProxies lists CIDRs whose X-Forwarded-For / X-Real-IP headers
	// are believed when resolving the client IP.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16"`

	// Backend holds settings for the remote mailing REST API.
	Backend BackendConfig

	// Database holds MariaDB connection settings for the audit log.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds operator authentication settings.
	Auth AuthConfig

	// Upload holds contact import settings.
	Upload UploadConfig

	// Wizard holds campaign wizard settings.
	Wizard WizardConfig

	// Cache holds list cache settings.
	Cache CacheConfig

	// Telemetry holds tracing and error-reporting settings.
	Telemetry TelemetryConfig
}

// BackendConfig describes how to reach the mailing backend.
type BackendConfig struct {
	// URL is the API base including the /api prefix.
	URL string `env:"BACKEND_URL" envDefault:"http://localhost:5000/api"`

	// JWTSecret, when set, signs a short-lived bearer token on every call.
	JWTSecret string `env:"BACKEND_JWT_SECRET"`

	// PageSize is the list page size used by the contact and campaign views.
	PageSize int `env:"BACKEND_PAGE_SIZE" envDefault:"10"`
}

// DatabaseConfig holds MariaDB connection parameters. The audit log is
// optional: when Host is empty the console runs without it.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format. If no port is
	// specified, 3306 is appended automatically.
	Host string `env:"DB_HOST"`

	// User is the MariaDB username (default: "mailroom").
	User string `env:"DB_USER" envDefault:"mailroom"`

	// Password is the MariaDB password (default: "mailroom").
	Password string `env:"DB_PASSWORD" envDefault:"mailroom"`

	// Name is the database name (default: "mailroom").
	Name string `env:"DB_NAME" envDefault:"mailroom"`

	// DSNOverride is set when DATABASE_URL is provided, bypassing individual fields.
	DSNOverride string `env:"DATABASE_URL"`

	// MigrationsPath is the directory holding *.up.sql files.
	MigrationsPath string `env:"DB_MIGRATIONS_PATH" envDefault:"db/migrations"`

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// Enabled reports whether an audit database was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != "" || d.DSNOverride != ""
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.DSNOverride != "" {
		return d.DSNOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
}

// AuthConfig holds operator authentication settings. The console has a
// single configured operator account; there is no user table.
type AuthConfig struct {
	// SecretKey keys the CSRF cookie. Must be 32+ bytes in production.
	SecretKey string `env:"SECRET_KEY"`

	// OperatorEmail is the login name of the console operator.
	OperatorEmail string `env:"OPERATOR_EMAIL" envDefault:"operator@localhost"`

	// OperatorName is shown in the top bar and recorded in the audit log.
	OperatorName string `env:"OPERATOR_NAME" envDefault:"Operator"`

	// OperatorPasswordHash is an argon2id PHC string
	// ($argon2id$v=19$m=...,t=...,p=...$salt$hash).
	OperatorPasswordHash string `env:"OPERATOR_PASSWORD_HASH"`

	// SessionTTL is how long sessions last before expiring.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

// UploadConfig holds contact import settings.
type UploadConfig struct {
	// MaxSize is the maximum import file size in bytes (5 MiB).
	MaxSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"5242880"`

	// AllowedExtensions lists the accepted import file extensions.
	AllowedExtensions []string `env:"UPLOAD_EXTENSIONS" envSeparator:"," envDefault:".csv,.xls,.xlsx"`
}

// WizardConfig holds campaign wizard settings.
type WizardConfig struct {
	// DraftTTL is how long an abandoned draft survives in Redis.
	DraftTTL time.Duration `env:"WIZARD_DRAFT_TTL" envDefault:"2h"`

	// ScheduleDays is how many calendar days the schedule step offers.
	ScheduleDays int `env:"WIZARD_SCHEDULE_DAYS" envDefault:"31"`
}

// CacheConfig holds list cache settings.
type CacheConfig struct {
	// TTL bounds how stale a cached template or contact list page may be.
	// Zero disables caching. Campaign lists are never cached.
	TTL time.Duration `env:"LIST_CACHE_TTL" envDefault:"10s"`
}

// TelemetryConfig holds tracing and error-reporting settings. Both are
// opt-in and disabled when their endpoint is empty.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP/HTTP traces endpoint URL.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	// ServiceName is reported as the tracing resource name.
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"mailroom"`

	// SentryDSN enables Sentry reporting of 5xx errors.
	SentryDSN string `env:"SENTRY_DSN"`
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present; real
// environment variables always win. Returns an error if required variables
// are missing.
func Load() (*Config, error) {
	// Missing .env is the normal case in containers.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// validate checks cross-field requirements. Production is strict about
// secrets; every environment needs a usable backend URL and page size.
func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.Backend.PageSize < 1 {
		return fmt.Errorf("BACKEND_PAGE_SIZE must be positive")
	}
	if c.Upload.MaxSize < 1 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	for i, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.AllowedExtensions[i] = ext
	}

	// Case-insensitive check catches common variants like "Production", "prod".
	if c.IsProduction() {
		if c.Auth.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(c.Auth.SecretKey) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
		if c.Auth.OperatorPasswordHash == "" {
			return fmt.Errorf("OPERATOR_PASSWORD_HASH is required in production")
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}
