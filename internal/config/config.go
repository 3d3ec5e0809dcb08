// Package config loads service configuration from environment variables,
// falling back to local-development defaults.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported values of DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the full service configuration.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	Driver        string `env:"DB_DRIVER" envDefault:"postgres"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	WebDir        string `env:"WEB_DIR" envDefault:"./web"`

	Postgres Postgres
	SQLite   SQLite
	Tx       Tx
	Tracing  Tracing
}

// Postgres holds PostgreSQL connection settings.
type Postgres struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"campus_events"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"20"`
}

// SQLite holds the embedded database settings.
type SQLite struct {
	Path string `env:"SQLITE_PATH" envDefault:"campus_events.db"`
}

// Tx bounds every unit of work.
type Tx struct {
	Timeout     time.Duration `env:"TX_TIMEOUT" envDefault:"5s"`
	MaxAttempts uint          `env:"TX_MAX_ATTEMPTS" envDefault:"3"`
}

// Tracing configures the OpenTelemetry exporter.
type Tracing struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Exporter     string  `env:"TRACING_EXPORTER" envDefault:"stdout"`
	OTLPEndpoint string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
	ServiceName  string  `env:"SERVICE_NAME" envDefault:"campus-events"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Driver)
	}
	if c.Tx.MaxAttempts == 0 {
		return fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1")
	}
	if c.Tx.Timeout <= 0 {
		return fmt.Errorf("TX_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.AdminPassword) == "" {
		return fmt.Errorf("ADMIN_PASSWORD must not be empty")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DSN builds a libpq-compatible connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// MigrationURL builds the golang-migrate pgx/v5 URL for the same database.
func (p Postgres) MigrationURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + p.Port,
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// MigrationURL builds the golang-migrate sqlite URL for the database file.
func (s SQLite) MigrationURL() string {
	return "sqlite://" + s.Path
}
