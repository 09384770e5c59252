// Package database provides PostgreSQL connection management.
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration.
type Config struct {
	// URL, when set, is used as the connection string and the discrete
	// fields below are ignored.
	URL string

	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConfigFromEnv creates a Config from DATABASE_URL or the DB_* variables.
func ConfigFromEnv() (Config, error) {
	var errs []error
	atoi := func(key, def string) int {
		v := getEnvOrDefault(key, def)
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
		}
		return n
	}

	cfg := Config{
		URL:          os.Getenv("DATABASE_URL"),
		Host:         getEnvOrDefault("DB_HOST", "localhost"),
		Port:         atoi("DB_PORT", "5432"),
		User:         getEnvOrDefault("DB_USER", "droproute"),
		Password:     getEnvOrDefault("DB_PASSWORD", "localdev"),
		Database:     getEnvOrDefault("DB_NAME", "droproute"),
		SSLMode:      getEnvOrDefault("DB_SSL_MODE", "disable"),
		MaxOpenConns: atoi("DB_MAX_OPEN_CONNS", "10"),
		MaxIdleConns: atoi("DB_MAX_IDLE_CONNS", "2"),
	}

	lifetime := getEnvOrDefault("DB_CONN_MAX_LIFETIME", "5m")
	d, err := time.ParseDuration(lifetime)
	if err != nil {
		errs = append(errs, fmt.Errorf("DB_CONN_MAX_LIFETIME=%q: %w", lifetime, err))
	}
	cfg.ConnMaxLifetime = d

	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		errs = append(errs, fmt.Errorf("DB_MAX_IDLE_CONNS (%d) exceeds DB_MAX_OPEN_CONNS (%d)", cfg.MaxIdleConns, cfg.MaxOpenConns))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("database config: %w", err)
	}
	return cfg, nil
}

// ConnectionString returns the PostgreSQL connection string. Credentials
// are escaped.
func (c Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect creates a new database connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if cfg.URL == "" || cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // bounded by config
		poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // bounded by config
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
