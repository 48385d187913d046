package db

import (
	"os"
	"strconv"
	"time"
)

// Config holds SQLite connection parameters, loaded from environment
// variables for deployment convenience.
type Config struct {
	// Path to the SQLite database file. ":memory:" is accepted for tests.
	Path string

	// MigrationsTable names the schema-migrations bookkeeping table.
	MigrationsTable string

	// BusyTimeout controls how long a writer waits on SQLITE_BUSY before
	// failing. SQLite allows exactly one writer at a time; a generous
	// timeout lets concurrent workers queue instead of erroring out.
	BusyTimeout time.Duration

	// RetryAttempts/RetryInterval handle a database file that isn't ready
	// yet (e.g. on a cold NFS mount).
	RetryAttempts int
	RetryInterval time.Duration

	// MaxOpenConns bounds the connection pool. SQLite serializes writers
	// regardless, but a small pool lets reads run concurrently with WAL.
	MaxOpenConns int
}

// LoadConfig reads Config from the environment, applying the same defaults
// Open's Options use when the corresponding variable is unset or malformed.
//
//	DATABASE_PATH              - SQLite file path (default "judgehub.db")
//	DATABASE_MIGRATIONS_TABLE  - default "schema_migrations"
//	DATABASE_BUSY_TIMEOUT      - default "5s"
//	DATABASE_RETRY_ATTEMPTS    - default "3"
//	DATABASE_RETRY_INTERVAL    - default "500ms"
//	DATABASE_MAX_OPEN_CONNS    - default "8"
func LoadConfig() Config {
	o := defaultOptions()
	return Config{
		Path:            envOr("DATABASE_PATH", "judgehub.db"),
		MigrationsTable: envOr("DATABASE_MIGRATIONS_TABLE", "schema_migrations"),
		BusyTimeout:     envDuration("DATABASE_BUSY_TIMEOUT", o.busyTimeout),
		RetryAttempts:   envInt("DATABASE_RETRY_ATTEMPTS", o.retryAttempts),
		RetryInterval:   envDuration("DATABASE_RETRY_INTERVAL", o.retryInterval),
		MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", o.maxOpenConns),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
