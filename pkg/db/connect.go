package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Option configures database connection.
type Option func(*options)

type options struct {
	migrations      *embed.FS
	migrationsTable string
	logger          *slog.Logger
	busyTimeout     time.Duration
	maxOpenConns    int
	retryAttempts   int
	retryInterval   time.Duration
}

func defaultOptions() *options {
	return &options{
		busyTimeout:   5 * time.Second,
		maxOpenConns:  8,
		retryAttempts: 3,
		retryInterval: 500 * time.Millisecond,
	}
}

// WithMigrations enables automatic migrations using embedded SQL files.
func WithMigrations(fs embed.FS) Option {
	return func(o *options) {
		o.migrations = &fs
	}
}

// WithMigrationsTable overrides the table goose uses to track applied
// migration versions. Default: "schema_migrations".
func WithMigrationsTable(name string) Option {
	return func(o *options) {
		o.migrationsTable = name
	}
}

// WithLogger sets the logger for migrations and connection events.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithBusyTimeout sets how long a writer waits on SQLITE_BUSY.
// Default: 5 seconds.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = d
	}
}

// WithMaxOpenConns bounds the connection pool.
// Default: 8.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		o.maxOpenConns = n
	}
}

// WithRetry configures connection retry behavior.
// Default: 3 attempts, 500ms interval.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// Open creates a SQLite connection pool with WAL journaling, a busy timeout,
// and foreign keys enabled. Supports optional embedded migrations.
//
// Example:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	conn, err := db.Open(ctx, "/var/lib/judgehub/judgehub.db",
//	    db.WithMigrations(migrations),
//	    db.WithLogger(log),
//	)
func Open(ctx context.Context, path string, opts ...Option) (*sql.DB, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on", path, o.busyTimeout.Milliseconds())

	conn, err := connect(ctx, dsn, o.retryAttempts, o.retryInterval)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(o.maxOpenConns)

	if o.migrations != nil {
		if err := Migrate(ctx, conn, *o.migrations, o.migrationsTable, o.logger); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// MustOpen creates a connection pool or exits on failure.
// Use for simple applications where startup failure is fatal.
func MustOpen(ctx context.Context, path string, opts ...Option) *sql.DB {
	conn, err := Open(ctx, path, opts...)
	if err != nil {
		slog.Error("failed to open database connection", "error", err)
		os.Exit(1)
	}
	return conn
}

// connect opens the database and retries on a cold/locked file.
func connect(ctx context.Context, dsn string, attempts int, interval time.Duration) (*sql.DB, error) {
	attempts = max(attempts, 1)

	var lastErr error
	for i := range attempts {
		conn, err := sql.Open("sqlite3", dsn)
		if err != nil {
			lastErr = err
		} else if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			lastErr = err
		} else {
			return conn, nil
		}

		if waitErr := wait(ctx, time.Duration(i+1)*interval); waitErr != nil {
			return nil, errors.Join(ErrFailedToOpenDBConnection, waitErr)
		}
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
