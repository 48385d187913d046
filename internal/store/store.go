// Package store is the SQLite-backed persistence layer for users, jobs, and
// per-case results.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/judgehub/judgehub/pkg/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store wraps a SQLite connection pool with typed operations over the
// users/jobs/job_case tables.
type Store struct {
	conn            *sql.DB
	path            string
	log             *slog.Logger
	migrationsTable string
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger          *slog.Logger
	busyTimeout     time.Duration
	maxOpenConns    int
	retryAttempts   int
	retryInterval   time.Duration
	migrationsTable string
}

// WithLogger sets the logger used for migrations and reset operations.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithBusyTimeout sets how long a writer waits on SQLITE_BUSY. Default: 5s.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = d
	}
}

// WithMaxOpenConns bounds the connection pool. Default: 8.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		o.maxOpenConns = n
	}
}

// WithRetry configures connection retry behavior. Default: 3 attempts, 500ms.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithMigrationsTable overrides the goose version-tracking table name.
// Default: "schema_migrations".
func WithMigrationsTable(name string) Option {
	return func(o *options) {
		o.migrationsTable = name
	}
}

// Open connects to the SQLite database at path, applying schema migrations
// and seeding the built-in root user on first run.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := &options{
		busyTimeout:   5 * time.Second,
		maxOpenConns:  8,
		retryAttempts: 3,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	conn, err := db.Open(ctx, path,
		db.WithMigrations(migrations),
		db.WithMigrationsTable(o.migrationsTable),
		db.WithLogger(log),
		db.WithBusyTimeout(o.busyTimeout),
		db.WithMaxOpenConns(o.maxOpenConns),
		db.WithRetry(o.retryAttempts, o.retryInterval),
	)
	if err != nil {
		return nil, err
	}

	return &Store{conn: conn, path: path, log: log, migrationsTable: o.migrationsTable}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Healthcheck returns a closure suitable for judgehub.WithHealthChecks.
func (s *Store) Healthcheck() func(context.Context) error {
	return db.Healthcheck(s.conn)
}

// Reset wipes the database file (and its WAL/SHM sidecars) and reapplies
// migrations from scratch, restoring only the built-in root user. Used by
// the --flush-data CLI flag.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("store: reset: close: %w", err)
	}

	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: reset: remove %s%s: %w", s.path, suffix, err)
		}
	}

	conn, err := db.Open(ctx, s.path,
		db.WithMigrations(migrations),
		db.WithMigrationsTable(s.migrationsTable),
		db.WithLogger(s.log),
	)
	if err != nil {
		return fmt.Errorf("store: reset: reopen: %w", err)
	}

	s.conn = conn
	return nil
}
