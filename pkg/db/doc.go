// Package db provides SQLite database utilities for the judging service.
//
// This package wraps [database/sql] with the [github.com/mattn/go-sqlite3]
// driver to provide connection setup, health checks, and database migrations
// with sensible defaults for a single-node deployment.
//
// # Features
//
//   - WAL journaling, busy-timeout, and foreign-key enforcement via DSN pragmas
//   - Automatic retry logic during startup
//   - Health check function compatible with standard health check interfaces
//   - Database migrations using [github.com/pressly/goose/v3]
//
// # Configuration
//
// Settings are loaded from environment variables via [Config]:
//
//	DATABASE_PATH               - SQLite database file path (default: judgehub.db)
//	DATABASE_MIGRATIONS_TABLE   - Migrations table name (default: schema_migrations)
//	DATABASE_BUSY_TIMEOUT       - SQLite busy timeout (default: 5s)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 500ms)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 8)
//
// # Usage
//
// Basic connection setup with functional options:
//
//	import (
//		"context"
//		"log"
//
//		"github.com/judgehub/judgehub/pkg/db"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		conn, err := db.Open(ctx, "/var/lib/judgehub/judgehub.db",
//			db.WithMigrations(migrationsFS),
//			db.WithMaxOpenConns(8),
//		)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer conn.Close()
//	}
//
// # Transactions
//
// The [WithTx] helper provides automatic transaction management with rollback on error:
//
//	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
//		_, err := tx.ExecContext(ctx, "UPDATE jobs SET state = ? WHERE id = ?", "Running", id)
//		return err
//	})
//
// # Migrations
//
// Run database migrations using embedded SQL files:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	err := db.Migrate(ctx, conn, migrations, "schema_migrations", logger)
//
// # Error Handling
//
// The package defines sentinel errors for common failure modes:
//
//   - [ErrFailedToOpenDBConnection] - Connection failed after all retries
//   - [ErrHealthcheckFailed] - Database ping failed
//   - [ErrSetDialect] - Migration dialect configuration error
//   - [ErrApplyMigrations] - Migration execution failed
//
// Errors are wrapped using [errors.Join] to preserve the original error context.
package db
