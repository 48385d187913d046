package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// Default migration settings.
const (
	defaultMigrationsDir   = "migrations"
	defaultMigrationsTable = "schema_migrations"
)

// Migrate runs database migrations using the embedded SQL files, tracking
// applied versions in table (defaultMigrationsTable if empty).
// Pass nil for log to disable migration logging.
func Migrate(ctx context.Context, conn *sql.DB, migrations embed.FS, table string, log *slog.Logger) error {
	if table == "" {
		table = defaultMigrationsTable
	}

	goose.SetBaseFS(migrations)
	goose.SetTableName(table)

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	goose.SetLogger(&gooseLoggerAdapter{log})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, conn, defaultMigrationsDir); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	// Log at error level only - goose will return an error that propagates up.
	// We avoid os.Exit(1) to allow proper shutdown and cleanup.
	g.log.Error(fmt.Sprintf(format, args...))
}
