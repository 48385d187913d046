package db

import (
	"context"
	"database/sql"
)

// Shutdown returns a function that gracefully closes the database connection pool.
// Use with judgehub.ShutdownHook().
//
// Example:
//
//	app.Run(addr, judgehub.ShutdownHook(db.Shutdown(conn)))
func Shutdown(conn *sql.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return conn.Close()
	}
}
