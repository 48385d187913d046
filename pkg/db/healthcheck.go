package db

import (
	"context"
	"database/sql"
	"errors"
)

// Healthcheck returns a closure that validates database connectivity for health endpoints.
// Compatible with standard health check interfaces that expect func(context.Context) error.
func Healthcheck(conn *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if conn == nil {
			return ErrHealthcheckFailed
		}
		if err := conn.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
