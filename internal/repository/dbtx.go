package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by write paths that may run inside
// the apply transaction. Satisfied by both *sql.DB and *sql.Tx; callers pass
// the bare DB when the store cannot open a transaction (degraded mode).
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
