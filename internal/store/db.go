package store

import (
	"context"
	"database/sql"
)

// DBTX is the minimal query surface the stores need. Both *sql.DB and
// *sql.Tx satisfy it, so a store bound via WithTx runs the same SQL
// inside a transaction without any code changes.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
