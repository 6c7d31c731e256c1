package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the querier shared by *sql.DB and *sql.Tx.  Repositories are
// constructed over a DBTX so the same code serves both direct calls and
// calls inside a transaction; the mysqlstore unit-of-work rebinds a full
// repository set onto a transaction when an operation needs atomicity.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dateOnly formats a timestamp as the DATE literal used in comparisons
// against DATE columns and DATE(start_at) expressions.  All dates in the
// schema are calendar dates in the gym's operating timezone, stored as UTC.
func dateOnly(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// nullableID adapts an optional foreign key for driver args.
func nullableID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

// nullableString adapts an optional text column for driver args.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
