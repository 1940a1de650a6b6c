package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS ledger_records (
		address    BYTEA PRIMARY KEY,
		kind       TEXT NOT NULL,
		data       BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ledger_records_kind_idx ON ledger_records (kind)`,
	`CREATE TABLE IF NOT EXISTS ledger_balances (
		address BYTEA PRIMARY KEY,
		amount  NUMERIC(20, 0) NOT NULL CHECK (amount >= 0)
	)`,
}

// Migrate creates the ledger tables. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply ledger migration %d: %w", i+1, err)
		}
	}
	return nil
}
