package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// schema creates the ledger tables. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS student_balances (
		id                  BIGSERIAL PRIMARY KEY,
		student_id          TEXT        NOT NULL UNIQUE,
		balance             BIGINT      NOT NULL DEFAULT 0 CHECK (balance >= 0),
		total_deposited     BIGINT      NOT NULL DEFAULT 0 CHECK (total_deposited >= 0),
		total_used          BIGINT      NOT NULL DEFAULT 0 CHECK (total_used >= 0),
		total_sedekah       BIGINT      NOT NULL DEFAULT 0 CHECK (total_sedekah >= 0),
		last_transaction_at TIMESTAMPTZ,
		version             INTEGER     NOT NULL DEFAULT 1,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wadiah_transactions (
		id                  TEXT PRIMARY KEY,
		student_id          TEXT        NOT NULL REFERENCES student_balances (student_id),
		kind                TEXT        NOT NULL CHECK (kind IN ('deposit', 'change_deposit', 'payment', 'refund', 'adjustment', 'sedekah')),
		amount              BIGINT      NOT NULL CHECK (amount > 0),
		balance_before      BIGINT      NOT NULL CHECK (balance_before >= 0),
		balance_after       BIGINT      NOT NULL CHECK (balance_after >= 0),
		order_id            TEXT,
		original_amount     BIGINT,
		rounded_amount      BIGINT,
		rounding_difference BIGINT,
		notes               TEXT        NOT NULL DEFAULT '',
		customer_consent    BOOLEAN     NOT NULL DEFAULT FALSE,
		actor_id            TEXT        NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wadiah_transactions_student_created
		ON wadiah_transactions (student_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS laundry_orders (
		id               TEXT PRIMARY KEY,
		student_id       TEXT        NOT NULL,
		total_price      BIGINT      NOT NULL CHECK (total_price >= 0),
		status           TEXT        NOT NULL DEFAULT 'submitted' CHECK (status IN ('submitted', 'approved', 'paid', 'cancelled')),
		paid_amount      BIGINT      NOT NULL DEFAULT 0,
		change_amount    BIGINT      NOT NULL DEFAULT 0,
		rounding_applied BIGINT      NOT NULL DEFAULT 0,
		wadiah_used      BIGINT      NOT NULL DEFAULT 0,
		payment_method   TEXT,
		paid_at          TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_laundry_orders_student ON laundry_orders (student_id)`,
}

// Migrate applies the schema in a single transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration failed: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration failed: %w", err)
	}
	log.Printf("Database schema up to date (%d statements)", len(schema))
	return nil
}
