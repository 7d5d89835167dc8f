package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Operator is recorded as checked_in_by on the sample visitor.
	Operator string
}

// SeedDev inserts one checked-in sample visitor with its check-in audit
// entry. Running it again is a no-op.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	if opt.Operator == "" {
		opt.Operator = "dev-seed"
	}
	now := time.Now().UTC().UnixMilli()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO visitors(
  id, name, institution, purpose, host_name, unit,
  status, check_in_at_ms, checked_in_by, updated_at_ms
) VALUES (1, 'Sample Visitor', 'Dev', 'Seed data', 'Front Desk', 'Lobby',
  'checked_in', ?, ?, ?);`, now, opt.Operator, now)
	if err != nil {
		return fmt.Errorf("seed visitors: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO audit_log(visitor_id, action, performed_by, created_at_ms)
VALUES (1, 'checked_in', ?, ?);`, opt.Operator, now); err != nil {
		return fmt.Errorf("seed audit_log: %w", err)
	}

	return tx.Commit()
}
