package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

func (t *pgTx) AppendAudit(ctx context.Context, e types.AuditEntry) (int64, error) {
	var details []byte
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return 0, fmt.Errorf("AppendAudit details: %w", err)
		}
		details = b
	}

	var id int64
	err := t.tx.QueryRow(ctx, `
INSERT INTO audit_log(request_id, visitor_id, action, performed_by, reason, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		e.RequestID, e.VisitorID, string(e.Action), e.PerformedBy, e.Reason, details, e.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("AppendAudit: %w", err)
	}
	return id, nil
}

func (t *pgTx) ListAudit(ctx context.Context, af store.AuditFilter) ([]types.AuditEntry, error) {
	var f filter
	if af.VisitorID != 0 {
		f.add("visitor_id = ?", af.VisitorID)
	}
	if af.RequestID != 0 {
		f.add("request_id = ?", af.RequestID)
	}
	where := f.where()
	page := f.page(af.Limit, af.Offset)

	rows, err := t.tx.Query(ctx, `
SELECT id, request_id, visitor_id, action, performed_by, reason, details, created_at
FROM audit_log`+where+`
ORDER BY created_at, id`+page, f.args...)
	if err != nil {
		return nil, fmt.Errorf("ListAudit: %w", err)
	}
	defer rows.Close()

	out := make([]types.AuditEntry, 0)
	for rows.Next() {
		var (
			e       types.AuditEntry
			action  string
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.VisitorID, &action, &e.PerformedBy, &e.Reason, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListAudit scan: %w", err)
		}
		if details != nil {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("audit %d details: %w", e.ID, err)
			}
		}
		e.Action = types.AuditAction(action)
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
