package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

func (t *sqlTx) AppendAudit(ctx context.Context, e types.AuditEntry) (int64, error) {
	var details any
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return 0, fmt.Errorf("AppendAudit details: %w", err)
		}
		details = string(b)
	}

	res, err := t.tx.ExecContext(ctx, `
INSERT INTO audit_log(request_id, visitor_id, action, performed_by, reason, details, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
		nullInt64(e.RequestID), nullInt64(e.VisitorID), string(e.Action),
		e.PerformedBy, e.Reason, details, toMs(e.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("AppendAudit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("AppendAudit id: %w", err)
	}
	return id, nil
}

func (t *sqlTx) ListAudit(ctx context.Context, f store.AuditFilter) ([]types.AuditEntry, error) {
	var conds []string
	var args []any
	if f.VisitorID != 0 {
		conds = append(conds, "visitor_id = ?")
		args = append(args, f.VisitorID)
	}
	if f.RequestID != 0 {
		conds = append(conds, "request_id = ?")
		args = append(args, f.RequestID)
	}
	limit, pageArgs := pageClause(f.Limit, f.Offset)
	args = append(args, pageArgs...)

	rows, err := t.tx.QueryContext(ctx, `
SELECT id, request_id, visitor_id, action, performed_by, reason, details, created_at_ms
FROM audit_log`+where(conds)+`
ORDER BY created_at_ms, id`+limit+`;`, args...)
	if err != nil {
		return nil, fmt.Errorf("ListAudit query: %w", err)
	}
	defer rows.Close()

	out := make([]types.AuditEntry, 0)
	for rows.Next() {
		var (
			e         types.AuditEntry
			action    string
			requestID sql.NullInt64
			visitorID sql.NullInt64
			details   sql.NullString
			created   int64
		)
		if err := rows.Scan(&e.ID, &requestID, &visitorID, &action, &e.PerformedBy, &e.Reason, &details, &created); err != nil {
			return nil, fmt.Errorf("ListAudit scan: %w", err)
		}
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("audit %d details: %w", e.ID, err)
			}
		}
		e.RequestID = int64Ptr(requestID)
		e.VisitorID = int64Ptr(visitorID)
		e.Action = types.AuditAction(action)
		e.CreatedAt = fromMs(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
