package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

const requestColumns = `id, visitor_id, type, status, original_data, proposed_data,
  reason, requested_by, requested_by_role, processed_by, processed_at_ms,
  rejection_reason, created_at_ms`

func scanRequest(row scanner) (types.ChangeRequest, error) {
	var (
		r           types.ChangeRequest
		typ, status string
		original    string
		proposed    sql.NullString
		processedBy sql.NullString
		processedAt sql.NullInt64
		rejection   sql.NullString
		created     int64
	)
	if err := row.Scan(
		&r.ID, &r.VisitorID, &typ, &status, &original, &proposed,
		&r.Reason, &r.RequestedBy, &r.RequestedByRole, &processedBy, &processedAt,
		&rejection, &created,
	); err != nil {
		return types.ChangeRequest{}, err
	}
	if err := json.Unmarshal([]byte(original), &r.OriginalData); err != nil {
		return types.ChangeRequest{}, fmt.Errorf("request %d original_data: %w", r.ID, err)
	}
	if proposed.Valid {
		var p types.VisitorPatch
		if err := json.Unmarshal([]byte(proposed.String), &p); err != nil {
			return types.ChangeRequest{}, fmt.Errorf("request %d proposed_data: %w", r.ID, err)
		}
		r.ProposedData = &p
	}
	r.Type = types.RequestType(typ)
	r.Status = types.RequestStatus(status)
	r.ProcessedBy = processedBy.String
	r.ProcessedAt = timePtr(processedAt)
	r.RejectionReason = rejection.String
	r.CreatedAt = fromMs(created)
	return r, nil
}

func (t *sqlTx) InsertRequest(ctx context.Context, r types.ChangeRequest) (int64, error) {
	original, err := json.Marshal(r.OriginalData)
	if err != nil {
		return 0, fmt.Errorf("InsertRequest original_data: %w", err)
	}
	var proposed any
	if r.ProposedData != nil {
		b, err := json.Marshal(r.ProposedData)
		if err != nil {
			return 0, fmt.Errorf("InsertRequest proposed_data: %w", err)
		}
		proposed = string(b)
	}

	res, err := t.tx.ExecContext(ctx, `
INSERT INTO change_requests(
  visitor_id, type, status, original_data, proposed_data,
  reason, requested_by, requested_by_role, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.VisitorID, string(r.Type), string(r.Status), string(original), proposed,
		r.Reason, r.RequestedBy, r.RequestedByRole, toMs(r.CreatedAt),
	)
	if isUniqueViolation(err) {
		return 0, store.ErrDuplicatePending
	}
	if err != nil {
		return 0, fmt.Errorf("InsertRequest: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("InsertRequest id: %w", err)
	}
	return id, nil
}

func (t *sqlTx) GetRequest(ctx context.Context, id int64) (types.ChangeRequest, error) {
	r, err := scanRequest(t.tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM change_requests WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.ChangeRequest{}, store.ErrNotFound
	}
	if err != nil {
		return types.ChangeRequest{}, fmt.Errorf("GetRequest: %w", err)
	}
	return r, nil
}

func (t *sqlTx) ListRequests(ctx context.Context, f store.RequestFilter) ([]types.ChangeRequest, error) {
	var conds []string
	var args []any
	if f.VisitorID != 0 {
		conds = append(conds, "visitor_id = ?")
		args = append(args, f.VisitorID)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	limit, pageArgs := pageClause(f.Limit, f.Offset)
	args = append(args, pageArgs...)

	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM change_requests`+where(conds)+` ORDER BY id`+limit+`;`, args...)
	if err != nil {
		return nil, fmt.Errorf("ListRequests query: %w", err)
	}
	defer rows.Close()

	out := make([]types.ChangeRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRequests scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *sqlTx) ResolveRequest(ctx context.Context, r types.ChangeRequest) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
UPDATE change_requests
SET status = ?, processed_by = ?, processed_at_ms = ?, rejection_reason = ?
WHERE id = ? AND status = 'pending';`,
		string(r.Status), nullString(r.ProcessedBy), nullMs(r.ProcessedAt), nullString(r.RejectionReason),
		r.ID,
	)
	if err != nil {
		return false, fmt.Errorf("ResolveRequest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ResolveRequest rows: %w", err)
	}
	return n == 1, nil
}
