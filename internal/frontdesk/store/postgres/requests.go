package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

const requestColumns = `id, visitor_id, type, status, original_data, proposed_data,
  reason, requested_by, requested_by_role, processed_by, processed_at,
  rejection_reason, created_at`

func scanRequest(row rowScanner) (types.ChangeRequest, error) {
	var (
		r           types.ChangeRequest
		typ, status string
		original    []byte
		proposed    []byte
		processedBy *string
		rejection   *string
	)
	if err := row.Scan(
		&r.ID, &r.VisitorID, &typ, &status, &original, &proposed,
		&r.Reason, &r.RequestedBy, &r.RequestedByRole, &processedBy, &r.ProcessedAt,
		&rejection, &r.CreatedAt,
	); err != nil {
		return types.ChangeRequest{}, err
	}
	if err := json.Unmarshal(original, &r.OriginalData); err != nil {
		return types.ChangeRequest{}, fmt.Errorf("request %d original_data: %w", r.ID, err)
	}
	if proposed != nil {
		var p types.VisitorPatch
		if err := json.Unmarshal(proposed, &p); err != nil {
			return types.ChangeRequest{}, fmt.Errorf("request %d proposed_data: %w", r.ID, err)
		}
		r.ProposedData = &p
	}
	r.Type = types.RequestType(typ)
	r.Status = types.RequestStatus(status)
	r.ProcessedBy = deref(processedBy)
	r.ProcessedAt = utcPtr(r.ProcessedAt)
	r.RejectionReason = deref(rejection)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func (t *pgTx) InsertRequest(ctx context.Context, r types.ChangeRequest) (int64, error) {
	original, err := json.Marshal(r.OriginalData)
	if err != nil {
		return 0, fmt.Errorf("InsertRequest original_data: %w", err)
	}
	var proposed []byte
	if r.ProposedData != nil {
		if proposed, err = json.Marshal(r.ProposedData); err != nil {
			return 0, fmt.Errorf("InsertRequest proposed_data: %w", err)
		}
	}

	var id int64
	err = t.tx.QueryRow(ctx, `
INSERT INTO change_requests(
  visitor_id, type, status, original_data, proposed_data,
  reason, requested_by, requested_by_role, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`,
		r.VisitorID, string(r.Type), string(r.Status), original, proposed,
		r.Reason, r.RequestedBy, r.RequestedByRole, r.CreatedAt,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, store.ErrDuplicatePending
	}
	if err != nil {
		return 0, fmt.Errorf("InsertRequest: %w", err)
	}
	return id, nil
}

func (t *pgTx) GetRequest(ctx context.Context, id int64) (types.ChangeRequest, error) {
	r, err := scanRequest(t.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM change_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.ChangeRequest{}, store.ErrNotFound
	}
	if err != nil {
		return types.ChangeRequest{}, fmt.Errorf("GetRequest: %w", err)
	}
	return r, nil
}

func (t *pgTx) ListRequests(ctx context.Context, rf store.RequestFilter) ([]types.ChangeRequest, error) {
	var f filter
	if rf.VisitorID != 0 {
		f.add("visitor_id = ?", rf.VisitorID)
	}
	if rf.Type != "" {
		f.add("type = ?", string(rf.Type))
	}
	if rf.Status != "" {
		f.add("status = ?", string(rf.Status))
	}
	where := f.where()
	page := f.page(rf.Limit, rf.Offset)

	rows, err := t.tx.Query(ctx, `SELECT `+requestColumns+` FROM change_requests`+where+` ORDER BY id`+page, f.args...)
	if err != nil {
		return nil, fmt.Errorf("ListRequests: %w", err)
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

func (t *pgTx) ResolveRequest(ctx context.Context, r types.ChangeRequest) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
UPDATE change_requests
SET status = $2, processed_by = $3, processed_at = $4, rejection_reason = $5
WHERE id = $1 AND status = 'pending'`,
		r.ID, string(r.Status), nullString(r.ProcessedBy), r.ProcessedAt, nullString(r.RejectionReason),
	)
	if err != nil {
		return false, fmt.Errorf("ResolveRequest: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
