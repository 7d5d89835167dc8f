package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

const visitorColumns = `id, name, phone, email, id_number, institution, purpose,
  host_name, unit, photo_ref, signature_ref, status,
  check_in_at, check_out_at, checked_in_by, checkout_by,
  deleted_at, deleted_by, updated_at`

func scanVisitor(row rowScanner) (types.Visitor, error) {
	var (
		v          types.Visitor
		status     string
		checkoutBy *string
		deletedBy  *string
	)
	if err := row.Scan(
		&v.ID, &v.Name, &v.Phone, &v.Email, &v.IDNumber, &v.Institution, &v.Purpose,
		&v.HostName, &v.Unit, &v.PhotoRef, &v.SignatureRef, &status,
		&v.CheckInTime, &v.CheckOutTime, &v.CheckedInBy, &checkoutBy,
		&v.DeletedAt, &deletedBy, &v.UpdatedAt,
	); err != nil {
		return types.Visitor{}, err
	}
	v.Status = types.VisitorStatus(status)
	v.CheckInTime = v.CheckInTime.UTC()
	v.CheckOutTime = utcPtr(v.CheckOutTime)
	v.DeletedAt = utcPtr(v.DeletedAt)
	v.UpdatedAt = v.UpdatedAt.UTC()
	v.CheckoutBy = deref(checkoutBy)
	v.DeletedBy = deref(deletedBy)
	return v, nil
}

func (t *pgTx) GetVisitor(ctx context.Context, id int64) (types.Visitor, error) {
	q := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`
	if t.write {
		// READ COMMITTED: the lock makes a concurrent writer wait and then
		// read the committed row instead of a stale one.
		q += ` FOR UPDATE`
	}
	v, err := scanVisitor(t.tx.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Visitor{}, store.ErrNotFound
	}
	if err != nil {
		return types.Visitor{}, fmt.Errorf("GetVisitor: %w", err)
	}
	return v, nil
}

func (t *pgTx) InsertVisitor(ctx context.Context, v types.Visitor) (int64, error) {
	args := []any{
		v.Name, v.Phone, v.Email, v.IDNumber, v.Institution, v.Purpose,
		v.HostName, v.Unit, v.PhotoRef, v.SignatureRef, string(v.Status),
		v.CheckInTime, v.CheckOutTime, v.CheckedInBy, nullString(v.CheckoutBy),
		v.DeletedAt, nullString(v.DeletedBy), v.UpdatedAt,
	}
	if v.ID == 0 {
		var id int64
		err := t.tx.QueryRow(ctx, `
INSERT INTO visitors(name, phone, email, id_number, institution, purpose,
  host_name, unit, photo_ref, signature_ref, status,
  check_in_at, check_out_at, checked_in_by, checkout_by,
  deleted_at, deleted_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING id`, args...).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("InsertVisitor: %w", err)
		}
		return id, nil
	}

	if _, err := t.tx.Exec(ctx, `
INSERT INTO visitors(`+visitorColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		append([]any{v.ID}, args...)...); err != nil {
		return 0, fmt.Errorf("InsertVisitor: %w", err)
	}
	// Keep the identity ahead of explicitly chosen ids.
	if _, err := t.tx.Exec(ctx,
		`SELECT setval(pg_get_serial_sequence('visitors', 'id'), GREATEST((SELECT max(id) FROM visitors), 1))`); err != nil {
		return 0, fmt.Errorf("InsertVisitor sequence: %w", err)
	}
	return v.ID, nil
}

func (t *pgTx) UpdateVisitor(ctx context.Context, v types.Visitor) error {
	tag, err := t.tx.Exec(ctx, `
UPDATE visitors
SET name = $2, phone = $3, email = $4, id_number = $5, institution = $6, purpose = $7,
    host_name = $8, unit = $9, photo_ref = $10, signature_ref = $11, status = $12,
    check_in_at = $13, check_out_at = $14, checked_in_by = $15, checkout_by = $16,
    deleted_at = $17, deleted_by = $18, updated_at = $19
WHERE id = $1`,
		v.ID, v.Name, v.Phone, v.Email, v.IDNumber, v.Institution, v.Purpose,
		v.HostName, v.Unit, v.PhotoRef, v.SignatureRef, string(v.Status),
		v.CheckInTime, v.CheckOutTime, v.CheckedInBy, nullString(v.CheckoutBy),
		v.DeletedAt, nullString(v.DeletedBy), v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("UpdateVisitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) ListVisitors(ctx context.Context, vf store.VisitorFilter) ([]types.Visitor, error) {
	var f filter
	if !vf.IncludeDeleted {
		f.conds = append(f.conds, "deleted_at IS NULL")
	}
	if vf.Status != "" {
		f.add("status = ?", string(vf.Status))
	}
	if vf.Query != "" {
		f.add(`(name ILIKE ? ESCAPE '\' OR institution ILIKE ? ESCAPE '\' OR host_name ILIKE ? ESCAPE '\')`,
			store.ContainsPattern(vf.Query))
	}
	where := f.where()
	page := f.page(vf.Limit, vf.Offset)

	rows, err := t.tx.Query(ctx, `SELECT `+visitorColumns+` FROM visitors`+where+` ORDER BY id`+page, f.args...)
	if err != nil {
		return nil, fmt.Errorf("ListVisitors: %w", err)
	}
	defer rows.Close()

	out := make([]types.Visitor, 0)
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("ListVisitors scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
