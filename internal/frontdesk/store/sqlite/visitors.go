package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

const visitorColumns = `id, name, phone, email, id_number, institution, purpose,
  host_name, unit, photo_ref, signature_ref, status,
  check_in_at_ms, check_out_at_ms, checked_in_by, checkout_by,
  deleted_at_ms, deleted_by, updated_at_ms`

func scanVisitor(row scanner) (types.Visitor, error) {
	var (
		v          types.Visitor
		status     string
		checkIn    int64
		updated    int64
		checkOut   sql.NullInt64
		deletedAt  sql.NullInt64
		checkoutBy sql.NullString
		deletedBy  sql.NullString
	)
	if err := row.Scan(
		&v.ID, &v.Name, &v.Phone, &v.Email, &v.IDNumber, &v.Institution, &v.Purpose,
		&v.HostName, &v.Unit, &v.PhotoRef, &v.SignatureRef, &status,
		&checkIn, &checkOut, &v.CheckedInBy, &checkoutBy,
		&deletedAt, &deletedBy, &updated,
	); err != nil {
		return types.Visitor{}, err
	}
	v.Status = types.VisitorStatus(status)
	v.CheckInTime = fromMs(checkIn)
	v.CheckOutTime = timePtr(checkOut)
	v.CheckoutBy = checkoutBy.String
	v.DeletedAt = timePtr(deletedAt)
	v.DeletedBy = deletedBy.String
	v.UpdatedAt = fromMs(updated)
	return v, nil
}

func (t *sqlTx) GetVisitor(ctx context.Context, id int64) (types.Visitor, error) {
	v, err := scanVisitor(t.tx.QueryRowContext(ctx,
		`SELECT `+visitorColumns+` FROM visitors WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Visitor{}, store.ErrNotFound
	}
	if err != nil {
		return types.Visitor{}, fmt.Errorf("GetVisitor query: %w", err)
	}
	return v, nil
}

func (t *sqlTx) InsertVisitor(ctx context.Context, v types.Visitor) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
INSERT INTO visitors(`+visitorColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		nullID(v.ID), v.Name, v.Phone, v.Email, v.IDNumber, v.Institution, v.Purpose,
		v.HostName, v.Unit, v.PhotoRef, v.SignatureRef, string(v.Status),
		toMs(v.CheckInTime), nullMs(v.CheckOutTime), v.CheckedInBy, nullString(v.CheckoutBy),
		nullMs(v.DeletedAt), nullString(v.DeletedBy), toMs(v.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("InsertVisitor: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("InsertVisitor id: %w", err)
	}
	return id, nil
}

func (t *sqlTx) UpdateVisitor(ctx context.Context, v types.Visitor) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE visitors
SET name = ?, phone = ?, email = ?, id_number = ?, institution = ?, purpose = ?,
    host_name = ?, unit = ?, photo_ref = ?, signature_ref = ?, status = ?,
    check_in_at_ms = ?, check_out_at_ms = ?, checked_in_by = ?, checkout_by = ?,
    deleted_at_ms = ?, deleted_by = ?, updated_at_ms = ?
WHERE id = ?;`,
		v.Name, v.Phone, v.Email, v.IDNumber, v.Institution, v.Purpose,
		v.HostName, v.Unit, v.PhotoRef, v.SignatureRef, string(v.Status),
		toMs(v.CheckInTime), nullMs(v.CheckOutTime), v.CheckedInBy, nullString(v.CheckoutBy),
		nullMs(v.DeletedAt), nullString(v.DeletedBy), toMs(v.UpdatedAt),
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateVisitor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateVisitor rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *sqlTx) ListVisitors(ctx context.Context, f store.VisitorFilter) ([]types.Visitor, error) {
	var conds []string
	var args []any
	if !f.IncludeDeleted {
		conds = append(conds, "deleted_at_ms IS NULL")
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Query != "" {
		// LIKE is case-insensitive for ASCII in SQLite.
		conds = append(conds, `(name LIKE ? ESCAPE '\' OR institution LIKE ? ESCAPE '\' OR host_name LIKE ? ESCAPE '\')`)
		q := store.ContainsPattern(f.Query)
		args = append(args, q, q, q)
	}
	limit, pageArgs := pageClause(f.Limit, f.Offset)
	args = append(args, pageArgs...)

	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+visitorColumns+` FROM visitors`+where(conds)+` ORDER BY id`+limit+`;`, args...)
	if err != nil {
		return nil, fmt.Errorf("ListVisitors query: %w", err)
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
