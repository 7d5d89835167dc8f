package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

// AuditLog is the append-only ledger of visitor actions. Appends happen only
// inside the transaction of the operation being recorded.
type AuditLog struct {
	store store.Store
	now   func() time.Time
}

func NewAuditLog(st store.Store, opts Options) *AuditLog {
	opts = opts.withDefaults()
	return &AuditLog{store: st, now: opts.Now}
}

func (a *AuditLog) append(ctx context.Context, tx store.Tx, e types.AuditEntry) (types.AuditEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = a.now()
	}
	details, err := normalizeDetails(e.Details)
	if err != nil {
		return types.AuditEntry{}, fmt.Errorf("audit details: %w", err)
	}
	e.Details = details

	id, err := tx.AppendAudit(ctx, e)
	if err != nil {
		return types.AuditEntry{}, fmt.Errorf("append audit %s: %w", e.Action, err)
	}
	e.ID = id
	return e, nil
}

// FindByVisitor returns every entry for the visitor, oldest first. It works
// for soft-deleted visitors and for ids whose row no longer exists.
func (a *AuditLog) FindByVisitor(ctx context.Context, visitorID int64) ([]types.AuditEntry, error) {
	if visitorID <= 0 {
		return []types.AuditEntry{}, nil
	}
	return a.find(ctx, "find audit by visitor", store.AuditFilter{VisitorID: visitorID})
}

// FindByRequest returns every entry for the change request, oldest first.
// Entries without a request id never match.
func (a *AuditLog) FindByRequest(ctx context.Context, requestID int64) ([]types.AuditEntry, error) {
	if requestID <= 0 {
		return []types.AuditEntry{}, nil
	}
	return a.find(ctx, "find audit by request", store.AuditFilter{RequestID: requestID})
}

func (a *AuditLog) find(ctx context.Context, op string, f store.AuditFilter) ([]types.AuditEntry, error) {
	var out []types.AuditEntry
	err := a.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		rows, err := tx.ListAudit(ctx, f)
		out = rows
		return err
	})
	if err != nil {
		return nil, storageErr(op, err)
	}
	return out, nil
}

// normalizeDetails round-trips details through JSON so every backend hands
// back the same shape that a SQL backend reads from its details column.
func normalizeDetails(d map[string]any) (map[string]any, error) {
	if len(d) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
