package memory

import (
	"context"
	"slices"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

func (t *tx) AppendAudit(_ context.Context, e types.AuditEntry) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	e.ID = t.st.nextAudit
	t.st.nextAudit++
	e.Details = cloneDetails(e.Details)
	t.st.audit = append(t.st.audit, e)
	return e.ID, nil
}

func (t *tx) ListAudit(_ context.Context, f store.AuditFilter) ([]types.AuditEntry, error) {
	out := make([]types.AuditEntry, 0)
	for _, e := range t.st.audit {
		if f.VisitorID != 0 && (e.VisitorID == nil || *e.VisitorID != f.VisitorID) {
			continue
		}
		if f.RequestID != 0 && (e.RequestID == nil || *e.RequestID != f.RequestID) {
			continue
		}
		e.Details = cloneDetails(e.Details)
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b types.AuditEntry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareInt64(a.ID, b.ID)
	})
	return page(out, f.Limit, f.Offset), nil
}

// cloneDetails deep-copies a JSON-shaped details map so callers never share
// nested maps or slices with the stored ledger.
func cloneDetails(d map[string]any) map[string]any {
	if d == nil {
		return nil
	}
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneDetails(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
