package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

func (t *tx) GetVisitor(_ context.Context, id int64) (types.Visitor, error) {
	v, ok := t.st.visitors[id]
	if !ok {
		return types.Visitor{}, store.ErrNotFound
	}
	return v, nil
}

func (t *tx) InsertVisitor(_ context.Context, v types.Visitor) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	if v.ID == 0 {
		v.ID = t.st.nextVisitor
	}
	if _, exists := t.st.visitors[v.ID]; exists {
		return 0, fmt.Errorf("memory: visitor %d already exists", v.ID)
	}
	if v.ID >= t.st.nextVisitor {
		t.st.nextVisitor = v.ID + 1
	}
	t.st.visitors[v.ID] = v
	return v.ID, nil
}

func (t *tx) UpdateVisitor(_ context.Context, v types.Visitor) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.visitors[v.ID]; !ok {
		return store.ErrNotFound
	}
	t.st.visitors[v.ID] = v
	return nil
}

func (t *tx) ListVisitors(_ context.Context, f store.VisitorFilter) ([]types.Visitor, error) {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]types.Visitor, 0)
	for _, v := range t.st.visitors {
		if v.IsDeleted() && !f.IncludeDeleted {
			continue
		}
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if q != "" && !matchesQuery(v, q) {
			continue
		}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b types.Visitor) int { return compareInt64(a.ID, b.ID) })
	return page(out, f.Limit, f.Offset), nil
}

func matchesQuery(v types.Visitor, q string) bool {
	for _, s := range []string{v.Name, v.Institution, v.HostName} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func page[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
