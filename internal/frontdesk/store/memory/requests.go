package memory

import (
	"context"
	"slices"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

func (t *tx) InsertRequest(_ context.Context, r types.ChangeRequest) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	r.ID = t.st.nextRequest
	t.st.nextRequest++
	if r.ProposedData != nil {
		p := *r.ProposedData
		r.ProposedData = &p
	}
	t.st.requests[r.ID] = r
	return r.ID, nil
}

func (t *tx) GetRequest(_ context.Context, id int64) (types.ChangeRequest, error) {
	r, ok := t.st.requests[id]
	if !ok {
		return types.ChangeRequest{}, store.ErrNotFound
	}
	return r, nil
}

func (t *tx) ListRequests(_ context.Context, f store.RequestFilter) ([]types.ChangeRequest, error) {
	out := make([]types.ChangeRequest, 0)
	for _, r := range t.st.requests {
		if f.VisitorID != 0 && r.VisitorID != f.VisitorID {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b types.ChangeRequest) int { return compareInt64(a.ID, b.ID) })
	return page(out, f.Limit, f.Offset), nil
}

func (t *tx) ResolveRequest(_ context.Context, r types.ChangeRequest) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	cur, ok := t.st.requests[r.ID]
	if !ok || cur.Status != types.RequestPending {
		return false, nil
	}
	cur.Status = r.Status
	cur.ProcessedBy = r.ProcessedBy
	cur.ProcessedAt = r.ProcessedAt
	cur.RejectionReason = r.RejectionReason
	t.st.requests[r.ID] = cur
	return true, nil
}
