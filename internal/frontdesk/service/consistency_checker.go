package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
	"github.com/zhank48/ultfpeb-sub004/internal/metrics"
)

const scanPageSize = 256

// ConsistencyChecker is a read-only diagnostic over the three relations. It
// reads in pages, each in its own View, so a long scan never holds a
// transaction open while the consumer works. Rows written during a scan may
// be missed or seen twice.
type ConsistencyChecker struct {
	store    store.Store
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	now      func() time.Time
	pageSize int
}

func NewConsistencyChecker(st store.Store, opts Options) *ConsistencyChecker {
	opts = opts.withDefaults()
	return &ConsistencyChecker{
		store:    st,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
		pageSize: scanPageSize,
	}
}

type scanPhase func(ctx context.Context, yield func(types.Anomaly, error) bool) bool

// Scan yields anomalies lazily: requests first, then audit entries, then
// visitors. A storage failure is yielded once as an error and ends the scan.
func (c *ConsistencyChecker) Scan(ctx context.Context) iter.Seq2[types.Anomaly, error] {
	return func(yield func(types.Anomaly, error) bool) {
		for _, phase := range []scanPhase{c.scanRequests, c.scanAudit, c.scanVisitors} {
			if !phase(ctx, yield) {
				return
			}
		}
	}
}

// Report drains Scan into one document and refreshes the anomaly gauge.
func (c *ConsistencyChecker) Report(ctx context.Context) (types.ScanReport, error) {
	rep := types.ScanReport{
		ScannedAt: c.now(),
		Counts:    make(map[types.AnomalyKind]int),
		Anomalies: []types.Anomaly{},
	}
	for a, err := range c.Scan(ctx) {
		if err != nil {
			return types.ScanReport{}, err
		}
		rep.Anomalies = append(rep.Anomalies, a)
		rep.Counts[a.Kind]++
	}
	rep.Total = len(rep.Anomalies)

	c.metrics.SetAnomalies(rep.Counts)
	entry := c.logger.WithField("total", rep.Total)
	if rep.Total > 0 {
		entry.Warn("consistency scan found anomalies")
	} else {
		entry.Debug("consistency scan clean")
	}
	return rep, nil
}

type pendingKey struct {
	visitorID int64
	typ       types.RequestType
}

func (c *ConsistencyChecker) scanRequests(ctx context.Context, yield func(types.Anomaly, error) bool) bool {
	pending := make(map[pendingKey][]int64)

	for offset := 0; ; offset += c.pageSize {
		var found []types.Anomaly
		var n int
		err := c.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
			rows, err := tx.ListRequests(ctx, store.RequestFilter{Limit: c.pageSize, Offset: offset})
			if err != nil {
				return err
			}
			n = len(rows)
			seen := make(map[int64]bool)
			for _, r := range rows {
				ok, err := visitorExists(ctx, tx, seen, r.VisitorID)
				if err != nil {
					return err
				}
				if !ok {
					found = append(found, types.Anomaly{
						Kind:      types.AnomalyOrphanedRequest,
						VisitorID: r.VisitorID,
						RequestID: r.ID,
						Detail:    fmt.Sprintf("request %d references missing visitor %d", r.ID, r.VisitorID),
					})
				}
				if r.IsPending() {
					k := pendingKey{r.VisitorID, r.Type}
					pending[k] = append(pending[k], r.ID)
				}
			}
			return nil
		})
		if err != nil {
			yield(types.Anomaly{}, storageErr("scan requests", err))
			return false
		}
		for _, a := range found {
			if !yield(a, nil) {
				return false
			}
		}
		if n < c.pageSize {
			break
		}
	}

	keys := make([]pendingKey, 0, len(pending))
	for k, ids := range pending {
		if len(ids) > 1 {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b pendingKey) int {
		if d := cmp.Compare(a.visitorID, b.visitorID); d != 0 {
			return d
		}
		return cmp.Compare(a.typ, b.typ)
	})
	for _, k := range keys {
		ids := pending[k]
		slices.Sort(ids)
		a := types.Anomaly{
			Kind:       types.AnomalyDuplicatePendingRequest,
			VisitorID:  k.visitorID,
			RequestID:  ids[0],
			RequestIDs: ids,
			Detail:     fmt.Sprintf("visitor %d has %d pending %s requests", k.visitorID, len(ids), k.typ),
		}
		if !yield(a, nil) {
			return false
		}
	}
	return true
}

func (c *ConsistencyChecker) scanAudit(ctx context.Context, yield func(types.Anomaly, error) bool) bool {
	for offset := 0; ; offset += c.pageSize {
		var found []types.Anomaly
		var n int
		err := c.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
			rows, err := tx.ListAudit(ctx, store.AuditFilter{Limit: c.pageSize, Offset: offset})
			if err != nil {
				return err
			}
			n = len(rows)
			visitors := make(map[int64]bool)
			requests := make(map[int64]bool)
			for _, e := range rows {
				a, err := auditAnomaly(ctx, tx, visitors, requests, e)
				if err != nil {
					return err
				}
				if a != nil {
					found = append(found, *a)
				}
			}
			return nil
		})
		if err != nil {
			yield(types.Anomaly{}, storageErr("scan audit log", err))
			return false
		}
		for _, a := range found {
			if !yield(a, nil) {
				return false
			}
		}
		if n < c.pageSize {
			return true
		}
	}
}

func auditAnomaly(ctx context.Context, tx store.Tx, visitors, requests map[int64]bool, e types.AuditEntry) (*types.Anomaly, error) {
	if e.VisitorID != nil {
		ok, err := visitorExists(ctx, tx, visitors, *e.VisitorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &types.Anomaly{
				Kind:      types.AnomalyOrphanedAuditEntry,
				VisitorID: *e.VisitorID,
				AuditID:   e.ID,
				Detail:    fmt.Sprintf("audit entry %d references missing visitor %d", e.ID, *e.VisitorID),
			}, nil
		}
	}
	if e.RequestID != nil {
		ok, err := requestExists(ctx, tx, requests, *e.RequestID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &types.Anomaly{
				Kind:      types.AnomalyOrphanedAuditEntry,
				RequestID: *e.RequestID,
				AuditID:   e.ID,
				Detail:    fmt.Sprintf("audit entry %d references missing request %d", e.ID, *e.RequestID),
			}, nil
		}
	}
	return nil, nil
}

func (c *ConsistencyChecker) scanVisitors(ctx context.Context, yield func(types.Anomaly, error) bool) bool {
	for offset := 0; ; offset += c.pageSize {
		var rows []types.Visitor
		err := c.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			rows, err = tx.ListVisitors(ctx, store.VisitorFilter{IncludeDeleted: true, Limit: c.pageSize, Offset: offset})
			return err
		})
		if err != nil {
			yield(types.Anomaly{}, storageErr("scan visitors", err))
			return false
		}
		for _, v := range rows {
			detail := statusMismatch(v)
			if detail == "" {
				continue
			}
			if !yield(types.Anomaly{Kind: types.AnomalyStatusMismatch, VisitorID: v.ID, Detail: detail}, nil) {
				return false
			}
		}
		if len(rows) < c.pageSize {
			return true
		}
	}
}

func statusMismatch(v types.Visitor) string {
	switch v.Status {
	case types.StatusCheckedIn:
		if v.IsDeleted() {
			return fmt.Sprintf("visitor %d is soft-deleted but still checked in", v.ID)
		}
		if v.CheckOutTime != nil {
			return fmt.Sprintf("visitor %d is checked in but has a check-out time", v.ID)
		}
	case types.StatusCheckedOut:
		if v.CheckOutTime == nil {
			return fmt.Sprintf("visitor %d is checked out without a check-out time", v.ID)
		}
	default:
		return fmt.Sprintf("visitor %d has unknown status %q", v.ID, v.Status)
	}
	return ""
}

func visitorExists(ctx context.Context, tx store.Tx, seen map[int64]bool, id int64) (bool, error) {
	if ok, cached := seen[id]; cached {
		return ok, nil
	}
	_, err := tx.GetVisitor(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		seen[id] = false
	case err != nil:
		return false, err
	default:
		seen[id] = true
	}
	return seen[id], nil
}

func requestExists(ctx context.Context, tx store.Tx, seen map[int64]bool, id int64) (bool, error) {
	if ok, cached := seen[id]; cached {
		return ok, nil
	}
	_, err := tx.GetRequest(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		seen[id] = false
	case err != nil:
		return false, err
	default:
		seen[id] = true
	}
	return seen[id], nil
}
