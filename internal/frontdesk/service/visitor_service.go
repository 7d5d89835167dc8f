package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
	"github.com/zhank48/ultfpeb-sub004/internal/metrics"
)

// VisitorService owns visitor rows. Outside of check-in and check-out, rows
// change only through applyEdit and softDelete, which the approval engine
// calls inside its own transaction.
type VisitorService struct {
	store   store.Store
	audit   *AuditLog
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewVisitorService(st store.Store, audit *AuditLog, opts Options) *VisitorService {
	opts = opts.withDefaults()
	return &VisitorService{
		store:   st,
		audit:   audit,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
}

// ActiveFilter narrows Active. Soft-deleted visitors are always excluded.
type ActiveFilter struct {
	Status types.VisitorStatus
	Query  string
	Limit  int
	Offset int
}

func (s *VisitorService) CheckIn(ctx context.Context, req types.CheckInRequest, policy types.CheckInPolicy, operator types.Actor) (types.Visitor, error) {
	by := strings.TrimSpace(operator.ID)
	if by == "" {
		return types.Visitor{}, &types.ValidationError{Field: "operator", Message: "is required"}
	}
	req = req.Normalize()
	if err := validateCheckIn(req, policy); err != nil {
		return types.Visitor{}, err
	}

	now := s.now()
	v := types.Visitor{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		IDNumber:     req.IDNumber,
		Institution:  req.Institution,
		Purpose:      req.Purpose,
		HostName:     req.HostName,
		Unit:         req.Unit,
		PhotoRef:     req.PhotoRef,
		SignatureRef: req.SignatureRef,
		Status:       types.StatusCheckedIn,
		CheckInTime:  now,
		CheckedInBy:  by,
		UpdatedAt:    now,
	}

	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		id, err := tx.InsertVisitor(ctx, v)
		if err != nil {
			return err
		}
		v.ID = id
		_, err = s.audit.append(ctx, tx, types.AuditEntry{
			VisitorID:   ptr(id),
			Action:      types.ActionCheckedIn,
			PerformedBy: v.CheckedInBy,
			CreatedAt:   now,
		})
		return err
	})
	if err != nil {
		return types.Visitor{}, storageErr("check in", err)
	}

	s.metrics.CheckIn()
	s.logger.WithFields(logrus.Fields{"visitor_id": v.ID, "actor": v.CheckedInBy}).Info("visitor checked in")
	return v, nil
}

func (s *VisitorService) CheckOut(ctx context.Context, visitorID int64, operator types.Actor) (types.Visitor, error) {
	by := strings.TrimSpace(operator.ID)
	if by == "" {
		return types.Visitor{}, &types.ValidationError{Field: "operator", Message: "is required"}
	}

	now := s.now()
	var out types.Visitor
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		v, err := liveVisitor(ctx, tx, visitorID)
		if err != nil {
			return err
		}
		if v.Status != types.StatusCheckedIn {
			return &types.InvalidStateError{Entity: "visitor", ID: visitorID, State: string(v.Status), Op: "check out"}
		}

		v.Status = types.StatusCheckedOut
		v.CheckOutTime = ptr(now)
		v.CheckoutBy = by
		v.UpdatedAt = now
		if err := tx.UpdateVisitor(ctx, v); err != nil {
			return err
		}
		if _, err := s.audit.append(ctx, tx, types.AuditEntry{
			VisitorID:   ptr(visitorID),
			Action:      types.ActionCheckedOut,
			PerformedBy: by,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return types.Visitor{}, storageErr("check out", err)
	}

	s.metrics.CheckOut()
	s.logger.WithFields(logrus.Fields{"visitor_id": visitorID, "actor": by}).Info("visitor checked out")
	return out, nil
}

// Active lists visitors that are not soft-deleted, ordered by id.
func (s *VisitorService) Active(ctx context.Context, f ActiveFilter) ([]types.Visitor, error) {
	var out []types.Visitor
	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		rows, err := tx.ListVisitors(ctx, store.VisitorFilter{
			Status: f.Status,
			Query:  strings.TrimSpace(f.Query),
			Limit:  f.Limit,
			Offset: f.Offset,
		})
		out = rows
		return err
	})
	if err != nil {
		return nil, storageErr("list active visitors", err)
	}
	return out, nil
}

// Get returns the visitor by id, soft-deleted or not.
func (s *VisitorService) Get(ctx context.Context, visitorID int64) (types.Visitor, error) {
	var out types.Visitor
	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		v, err := tx.GetVisitor(ctx, visitorID)
		if err != nil {
			return lookupErr("visitor", visitorID, err)
		}
		out = v
		return nil
	})
	if err != nil {
		return types.Visitor{}, storageErr("get visitor", err)
	}
	return out, nil
}

// applyEdit merges the fields present in patch onto the stored row.
func (s *VisitorService) applyEdit(ctx context.Context, tx store.Tx, visitorID int64, patch types.VisitorPatch, at time.Time) (types.Visitor, error) {
	v, err := liveVisitor(ctx, tx, visitorID)
	if err != nil {
		return types.Visitor{}, err
	}
	patch.ApplyTo(&v)
	v.UpdatedAt = at
	if err := tx.UpdateVisitor(ctx, v); err != nil {
		return types.Visitor{}, err
	}
	return v, nil
}

// softDelete marks the row deleted. An open visit is closed at the same
// instant so the row never reads as deleted and checked in.
func (s *VisitorService) softDelete(ctx context.Context, tx store.Tx, visitorID int64, deletedBy string, at time.Time) (types.Visitor, error) {
	v, err := liveVisitor(ctx, tx, visitorID)
	if err != nil {
		return types.Visitor{}, err
	}
	v.DeletedAt = ptr(at)
	v.DeletedBy = deletedBy
	v.UpdatedAt = at
	if v.Status == types.StatusCheckedIn {
		v.Status = types.StatusCheckedOut
		v.CheckOutTime = ptr(at)
		v.CheckoutBy = deletedBy
	}
	if err := tx.UpdateVisitor(ctx, v); err != nil {
		return types.Visitor{}, err
	}
	return v, nil
}

// liveVisitor loads a visitor that exists and is not soft-deleted.
func liveVisitor(ctx context.Context, tx store.Tx, visitorID int64) (types.Visitor, error) {
	v, err := tx.GetVisitor(ctx, visitorID)
	if err != nil {
		return types.Visitor{}, lookupErr("visitor", visitorID, err)
	}
	if v.IsDeleted() {
		return types.Visitor{}, &types.NotFoundError{Entity: "visitor", ID: visitorID}
	}
	return v, nil
}
