package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
	"github.com/zhank48/ultfpeb-sub004/internal/metrics"
)

// ChangeRequestService records edit and delete proposals. It never touches
// the visitor row; ApprovalService applies a request once approved.
type ChangeRequestService struct {
	store   store.Store
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewChangeRequestService(st store.Store, opts Options) *ChangeRequestService {
	opts = opts.withDefaults()
	return &ChangeRequestService{
		store:   st,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
}

type PendingFilter struct {
	VisitorID int64
	Type      types.RequestType
	Limit     int
	Offset    int
}

func (s *ChangeRequestService) CreateEditRequest(ctx context.Context, visitorID int64, patch types.VisitorPatch, reason string, requester types.Actor) (types.ChangeRequest, error) {
	patch = patch.Normalize()
	if err := validatePatch(patch); err != nil {
		return types.ChangeRequest{}, err
	}
	return s.create(ctx, visitorID, types.RequestEdit, &patch, reason, requester)
}

func (s *ChangeRequestService) CreateDeleteRequest(ctx context.Context, visitorID int64, reason string, requester types.Actor) (types.ChangeRequest, error) {
	return s.create(ctx, visitorID, types.RequestDelete, nil, reason, requester)
}

func (s *ChangeRequestService) create(ctx context.Context, visitorID int64, typ types.RequestType, patch *types.VisitorPatch, reason string, requester types.Actor) (types.ChangeRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return types.ChangeRequest{}, &types.ValidationError{Field: "reason", Message: "is required"}
	}
	by := strings.TrimSpace(requester.ID)
	if by == "" {
		return types.ChangeRequest{}, &types.ValidationError{Field: "requested_by", Message: "is required"}
	}

	now := s.now()
	var out types.ChangeRequest
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		v, err := liveVisitor(ctx, tx, visitorID)
		if err != nil {
			return err
		}

		existing, err := tx.ListRequests(ctx, store.RequestFilter{
			VisitorID: visitorID,
			Type:      typ,
			Status:    types.RequestPending,
			Limit:     1,
		})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &types.ConflictError{VisitorID: visitorID, Type: typ, ExistingID: existing[0].ID}
		}

		r := types.ChangeRequest{
			VisitorID:       visitorID,
			Type:            typ,
			Status:          types.RequestPending,
			OriginalData:    v,
			ProposedData:    patch,
			Reason:          reason,
			RequestedBy:     by,
			RequestedByRole: strings.TrimSpace(requester.Role),
			CreatedAt:       now,
		}
		id, err := tx.InsertRequest(ctx, r)
		if errors.Is(err, store.ErrDuplicatePending) {
			return &types.ConflictError{VisitorID: visitorID, Type: typ}
		}
		if err != nil {
			return err
		}
		r.ID = id
		out = r
		return nil
	})
	if err != nil {
		return types.ChangeRequest{}, storageErr("create "+string(typ)+" request", err)
	}

	s.metrics.RequestCreated(typ)
	s.logger.WithFields(logrus.Fields{
		"request_id": out.ID,
		"visitor_id": visitorID,
		"type":       typ,
		"actor":      by,
	}).Info("change request created")
	return out, nil
}

// ListPending returns pending requests, oldest first.
func (s *ChangeRequestService) ListPending(ctx context.Context, f PendingFilter) ([]types.ChangeRequest, error) {
	var out []types.ChangeRequest
	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		rows, err := tx.ListRequests(ctx, store.RequestFilter{
			VisitorID: f.VisitorID,
			Type:      f.Type,
			Status:    types.RequestPending,
			Limit:     f.Limit,
			Offset:    f.Offset,
		})
		out = rows
		return err
	})
	if err != nil {
		return nil, storageErr("list pending requests", err)
	}
	return out, nil
}

func (s *ChangeRequestService) Get(ctx context.Context, requestID int64) (types.ChangeRequest, error) {
	var out types.ChangeRequest
	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return lookupErr("request", requestID, err)
		}
		out = r
		return nil
	})
	if err != nil {
		return types.ChangeRequest{}, storageErr("get request", err)
	}
	return out, nil
}
