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

// ApprovalService resolves change requests. A request moves from pending to
// approved or rejected exactly once; the status change, the visitor mutation
// and the audit entry commit in one transaction or not at all.
//
// Role checks are the caller's job. The approver is recorded as given.
type ApprovalService struct {
	store    store.Store
	visitors *VisitorService
	audit    *AuditLog
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewApprovalService(st store.Store, visitors *VisitorService, audit *AuditLog, opts Options) *ApprovalService {
	opts = opts.withDefaults()
	return &ApprovalService{
		store:    st,
		visitors: visitors,
		audit:    audit,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
	}
}

func (s *ApprovalService) Approve(ctx context.Context, requestID int64, approver types.Actor) (types.ChangeRequest, error) {
	by := strings.TrimSpace(approver.ID)
	if by == "" {
		return types.ChangeRequest{}, &types.ValidationError{Field: "approver", Message: "is required"}
	}

	now := s.now()
	var out types.ChangeRequest
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		req, err := s.claim(ctx, tx, requestID, types.RequestApproved, by, "", now)
		if err != nil {
			return err
		}

		details := map[string]any{"type": req.Type}
		switch req.Type {
		case types.RequestEdit:
			if req.ProposedData == nil {
				return &types.ValidationError{Field: "proposed_data", Message: "edit request has no proposed data"}
			}
			if _, err := s.visitors.applyEdit(ctx, tx, req.VisitorID, *req.ProposedData, now); err != nil {
				return err
			}
			details["fields"] = req.ProposedData.Fields()
			details["proposed_data"] = req.ProposedData
		case types.RequestDelete:
			if _, err := s.visitors.softDelete(ctx, tx, req.VisitorID, by, now); err != nil {
				return err
			}
		}

		if _, err := s.audit.append(ctx, tx, types.AuditEntry{
			RequestID:   ptr(req.ID),
			VisitorID:   ptr(req.VisitorID),
			Action:      types.ActionApproved,
			PerformedBy: by,
			Reason:      req.Reason,
			Details:     details,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return types.ChangeRequest{}, storageErr("approve request", err)
	}

	s.metrics.RequestResolved(out.Type, types.RequestApproved)
	s.logger.WithFields(logrus.Fields{
		"request_id": out.ID,
		"visitor_id": out.VisitorID,
		"type":       out.Type,
		"actor":      by,
	}).Info("change request approved")
	return out, nil
}

// Reject resolves the request without touching the visitor row.
func (s *ApprovalService) Reject(ctx context.Context, requestID int64, approver types.Actor, rejectionReason string) (types.ChangeRequest, error) {
	rejectionReason = strings.TrimSpace(rejectionReason)
	if rejectionReason == "" {
		return types.ChangeRequest{}, &types.ValidationError{Field: "rejection_reason", Message: "is required"}
	}
	by := strings.TrimSpace(approver.ID)
	if by == "" {
		return types.ChangeRequest{}, &types.ValidationError{Field: "approver", Message: "is required"}
	}

	now := s.now()
	var out types.ChangeRequest
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		req, err := s.claim(ctx, tx, requestID, types.RequestRejected, by, rejectionReason, now)
		if err != nil {
			return err
		}
		if _, err := s.audit.append(ctx, tx, types.AuditEntry{
			RequestID:   ptr(req.ID),
			VisitorID:   ptr(req.VisitorID),
			Action:      types.ActionRejected,
			PerformedBy: by,
			Reason:      rejectionReason,
			Details:     map[string]any{"type": req.Type},
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return types.ChangeRequest{}, storageErr("reject request", err)
	}

	s.metrics.RequestResolved(out.Type, types.RequestRejected)
	s.logger.WithFields(logrus.Fields{
		"request_id": out.ID,
		"visitor_id": out.VisitorID,
		"type":       out.Type,
		"actor":      by,
	}).Info("change request rejected")
	return out, nil
}

// claim performs the pending -> status compare-and-set. Losing the race
// reports the same InvalidStateError as finding the request already resolved.
func (s *ApprovalService) claim(ctx context.Context, tx store.Tx, requestID int64, status types.RequestStatus, by, rejectionReason string, at time.Time) (types.ChangeRequest, error) {
	op := "approve"
	if status == types.RequestRejected {
		op = "reject"
	}

	req, err := tx.GetRequest(ctx, requestID)
	if err != nil {
		return types.ChangeRequest{}, lookupErr("request", requestID, err)
	}
	if !req.IsPending() {
		return types.ChangeRequest{}, &types.InvalidStateError{Entity: "request", ID: requestID, State: string(req.Status), Op: op}
	}

	req.Status = status
	req.ProcessedBy = by
	req.ProcessedAt = ptr(at)
	req.RejectionReason = rejectionReason

	ok, err := tx.ResolveRequest(ctx, req)
	if err != nil {
		return types.ChangeRequest{}, err
	}
	if !ok {
		return types.ChangeRequest{}, &types.InvalidStateError{Entity: "request", ID: requestID, State: "resolved", Op: op}
	}
	return req, nil
}
