package types

import "time"

type AuditAction string

const (
	ActionCheckedIn  AuditAction = "checked_in"
	ActionCheckedOut AuditAction = "checked_out"
	ActionApproved   AuditAction = "approved"
	ActionRejected   AuditAction = "rejected"
)

// AuditEntry is one append-only ledger row. RequestID is nil for actions not
// driven by a change request.
type AuditEntry struct {
	ID          int64          `json:"id"`
	RequestID   *int64         `json:"request_id"`
	VisitorID   *int64         `json:"visitor_id"`
	Action      AuditAction    `json:"action"`
	PerformedBy string         `json:"performed_by"`
	Reason      string         `json:"reason,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
