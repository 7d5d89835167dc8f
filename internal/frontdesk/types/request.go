package types

import "time"

type RequestType string

const (
	RequestEdit   RequestType = "edit"
	RequestDelete RequestType = "delete"
)

func (t RequestType) Valid() bool { return t == RequestEdit || t == RequestDelete }

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ChangeRequest is a proposal to edit or delete a visitor. It is resolved
// exactly once and never changes after that.
type ChangeRequest struct {
	ID              int64         `json:"id"`
	VisitorID       int64         `json:"visitor_id"`
	Type            RequestType   `json:"type"`
	Status          RequestStatus `json:"status"`
	OriginalData    Visitor       `json:"original_data"`
	ProposedData    *VisitorPatch `json:"proposed_data"`
	Reason          string        `json:"reason"`
	RequestedBy     string        `json:"requested_by"`
	RequestedByRole string        `json:"requested_by_role,omitempty"`
	ProcessedBy     string        `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (r ChangeRequest) IsPending() bool { return r.Status == RequestPending }
