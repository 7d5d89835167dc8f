package types

import "time"

type AnomalyKind string

const (
	AnomalyOrphanedRequest         AnomalyKind = "orphaned_request"
	AnomalyOrphanedAuditEntry      AnomalyKind = "orphaned_audit_entry"
	AnomalyDuplicatePendingRequest AnomalyKind = "duplicate_pending_request"
	AnomalyStatusMismatch          AnomalyKind = "status_mismatch"
)

// Anomaly is a diagnostic finding. It is reported, never raised as an error.
type Anomaly struct {
	Kind       AnomalyKind `json:"kind"`
	VisitorID  int64       `json:"visitor_id,omitempty"`
	RequestID  int64       `json:"request_id,omitempty"`
	AuditID    int64       `json:"audit_id,omitempty"`
	RequestIDs []int64     `json:"request_ids,omitempty"`
	Detail     string      `json:"detail"`
}

type ScanReport struct {
	ScannedAt time.Time           `json:"scanned_at"`
	Total     int                 `json:"total"`
	Counts    map[AnomalyKind]int `json:"counts"`
	Anomalies []Anomaly           `json:"anomalies"`
}
