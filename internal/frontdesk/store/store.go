package store

import (
	"context"
	"errors"
	"strings"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

var (
	// ErrNotFound is returned by Tx lookups when no row matches.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicatePending is returned by InsertRequest when the backend's
	// uniqueness constraint on pending (visitor_id, type) rejects the row.
	ErrDuplicatePending = errors.New("store: duplicate pending request")
)

// TxFn runs inside a transaction. Returning an error rolls it back.
type TxFn func(ctx context.Context, tx Tx) error

// Store is the transactional storage over the visitors, change_requests and
// audit_log relations.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn TxFn) error
	// Update runs fn atomically: every write made through tx commits
	// together, or none does.
	Update(ctx context.Context, fn TxFn) error
}

type Tx interface {
	VisitorTx
	RequestTx
	AuditTx
}

type VisitorFilter struct {
	IncludeDeleted bool
	Status         types.VisitorStatus
	Query          string
	Limit          int
	Offset         int
}

type VisitorTx interface {
	// GetVisitor returns the row including soft-deleted ones. Inside Update
	// the row stays locked against other writers until the transaction ends,
	// so a read-modify-write through UpdateVisitor never loses a concurrent
	// change.
	GetVisitor(ctx context.Context, id int64) (types.Visitor, error)
	// InsertVisitor stores v and returns its id. A non-zero v.ID is kept.
	InsertVisitor(ctx context.Context, v types.Visitor) (int64, error)
	UpdateVisitor(ctx context.Context, v types.Visitor) error
	// ListVisitors returns rows ordered by id.
	ListVisitors(ctx context.Context, f VisitorFilter) ([]types.Visitor, error)
}

type RequestFilter struct {
	VisitorID int64
	Type      types.RequestType
	Status    types.RequestStatus
	Limit     int
	Offset    int
}

type RequestTx interface {
	InsertRequest(ctx context.Context, r types.ChangeRequest) (int64, error)
	GetRequest(ctx context.Context, id int64) (types.ChangeRequest, error)
	// ListRequests returns rows ordered by id.
	ListRequests(ctx context.Context, f RequestFilter) ([]types.ChangeRequest, error)
	// ResolveRequest moves r.ID from pending to r.Status, recording
	// ProcessedBy, ProcessedAt and RejectionReason. It reports false without
	// writing anything if the stored row is no longer pending.
	ResolveRequest(ctx context.Context, r types.ChangeRequest) (bool, error)
}

// AuditFilter selects entries. A zero id does not filter on that column.
type AuditFilter struct {
	VisitorID int64
	RequestID int64
	Limit     int
	Offset    int
}

// AuditTx has no update or delete: the ledger is append-only.
type AuditTx interface {
	AppendAudit(ctx context.Context, e types.AuditEntry) (int64, error)
	// ListAudit returns entries ordered by created_at, then id.
	ListAudit(ctx context.Context, f AuditFilter) ([]types.AuditEntry, error)
}

// ContainsPattern turns a free-text query into a LIKE pattern that matches
// it as a literal substring. Pair it with ESCAPE '\'.
func ContainsPattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
