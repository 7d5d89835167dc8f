package types

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Actor is the identity supplied by the caller for requester, approver and
// operator fields. Authorization happens before the core is invoked.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
