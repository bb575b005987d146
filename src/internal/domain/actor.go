package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleAuditor  Role = "auditor"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin || r == RoleAuditor
}

// Actor is the already authenticated caller of an operation.
type Actor struct {
	OwnerID string
	Role    Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanRead allows owners to read their own resources and staff to read any.
func (a Actor) CanRead(ownerID string) bool {
	return a.OwnerID == ownerID || a.Role == RoleAdmin || a.Role == RoleAuditor
}

func (a Actor) Owns(ownerID string) bool {
	return a.OwnerID != "" && a.OwnerID == ownerID
}
