package model

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	ID   uint
	Role Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// CanAccess reports whether the caller may read a resource owned by ownerID.
func (i Identity) CanAccess(ownerID uint) bool {
	return i.IsAdmin() || i.ID == ownerID
}
