package auth

// Roles understood by the API
const (
	RoleAdmin    = "admin"
	RoleSeller   = "vendedor"
	RoleCustomer = "cliente"
)

// Identity is the authenticated caller. Middleware resolves it once per
// request and handlers pass it to services by value.
type Identity struct {
	UserID uint
	Role   string
	Email  string
}

// IsAdmin reports whether the caller may use the admin surface
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSeller, RoleCustomer:
		return true
	}
	return false
}
