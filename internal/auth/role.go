package auth

// Role is a user's access level. The platform ships with three levels:
// regular quiz takers and the two administrative tiers.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Privileged reports whether the role grants access to the admin console.
// This is the single definition of the privilege rule; login, session
// restore and the admin-only middleware all go through it.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Valid reports whether the role is one of the known role values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
