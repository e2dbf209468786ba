package access

// Role is the closed set of privilege levels a user can hold.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// rank orders roles by privilege: user < moderator < admin.
var rank = map[Role]int{
	RoleUser:      0,
	RoleModerator: 1,
	RoleAdmin:     2,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// AtLeast reports whether r carries at least the privilege of other.
// Unknown roles rank below user.
func (r Role) AtLeast(other Role) bool {
	return rank[r] >= rank[other]
}

// Actor is the authenticated identity a request acts as. Handlers build it
// from the verified token and the current user row, and pass it explicitly
// into every service call that needs a permission decision.
type Actor struct {
	ID        string
	Username  string
	Role      Role
	Superuser bool
}

// IsAdmin treats the superuser flag as an admin-equivalent override.
func (a Actor) IsAdmin() bool {
	return a.Superuser || a.Role == RoleAdmin
}

func (a Actor) IsModerator() bool {
	return a.Role == RoleModerator
}
