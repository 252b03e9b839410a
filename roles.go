package auth

// Role is a coarse grained permission tier. Stored roles are open strings
// (legacy data carries values like "user" or "staff"); authorization only
// recognizes the closed set below and treats everything else as viewer.
type Role string

const (
	// RoleViewer can read content (least privilege).
	RoleViewer Role = "viewer"
	// RoleEditor can read and modify content.
	RoleEditor Role = "editor"
	// RoleAdmin can do everything, including user administration.
	RoleAdmin Role = "admin"
)

var roleHierarchy = map[Role]int{
	RoleViewer: 0,
	RoleEditor: 1,
	RoleAdmin:  2,
}

// IsValid checks if the role is one of the recognized roles.
func (r Role) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// Normalize maps unrecognized roles to viewer.
func (r Role) Normalize() Role {
	if r.IsValid() {
		return r
	}
	return RoleViewer
}

// AtLeast checks if this role meets the minimum required level. Both sides
// are normalized first, so an unknown stored role never outranks viewer and
// an unknown minimum never locks a route below viewer.
func (r Role) AtLeast(minimum Role) bool {
	return roleHierarchy[r.Normalize()] >= roleHierarchy[minimum.Normalize()]
}

// AllRoles returns the recognized roles in hierarchical order.
func AllRoles() []Role {
	return []Role{RoleViewer, RoleEditor, RoleAdmin}
}

// ParseRole parses a string into a Role, reporting whether it is one of
// the recognized values.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.IsValid()
}
