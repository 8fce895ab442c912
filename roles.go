package provision

// Role is the closed classification assigned to an account.
type Role string

const (
	// RoleUser is the default role for accounts created through registration.
	RoleUser Role = "user"
	// RoleAdmin can manage invitations, accounts, and roles.
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r Role) IsAtLeast(minRole Role) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// roleHierarchy defines the strictness ordering used by IsAtLeast. New roles
// slot in here without structural changes elsewhere.
var roleHierarchy = map[Role]int{
	RoleUser:  0,
	RoleAdmin: 1,
}

// AvailableRoles returns all predefined roles in hierarchical order
func AvailableRoles() []Role {
	return []Role{
		RoleUser,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
