package auth

// UserRole is a coarse account tier that expands into a baseline permission
// set. Directives only ever see permissions; roles are a convenience for
// hosts that assign capabilities in bulk.
type UserRole string

const (
	RoleGuest  UserRole = "guest"
	RoleMember UserRole = "member"
	RoleAdmin  UserRole = "admin"
	RoleOwner  UserRole = "owner"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleGuest, RoleMember, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleGuest:  0,
		RoleMember: 1,
		RoleAdmin:  2,
		RoleOwner:  3,
	}

	level, ok := roleHierarchy[r]
	if !ok {
		return false
	}
	minLevel, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}

	return level >= minLevel
}

// Permissions returns the baseline permission set for the role. Higher tiers
// include everything below them.
func (r UserRole) Permissions() []string {
	switch r {
	case RoleGuest:
		return []string{"content.read"}
	case RoleMember:
		return []string{"content.read", "content.edit"}
	case RoleAdmin:
		return []string{"content.read", "content.edit", "content.create"}
	case RoleOwner:
		return []string{"content.read", "content.edit", "content.create", "content.delete"}
	default:
		return nil
	}
}

// GrantRole merges the role's baseline permissions into the user's permission
// set, skipping duplicates. Explicitly granted permissions survive.
func GrantRole(user *User, role UserRole) {
	if user == nil || !role.IsValid() {
		return
	}

	existing := make(map[string]struct{}, len(user.Permissions))
	for _, p := range user.Permissions {
		existing[p] = struct{}{}
	}

	for _, p := range role.Permissions() {
		if _, ok := existing[p]; !ok {
			user.Permissions = append(user.Permissions, p)
		}
	}
}
