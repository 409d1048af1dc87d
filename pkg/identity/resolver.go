package identity

import "strings"

// ResolveRole derives the effective role from superuser status and
// group membership. Superusers are always admins. Group names are
// matched case-insensitively, and a user in multiple groups gets the
// most privileged role (admin > manager > viewer).
func ResolveRole(isSuperuser bool, groups []string) Role {
	if isSuperuser {
		return RoleAdmin
	}

	role := RoleNone
	for _, g := range groups {
		switch strings.ToLower(g) {
		case "admin":
			return RoleAdmin
		case "manager":
			role = RoleManager
		case "viewer":
			if role == RoleNone {
				role = RoleViewer
			}
		}
	}
	return role
}
