package auth

const (
	RoleSuperAdmin      = "super_admin"
	RoleAdminOperations = "admin_operations"
	RoleTeamAdmin       = "team_admin"
	RoleTeamUser        = "team_user"
	RoleViewOnly        = "view_only"
)

// IsAdmin reports whether role may manage facilities and other users' bookings.
func IsAdmin(role string) bool {
	return role == RoleSuperAdmin || role == RoleAdminOperations
}

// CanBook reports whether role may create bookings.
func CanBook(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdminOperations, RoleTeamAdmin, RoleTeamUser:
		return true
	default:
		return false
	}
}
