package models

// Permission constants
const (
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"

	// Settlement and fee configuration
	PermissionSettlementWrite = "settlement:write"
	PermissionSettingsWrite   = "settings:write"
)

// Operator roles
const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
)

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionReadAdmin,
			PermissionWriteAdmin,
			PermissionSettlementWrite,
			PermissionSettingsWrite,
		}
	case RoleSupport:
		return []string{
			PermissionReadAdmin,
		}
	default:
		return []string{}
	}
}
