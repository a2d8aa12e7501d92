package config

import "strings"

// RoleConfig maps identity-provider group names onto the portal's three view
// roles. Membership is tested explicitly against each configured name.
type RoleConfig interface {
	GetAdminGroups() []string
	GetDeveloperGroups() []string
}

type Roles struct{}

var _ RoleConfig = Roles{}

func (Roles) GetAdminGroups() []string {
	return groupListEnv("ADMIN_GROUPS", []string{"Administrador", "authentik Admins"})
}

func (Roles) GetDeveloperGroups() []string {
	return groupListEnv("DEVELOPER_GROUPS", []string{"Desarrollador"})
}

func groupListEnv(envVar string, defaultValue []string) []string {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	groups := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			groups = append(groups, trimmed)
		}
	}
	if len(groups) == 0 {
		return defaultValue
	}
	return groups
}
