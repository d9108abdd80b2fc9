package authroles

import (
	domainauth "github.com/target/lab-portal/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to roles by simple string membership rules.
// The returned order is ADMIN before ENGINEER so that roles[0] is the most privileged.
type StaticRoleMapper struct {
	AdminGroup    string
	EngineerGroup string
}

func (m StaticRoleMapper) Map(groups []string) []domainauth.Role {
	var roles []domainauth.Role
	if m.AdminGroup != "" && contains(groups, m.AdminGroup) {
		roles = append(roles, domainauth.RoleAdmin)
	}
	if m.EngineerGroup != "" && contains(groups, m.EngineerGroup) {
		roles = append(roles, domainauth.RoleEngineer)
	}
	return roles
}

func contains(groups []string, want string) bool {
	for _, g := range groups {
		if g == want {
			return true
		}
	}
	return false
}
