package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
)

func TestStaticRoleMapper(t *testing.T) {
	m := StaticRoleMapper{AdminGroup: "lab-admins", EngineerGroup: "lab-engineers"}

	tests := []struct {
		name   string
		groups []string
		want   []domainauth.Role
	}{
		{"admin only", []string{"lab-admins"}, []domainauth.Role{domainauth.RoleAdmin}},
		{"engineer only", []string{"x", "lab-engineers"}, []domainauth.Role{domainauth.RoleEngineer}},
		{"both keeps admin first", []string{"lab-engineers", "lab-admins"}, []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleEngineer}},
		{"none", []string{"students"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.groups))
		})
	}

	assert.Nil(t, StaticRoleMapper{}.Map([]string{"lab-admins"}))
}
