package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core"
)

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "School Hub",
		SecretKey: "secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}
}

func TestNewClaims(t *testing.T) {
	conf := testConfig()

	claims, err := NewClaims(conf, "42", " Jane ", "JANE@School.test", []string{RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "Jane", claims.Name)
	assert.Equal(t, "jane@school.test", claims.Email)
	assert.Equal(t, conf.AppName, claims.Issuer)
	assert.True(t, claims.ExpiresAt > time.Now().Unix())

	_, err = NewClaims(conf, "42", "Jane", "", []string{"janitor"})
	assert.Error(t, err)
}

func TestGenerateAndParseToken(t *testing.T) {
	conf := testConfig()
	claims, err := NewClaims(conf, "7", "Admin", "admin@school.test", []string{RoleAdmin})
	require.NoError(t, err)

	token, err := GenerateToken(conf, claims)
	require.NoError(t, err)

	parsed, err := ParseToken(conf, token)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, parsed.Subject)
	assert.Equal(t, claims.Roles, parsed.Roles)

	other := testConfig()
	other.SecretKey = "another secret"
	_, err = ParseToken(other, token)
	assert.Error(t, err)
}

func TestClaims_HasAnyRole(t *testing.T) {
	tests := []struct {
		name  string
		owned []string
		want  []string
		ok    bool
	}{
		{name: "no role required", owned: nil, want: nil, ok: true},
		{name: "missing", owned: []string{RoleTeacher}, want: []string{RoleAdmin, RoleStaff}, ok: false},
		{name: "one of", owned: []string{RoleTeacher, RoleStaff}, want: []string{RoleAdmin, RoleStaff}, ok: true},
		{name: "no roles owned", owned: nil, want: []string{RoleAdmin}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Claims{Roles: tt.owned}
			if got := c.HasAnyRole(tt.want...); got != tt.ok {
				t.Errorf("HasAnyRole() = %v, want %v", got, tt.ok)
			}
		})
	}
}
