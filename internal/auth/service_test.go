package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

func testConfig(t *testing.T, service, key string, roles ...domain.Role) *Config {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)

	return &Config{RemoteAuths: []RemoteAuth{{Service: service, Hash: string(hash), Roles: roles}}}
}

func TestServiceAuthenticateSuccess(t *testing.T) {
	cfg := testConfig(t, "dbt", "super-secret", domain.RolePublish, domain.RoleUpdate)
	svc := NewService(cfg, []byte("signing-key"))

	auth, err := svc.Authenticate(Login{Service: "dbt", Key: "super-secret"})
	require.NoError(t, err)
	assert.Equal(t, "dbt", auth.Service)
	assert.Equal(t, "Bearer", auth.TokenType)
	assert.NotEmpty(t, auth.AccessToken)
	assert.ElementsMatch(t, []domain.Role{domain.RolePublish, domain.RoleUpdate}, auth.Roles)
}

func TestServiceAuthenticateInvalidService(t *testing.T) {
	cfg := testConfig(t, "dbt", "super-secret")
	svc := NewService(cfg, []byte("signing-key"))

	_, err := svc.Authenticate(Login{Service: "unknown", Key: "super-secret"})

	var invalidService *InvalidServiceError
	require.ErrorAs(t, err, &invalidService)
}

func TestServiceAuthenticateInvalidKey(t *testing.T) {
	cfg := testConfig(t, "dbt", "super-secret")
	svc := NewService(cfg, []byte("signing-key"))

	_, err := svc.Authenticate(Login{Service: "dbt", Key: "wrong-key"})

	var invalidKey *InvalidKeyError
	require.ErrorAs(t, err, &invalidKey)
}

func TestServiceVerifyRoundTrip(t *testing.T) {
	cfg := testConfig(t, "dbt", "super-secret", domain.RolePublish)
	svc := NewService(cfg, []byte("signing-key"))

	auth, err := svc.Authenticate(Login{Service: "dbt", Key: "super-secret"})
	require.NoError(t, err)

	authorization, err := svc.Verify(auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "dbt", authorization.Service)
	assert.True(t, authorization.HasRole(domain.RolePublish))
	assert.NoError(t, authorization.RequireRole(domain.RolePublish))

	err = authorization.RequireRole(domain.RoleDisable)
	var roleErr *RoleError
	require.ErrorAs(t, err, &roleErr)
}

func TestServiceVerifyRejectsWrongSigningKey(t *testing.T) {
	cfg := testConfig(t, "dbt", "super-secret")
	svc := NewService(cfg, []byte("signing-key"))

	auth, err := svc.Authenticate(Login{Service: "dbt", Key: "super-secret"})
	require.NoError(t, err)

	other := NewService(cfg, []byte("different-key"))
	_, err = other.Verify(auth.AccessToken)

	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
}

func TestServiceVerifyRejectsRevokedService(t *testing.T) {
	cfg := testConfig(t, "dbt", "super-secret")
	svc := NewService(cfg, []byte("signing-key"))

	auth, err := svc.Authenticate(Login{Service: "dbt", Key: "super-secret"})
	require.NoError(t, err)

	revoked := &Config{RemoteAuths: []RemoteAuth{}}
	afterRevoke := NewService(revoked, []byte("signing-key"))

	_, err = afterRevoke.Verify(auth.AccessToken)

	var invalidService *InvalidServiceError
	require.ErrorAs(t, err, &invalidService)
}
