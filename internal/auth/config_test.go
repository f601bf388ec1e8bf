package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

func TestLoadConfigSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.yaml")

	contents := `
remote_auths:
  - service: dbt
    hash: "$2a$10$abcdefghijklmnopqrstuv"
    roles: [publish, update]
  - service: airflow
    hash: "$2a$10$abcdefghijklmnopqrstuv"
    roles: [disable]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.RemoteAuths, 2)

	dbt, ok := cfg.find("dbt")
	require.True(t, ok)
	assert.Equal(t, []domain.Role{domain.RolePublish, domain.RoleUpdate}, dbt.Roles)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfigRejectsInvalidRole(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.yaml")

	contents := `
remote_auths:
  - service: dbt
    hash: "$2a$10$abcdefghijklmnopqrstuv"
    roles: [superadmin]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
