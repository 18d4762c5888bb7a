package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: 9090
database:
  host: db.internal
  dbname: planner
auth:
  ad:
    enabled: true
    url: ldaps://dc1.example.se:636
    base_dn: DC=example,DC=se
  azure:
    enabled: true
    tenant_id: tenant-1
gs1:
  enabled: true
  client_id: from-file
planner:
  template_catalog: configs/templates.yaml
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTokenExpire)
	assert.Equal(t, "configs/templates.yaml", cfg.Planner.TemplateCatalog)
	assert.True(t, cfg.GS1.Enabled)
	assert.False(t, cfg.MinIO.Enabled())

	assert.True(t, cfg.Auth.AD.Configured())
	assert.Equal(t, 10*time.Second, cfg.Auth.AD.Timeout)
	assert.False(t, cfg.Auth.LDAP.Configured())
	assert.False(t, cfg.Auth.Azure.Configured(), "client id and secret missing")
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "override")
	t.Setenv("GS1_CLIENT_ID", "from-env")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadFile(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "override", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.GS1.ClientID)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoadFile_AzureSecretsFromEnv(t *testing.T) {
	t.Setenv("AZURE_CLIENT_ID", "app-1")
	t.Setenv("AZURE_CLIENT_SECRET", "app-secret")

	cfg, err := LoadFile(writeConfig(t))
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Azure.Configured())
	assert.Equal(t, "tenant-1", cfg.Auth.Azure.TenantID)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable TimeZone=UTC", db.DSN())
	assert.Equal(t, "r:6379", RedisConfig{Host: "r", Port: 6379}.Addr())
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("PLANNER_TEST_VALUE", "x")
	assert.Equal(t, "x", GetEnvOrDefault("PLANNER_TEST_VALUE", "y"))
	assert.Equal(t, "y", GetEnvOrDefault("PLANNER_TEST_UNSET", "y"))
}
