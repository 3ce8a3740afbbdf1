package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/jrsteele09/go-swift-client/internal/config"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
auth_url = "http://identity.example.com/v2.0"
auth_method = "keystone"
username = "john"
password = "secret"
tenant_name = "acme"
hash_password = "tempurl-key"
preferred_region = "nl"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://identity.example.com/v2.0", cfg.AuthURL)
	require.Equal(t, "nl", cfg.PreferredRegion)

	creds := cfg.Credentials()
	require.Equal(t, credentials.MethodKeystone, creds.Method)
	require.Equal(t, "john", creds.Username)
	require.Equal(t, "acme", creds.TenantName)
	require.NoError(t, creds.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
auth_url = "http://identity.example.com/v2.0"
username = "john"
password = "from-file"
`)

	t.Setenv("SWIFT_PASSWORD", "from-env")
	t.Setenv("SWIFT_AUTH_METHOD", "tempauth")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	creds := cfg.Credentials()
	require.Equal(t, "from-env", creds.Password)
	require.Equal(t, credentials.MethodTempAuth, creds.Method)
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("SWIFT_AUTH_URL", "http://identity.example.com/v2.0")
	t.Setenv("SWIFT_USERNAME", "john")
	t.Setenv("SWIFT_PASSWORD", "secret")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Credentials().Validate())
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfigFile(t, `auth_url = [not toml`)

	_, err := config.Load(path)
	require.Error(t, err)
}
