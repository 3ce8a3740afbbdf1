// Package config loads swiftctl configuration from a TOML file with
// environment variable overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/pkg/errors"
)

const (
	authURLEnvVar         = "SWIFT_AUTH_URL"
	authMethodEnvVar      = "SWIFT_AUTH_METHOD"
	usernameEnvVar        = "SWIFT_USERNAME"
	passwordEnvVar        = "SWIFT_PASSWORD"
	tenantIDEnvVar        = "SWIFT_TENANT_ID"
	tenantNameEnvVar      = "SWIFT_TENANT_NAME"
	hashPasswordEnvVar    = "SWIFT_HASH_PASSWORD"
	preferredRegionEnvVar = "SWIFT_PREFERRED_REGION"
)

// Config mirrors the swiftctl config file.
type Config struct {
	AuthURL         string `toml:"auth_url"`
	AuthMethod      string `toml:"auth_method"`
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	TenantID        string `toml:"tenant_id"`
	TenantName      string `toml:"tenant_name"`
	HashPassword    string `toml:"hash_password"`
	PreferredRegion string `toml:"preferred_region"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "swiftctl", "config.toml")
}

// Load reads the config file at path (DefaultPath when empty) and applies
// environment variable overrides. A missing file is not an error; the
// environment alone can carry a full configuration.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "[config.Load] %s", path)
		}
	}

	cfg.AuthURL = getEnv(authURLEnvVar, cfg.AuthURL)
	cfg.AuthMethod = getEnv(authMethodEnvVar, cfg.AuthMethod)
	cfg.Username = getEnv(usernameEnvVar, cfg.Username)
	cfg.Password = getEnv(passwordEnvVar, cfg.Password)
	cfg.TenantID = getEnv(tenantIDEnvVar, cfg.TenantID)
	cfg.TenantName = getEnv(tenantNameEnvVar, cfg.TenantName)
	cfg.HashPassword = getEnv(hashPasswordEnvVar, cfg.HashPassword)
	cfg.PreferredRegion = getEnv(preferredRegionEnvVar, cfg.PreferredRegion)

	return cfg, nil
}

// Credentials converts the configuration into account credentials,
// defaulting to the Keystone method.
func (c Config) Credentials() credentials.Credentials {
	method := credentials.MethodKeystone
	if c.AuthMethod != "" {
		method = credentials.AuthMethod(strings.ToUpper(strings.TrimSpace(c.AuthMethod)))
	}

	return credentials.Credentials{
		Method:     method,
		Username:   c.Username,
		Password:   c.Password,
		AuthURL:    c.AuthURL,
		TenantID:   c.TenantID,
		TenantName: c.TenantName,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
