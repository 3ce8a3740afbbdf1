package credentials

import (
	"strings"

	"github.com/pkg/errors"
)

// AuthMethod selects how credentials are exchanged for a token.
type AuthMethod string

const (
	// MethodBasic authenticates against the object store itself using
	// HTTP basic auth. Auth URL, username and password are required.
	MethodBasic AuthMethod = "BASIC"

	// MethodTempAuth authenticates against the object store's TempAuth
	// middleware. Auth URL, username and password are required.
	MethodTempAuth AuthMethod = "TEMPAUTH"

	// MethodKeystone (default) authenticates against a Keystone identity
	// service. Auth URL, username and password are required; tenant ID
	// and/or name are optional and will be auto-discovered if the account
	// resolves to exactly one tenant.
	MethodKeystone AuthMethod = "KEYSTONE"
)

// ErrCredentials indicates the credential set is malformed or missing a
// field required by the configured authentication method. It is always
// returned before any network interaction takes place.
var ErrCredentials = errors.New("invalid credentials")

// Credentials carries everything needed to authenticate an account.
// Treated as immutable once authentication begins.
type Credentials struct {
	Method     AuthMethod
	Username   string
	Password   string
	AuthURL    string
	TenantID   string
	TenantName string
}

// TenantSupplied reports whether a tenant ID and/or name is present.
func (c Credentials) TenantSupplied() bool {
	return strings.TrimSpace(c.TenantID) != "" || strings.TrimSpace(c.TenantName) != ""
}

// WithTenant returns a copy of the credentials scoped to the given tenant.
func (c Credentials) WithTenant(tenantID, tenantName string) Credentials {
	scoped := c
	scoped.TenantID = tenantID
	scoped.TenantName = tenantName
	return scoped
}

// Validate checks that every field required by the configured method is
// present. The tenant is never required here; Keystone resolves it later.
func (c Credentials) Validate() error {
	switch c.Method {
	case MethodBasic, MethodTempAuth, MethodKeystone:
	default:
		return errors.Wrapf(ErrCredentials, "[Credentials.Validate] unknown method %q", string(c.Method))
	}
	if strings.TrimSpace(c.AuthURL) == "" {
		return errors.Wrap(ErrCredentials, "[Credentials.Validate] auth URL is required")
	}
	if strings.TrimSpace(c.Username) == "" {
		return errors.Wrap(ErrCredentials, "[Credentials.Validate] username is required")
	}
	if strings.TrimSpace(c.Password) == "" {
		return errors.Wrap(ErrCredentials, "[Credentials.Validate] password is required")
	}
	return nil
}
