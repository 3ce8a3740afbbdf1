// Package token owns the authentication session of one account: the
// current access token, the reauthentication policy and the state machine
// that moves between them.
package token

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-swift-client/access"
	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/jrsteele09/go-swift-client/servertime"
	"github.com/jrsteele09/go-swift-client/tenants"
	"github.com/jrsteele09/go-swift-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Manager is the token lifecycle manager for a single account. It holds
// at most one live token and guarantees at most one in-flight credential
// exchange: concurrent callers that discover an expired token block on the
// single exchange and then share its result.
type Manager struct {
	transport transport.Transport
	clock     *servertime.Synchronizer
	creds     credentials.Credentials

	// authMu serializes credential exchanges. A caller that waited on it
	// re-checks token validity before issuing its own exchange.
	authMu sync.Mutex

	mu                  sync.Mutex
	state               State
	access              *access.Access
	tenant              *tenants.Tenant
	tenantResolved      bool
	allowReauthenticate bool
}

type ManagerOption func(*Manager)

// WithAllowReauthenticate sets the initial reauthentication policy.
func WithAllowReauthenticate(allow bool) ManagerOption {
	return func(m *Manager) {
		m.allowReauthenticate = allow
	}
}

func New(tr transport.Transport, clock *servertime.Synchronizer, creds credentials.Credentials, options ...ManagerOption) *Manager {
	m := &Manager{
		transport:           tr,
		clock:               clock,
		creds:               creds,
		state:               StateUnauthenticated,
		allowReauthenticate: true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Authenticate triggers a credential exchange. It is idempotent while the
// current token is valid: repeated calls return the existing token without
// network traffic.
func (m *Manager) Authenticate(ctx context.Context) (*access.Access, error) {
	if a := m.validAccess(); a != nil {
		return a, nil
	}
	return m.authenticate(ctx, false)
}

// EnsureValid is the decision point every authenticated operation passes
// through. A valid token is returned as-is. An expired token triggers a
// transparent reauthentication when the policy allows it, and fails with
// ErrTokenExpiredNoReauth (leaving the stored token untouched) when it
// does not.
func (m *Manager) EnsureValid(ctx context.Context) (*access.Access, error) {
	m.mu.Lock()
	current := m.access
	allowed := m.allowReauthenticate
	m.mu.Unlock()

	if current != nil && !current.Expired(m.clock.ServerTime()) {
		return current, nil
	}
	if current != nil && !allowed {
		return nil, errors.Wrap(ErrTokenExpiredNoReauth, "[Manager.EnsureValid]")
	}
	return m.authenticate(ctx, false)
}

// Reload discards the current token and any resolved tenant metadata and
// forces a fresh authentication. When an authentication is already in
// flight, Reload waits for it to finish and then issues its own exchange
// regardless of the outcome.
func (m *Manager) Reload(ctx context.Context) (*access.Access, error) {
	return m.authenticate(ctx, true)
}

func (m *Manager) authenticate(ctx context.Context, force bool) (*access.Access, error) {
	// Surfaced before any network interaction and before entering the
	// authenticating state.
	if err := m.creds.Validate(); err != nil {
		return nil, err
	}

	m.authMu.Lock()
	defer m.authMu.Unlock()

	if force {
		m.invalidate()
	} else if a := m.validAccess(); a != nil {
		// Another caller finished the exchange while we waited.
		return a, nil
	}

	m.setState(StateAuthenticating)

	a, err := m.exchange(ctx)
	if err != nil {
		m.setState(StateAuthFailed)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// A cancelled exchange must not surface a half-updated token.
		m.setState(StateAuthFailed)
		return nil, errors.Wrap(err, "[Manager.authenticate] cancelled")
	}

	m.mu.Lock()
	m.access = a
	m.state = StateValid
	m.mu.Unlock()

	if err := m.clock.Synchronize(ctx); err != nil {
		log.Warn().Err(err).Msg("server time synchronization failed after authentication")
	}

	log.Debug().
		Time("expires_at", a.ExpiresAt).
		Bool("tenant_resolved", m.TenantSupplied()).
		Msg("authenticated")

	return a, nil
}

// exchange performs the credential submission, resolving the tenant first
// when Keystone needs one. Caller holds authMu.
func (m *Manager) exchange(ctx context.Context) (*access.Access, error) {
	if m.creds.Method != credentials.MethodKeystone {
		a, err := m.transport.SubmitCredentials(ctx, m.creds)
		if err != nil {
			return nil, errors.Wrap(err, "[Manager.exchange] SubmitCredentials")
		}
		// Non-Keystone methods have no tenant concept; the storage URL
		// from the exchange binds the account implicitly.
		m.setTenant(nil, true)
		return a, nil
	}

	if m.creds.TenantSupplied() {
		a, err := m.transport.SubmitCredentials(ctx, m.creds)
		if err != nil {
			return nil, errors.Wrap(err, "[Manager.exchange] SubmitCredentials")
		}
		m.setTenant(&tenants.Tenant{ID: a.TenantID, Name: a.TenantName}, true)
		return a, nil
	}

	return m.discoverTenant(ctx)
}

// discoverTenant authenticates unscoped, lists the caller's tenants and
// auto-selects only when exactly one is returned.
func (m *Manager) discoverTenant(ctx context.Context) (*access.Access, error) {
	unscoped, err := m.transport.SubmitCredentials(ctx, m.creds)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.discoverTenant] unscoped SubmitCredentials")
	}

	candidates, err := m.transport.ListTenants(ctx, unscoped.Token)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.discoverTenant] ListTenants")
	}
	if len(candidates) != 1 {
		return nil, errors.Wrapf(ErrTenantAmbiguous, "[Manager.discoverTenant] account resolves to %d tenants", len(candidates))
	}

	tenant := candidates[0]
	scoped, err := m.transport.SubmitCredentials(ctx, m.creds.WithTenant(tenant.ID, tenant.Name))
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.discoverTenant] scoped SubmitCredentials")
	}

	m.setTenant(&tenant, true)
	return scoped, nil
}

// SetAllowReauthenticate toggles the automatic-refresh policy. Disabling
// it gives long-lived processes deterministic control over when network
// authentication traffic occurs.
func (m *Manager) SetAllowReauthenticate(allow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowReauthenticate = allow
}

// AllowReauthenticate reports whether expired tokens are refreshed
// automatically.
func (m *Manager) AllowReauthenticate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowReauthenticate
}

// State returns the current lifecycle state, deriving StateExpired lazily
// from the stored token and the server-adjusted clock.
func (m *Manager) State() State {
	m.mu.Lock()
	state := m.state
	current := m.access
	m.mu.Unlock()

	if state == StateValid && current.Expired(m.clock.ServerTime()) {
		return StateExpired
	}
	return state
}

// Access returns the currently stored token, valid or not. Nil when the
// account has never authenticated.
func (m *Manager) Access() *access.Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

// Tenant returns the resolved tenant, or nil for methods without one.
func (m *Manager) Tenant() *tenants.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenant
}

// TenantSupplied reports whether tenant resolution has occurred, either
// because the credentials carried one or because auto-discovery succeeded.
func (m *Manager) TenantSupplied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenantResolved || m.creds.TenantSupplied()
}

func (m *Manager) validAccess() *access.Access {
	m.mu.Lock()
	current := m.access
	m.mu.Unlock()

	if current != nil && !current.Expired(m.clock.ServerTime()) {
		return current
	}
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) setTenant(t *tenants.Tenant, resolved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenant = t
	m.tenantResolved = resolved
}

// invalidate discards the token and resolved metadata. Caller holds authMu.
func (m *Manager) invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = nil
	m.tenant = nil
	m.tenantResolved = false
	m.state = StateUnauthenticated
}
