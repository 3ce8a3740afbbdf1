// Package account is the session manager for one object-storage account.
// It composes the token lifecycle manager, the server-time synchronizer
// and the container cache behind a single facade and counts every
// outbound call for observability.
package account

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-swift-client/access"
	"github.com/jrsteele09/go-swift-client/containers"
	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/jrsteele09/go-swift-client/servertime"
	"github.com/jrsteele09/go-swift-client/token"
	"github.com/jrsteele09/go-swift-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultDelimiter = '/'

// Account is the facade callers interact with. It is safe for concurrent
// use; configuration setters and authenticated operations may be issued
// from multiple goroutines.
type Account struct {
	creds     credentials.Credentials
	transport transport.Transport
	tokens    *token.Manager
	clock     *servertime.Synchronizer
	cache     *containers.Cache
	logger    zerolog.Logger
	calls     atomic.Int64

	mu           sync.RWMutex
	allowCaching bool
	publicHost   string
	privateHost  string
	delimiter    rune
	hashPassword string
}

type Option func(*settings)

// settings collects construction-time configuration before the component
// graph is wired.
type settings struct {
	allowReauthenticate bool
	allowCaching        bool
	publicHost          string
	privateHost         string
	delimiter           rune
	hashPassword        string
	logger              zerolog.Logger
	nowFunc             func() time.Time
}

// WithAllowReauthenticate sets the initial reauthentication policy
// (enabled by default).
func WithAllowReauthenticate(allow bool) Option {
	return func(s *settings) {
		s.allowReauthenticate = allow
	}
}

// WithContainerCaching sets the initial container-caching policy
// (enabled by default).
func WithContainerCaching(allow bool) Option {
	return func(s *settings) {
		s.allowCaching = allow
	}
}

// WithDelimiter sets the directory-boundary delimiter, '/' by default.
func WithDelimiter(delimiter rune) Option {
	return func(s *settings) {
		s.delimiter = delimiter
	}
}

// WithHashPassword sets the secret used for TempURL signature hashes.
func WithHashPassword(password string) Option {
	return func(s *settings) {
		s.hashPassword = password
	}
}

// WithPublicHost overrides the host used to build public object URLs.
func WithPublicHost(host string) Option {
	return func(s *settings) {
		s.publicHost = host
	}
}

// WithPrivateHost overrides the host used to build private object URLs.
func WithPrivateHost(host string) Option {
	return func(s *settings) {
		s.privateHost = host
	}
}

// WithLogger replaces the default global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithNowFunc sets the local clock function (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(s *settings) {
		s.nowFunc = now
	}
}

// New wires an Account around the given credentials and transport. The
// transport is decorated with the call counter before any component sees
// it, so authentication, clock and listing traffic all count.
func New(creds credentials.Credentials, tr transport.Transport, options ...Option) *Account {
	s := &settings{
		allowReauthenticate: true,
		allowCaching:        true,
		delimiter:           defaultDelimiter,
		logger:              log.Logger,
		nowFunc:             time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	a := &Account{
		creds:        creds,
		cache:        containers.NewCache(),
		logger:       s.logger,
		allowCaching: s.allowCaching,
		publicHost:   s.publicHost,
		privateHost:  s.privateHost,
		delimiter:    s.delimiter,
		hashPassword: s.hashPassword,
	}

	counted := &countingTransport{inner: tr, calls: &a.calls}
	a.transport = counted
	a.clock = servertime.New(counted, servertime.WithNowFunc(s.nowFunc))
	a.tokens = token.New(counted, a.clock, creds, token.WithAllowReauthenticate(s.allowReauthenticate))

	return a
}

// Authenticate triggers authentication against the object store. Repeated
// calls while the token is valid return the existing token.
func (a *Account) Authenticate(ctx context.Context) (*access.Access, error) {
	return a.tokens.Authenticate(ctx)
}

// Reload discards the token, resolved tenant metadata and the container
// cache, then authenticates afresh.
func (a *Account) Reload(ctx context.Context) error {
	a.cache.Reset()
	a.logger.Debug().Msg("account reload requested")
	_, err := a.tokens.Reload(ctx)
	return err
}

// ensureToken is the explicit validity step every authenticated operation
// goes through; nothing reauthenticates invisibly inside accessors.
func (a *Account) ensureToken(ctx context.Context) (*access.Access, error) {
	acc, err := a.tokens.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}
	if a.creds.Method == credentials.MethodKeystone && !a.tokens.TenantSupplied() {
		return nil, errors.Wrap(token.ErrTenantNotSupplied, "[Account.ensureToken]")
	}
	return acc, nil
}

// State returns the lifecycle state of the authentication session.
func (a *Account) State() token.State {
	return a.tokens.State()
}

// IsTenantSupplied reports whether a tenant was supplied or discovered.
func (a *Account) IsTenantSupplied() bool {
	return a.tokens.TenantSupplied()
}

// NumberOfCalls returns how many calls have been made to the object
// store. Useful for checking the efficiency of the configuration in use,
// container caching in particular.
func (a *Account) NumberOfCalls() int64 {
	return a.calls.Load()
}

// SynchronizeWithServerTime measures the offset between the local clock
// and the server's and stores it for expiry-relative computations.
func (a *Account) SynchronizeWithServerTime(ctx context.Context) error {
	if err := a.clock.Synchronize(ctx); err != nil {
		return err
	}
	a.logger.Debug().Dur("offset", a.clock.Offset()).Msg("synchronized with server time")
	return nil
}

// ServerTime returns the local time adjusted by the stored clock offset.
func (a *Account) ServerTime() time.Time {
	return a.clock.ServerTime()
}

// ServerTimeAfter returns the server time d from now, for absolute expiry
// timestamps embedded in signed requests.
func (a *Account) ServerTimeAfter(d time.Duration) time.Time {
	return a.clock.ServerTimeAfter(d)
}

// SetAllowReauthenticate toggles automatic reauthentication on expiry.
func (a *Account) SetAllowReauthenticate(allow bool) {
	a.tokens.SetAllowReauthenticate(allow)
}

// IsAllowReauthenticate reports the reauthentication policy.
func (a *Account) IsAllowReauthenticate() bool {
	return a.tokens.AllowReauthenticate()
}

// SetAllowContainerCaching toggles container-handle memoization. When
// disabled, lookups bypass the cache entirely.
func (a *Account) SetAllowContainerCaching(allow bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allowCaching = allow
}

// IsAllowContainerCaching reports the caching policy.
func (a *Account) IsAllowContainerCaching() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.allowCaching
}

// ResetContainerCache empties the container cache unconditionally.
func (a *Account) ResetContainerCache() {
	a.cache.Reset()
	a.logger.Debug().Msg("container cache reset")
}

// SetPublicHost overrides the host prefixing public object URLs.
func (a *Account) SetPublicHost(host string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.publicHost = host
}

// SetPrivateHost overrides the host prefixing private object URLs.
func (a *Account) SetPrivateHost(host string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.privateHost = host
}

// PublicHost returns the configured public host override, falling back to
// the authentication-derived host.
func (a *Account) PublicHost() string {
	a.mu.RLock()
	host := a.publicHost
	a.mu.RUnlock()
	if host != "" {
		return host
	}
	return a.tokens.Access().Host()
}

// PrivateHost returns the configured private host override, falling back
// to the authentication-derived host.
func (a *Account) PrivateHost() string {
	a.mu.RLock()
	host := a.privateHost
	a.mu.RUnlock()
	if host != "" {
		return host
	}
	return a.tokens.Access().Host()
}

// OriginalHost returns the authentication-derived host, irrespective of
// any configured override.
func (a *Account) OriginalHost() (string, error) {
	host := a.tokens.Access().Host()
	if host == "" {
		return "", errors.Wrap(ErrNotAuthenticated, "[Account.OriginalHost]")
	}
	return host, nil
}

// SetDelimiter sets the directory-boundary delimiter.
func (a *Account) SetDelimiter(delimiter rune) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delimiter = delimiter
}

// Delimiter returns the directory-boundary delimiter.
func (a *Account) Delimiter() rune {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.delimiter
}

// SetHashPassword stores the secret used to generate server-side hashes
// for TempURLs. It is never transmitted.
func (a *Account) SetHashPassword(password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hashPassword = password
}

// HashPassword returns the stored hash password.
func (a *Account) HashPassword() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hashPassword
}
