package token_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-swift-client/access"
	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/jrsteele09/go-swift-client/servertime"
	"github.com/jrsteele09/go-swift-client/tenants"
	"github.com/jrsteele09/go-swift-client/token"
	"github.com/jrsteele09/go-swift-client/transport"
	"github.com/jrsteele09/go-swift-client/transport/transportfakes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// testClock is a controllable local clock shared by the synchronizer and
// the fake transport.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock     *testClock
	transport *transportfakes.FakeTransport
	manager   *token.Manager
}

func validCreds() credentials.Credentials {
	return credentials.Credentials{
		Method:     credentials.MethodKeystone,
		Username:   "john",
		Password:   "secret",
		AuthURL:    "http://identity.example.com/v2.0",
		TenantName: "acme",
	}
}

func setupFixture(t *testing.T, creds credentials.Credentials, options ...token.ManagerOption) *fixture {
	t.Helper()

	clock := newTestClock()
	fake := transportfakes.NewFakeTransport()

	// Keep the server clock aligned with the test clock so the offset
	// stays zero unless a test moves it.
	fake.QueryServerTimeStub = func(context.Context) (time.Time, error) {
		return clock.Now(), nil
	}

	issued := 0
	fake.SubmitCredentialsStub = func(_ context.Context, c credentials.Credentials) (*access.Access, error) {
		issued++
		return &access.Access{
			Token:      fmt.Sprintf("token-%d", issued),
			ExpiresAt:  clock.Now().Add(time.Hour),
			PublicURL:  "https://storage.example.com/v1/AUTH_acme",
			TenantID:   c.TenantID,
			TenantName: c.TenantName,
		}, nil
	}

	synchronizer := servertime.New(fake, servertime.WithNowFunc(clock.Now))
	return &fixture{
		clock:     clock,
		transport: fake,
		manager:   token.New(fake, synchronizer, creds, options...),
	}
}

func TestManager_CredentialErrorBeforeNetwork(t *testing.T) {
	creds := validCreds()
	creds.Password = ""
	f := setupFixture(t, creds)

	_, err := f.manager.Authenticate(context.Background())
	require.ErrorIs(t, err, credentials.ErrCredentials)
	require.Equal(t, 0, f.transport.SubmitCredentialsCallCount())
	require.Equal(t, token.StateUnauthenticated, f.manager.State())
}

func TestManager_AuthenticateIsIdempotentWhileValid(t *testing.T) {
	f := setupFixture(t, validCreds())
	ctx := context.Background()

	first, err := f.manager.Authenticate(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-1", first.Token)
	require.Equal(t, token.StateValid, f.manager.State())

	for i := 0; i < 3; i++ {
		again, err := f.manager.Authenticate(ctx)
		require.NoError(t, err)
		require.Equal(t, first.Token, again.Token)

		ensured, err := f.manager.EnsureValid(ctx)
		require.NoError(t, err)
		require.Equal(t, first.Token, ensured.Token)
	}

	require.Equal(t, 1, f.transport.SubmitCredentialsCallCount())
}

func TestManager_AuthenticationTriggersClockSync(t *testing.T) {
	f := setupFixture(t, validCreds())

	_, err := f.manager.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.transport.QueryServerTimeCallCount())
}

func TestManager_ExpiredWithReauthDisabled(t *testing.T) {
	f := setupFixture(t, validCreds())
	ctx := context.Background()

	first, err := f.manager.Authenticate(ctx)
	require.NoError(t, err)

	f.manager.SetAllowReauthenticate(false)
	require.False(t, f.manager.AllowReauthenticate())

	f.clock.Advance(2 * time.Hour)
	require.Equal(t, token.StateExpired, f.manager.State())

	_, err = f.manager.EnsureValid(ctx)
	require.ErrorIs(t, err, token.ErrTokenExpiredNoReauth)

	// The stored token must be left untouched and no exchange issued.
	require.Equal(t, first.Token, f.manager.Access().Token)
	require.Equal(t, 1, f.transport.SubmitCredentialsCallCount())
}

func TestManager_ExpiredWithReauthEnabled(t *testing.T) {
	f := setupFixture(t, validCreds())
	ctx := context.Background()

	first, err := f.manager.Authenticate(ctx)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	refreshed, err := f.manager.EnsureValid(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, refreshed.Token)
	require.True(t, refreshed.ExpiresAt.After(first.ExpiresAt))
	require.Equal(t, 2, f.transport.SubmitCredentialsCallCount())
	require.Equal(t, token.StateValid, f.manager.State())
}

func TestManager_ConcurrentReauthenticationIsSingleFlight(t *testing.T) {
	f := setupFixture(t, validCreds())
	ctx := context.Background()

	_, err := f.manager.Authenticate(ctx)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	var group errgroup.Group
	for i := 0; i < 16; i++ {
		group.Go(func() error {
			a, err := f.manager.EnsureValid(ctx)
			if err != nil {
				return err
			}
			if a.Expired(f.clock.Now()) {
				return errors.New("got an expired token")
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())

	// One initial exchange plus exactly one shared reauthentication.
	require.Equal(t, 2, f.transport.SubmitCredentialsCallCount())
}

func TestManager_AuthenticationRejected(t *testing.T) {
	f := setupFixture(t, validCreds())
	f.transport.SubmitCredentialsStub = func(context.Context, credentials.Credentials) (*access.Access, error) {
		return nil, errors.Wrap(transport.ErrAuthenticationRejected, "status 401")
	}

	_, err := f.manager.Authenticate(context.Background())
	require.ErrorIs(t, err, transport.ErrAuthenticationRejected)
	require.Equal(t, token.StateAuthFailed, f.manager.State())
	require.Nil(t, f.manager.Access())

	// The failed state persists until a fresh authentication succeeds.
	_, err = f.manager.EnsureValid(context.Background())
	require.Error(t, err)
	require.Equal(t, token.StateAuthFailed, f.manager.State())
}

func TestManager_TransportFailureSurfacesOpaque(t *testing.T) {
	f := setupFixture(t, validCreds())
	boom := errors.New("connection reset")
	f.transport.SubmitCredentialsStub = func(context.Context, credentials.Credentials) (*access.Access, error) {
		return nil, boom
	}

	_, err := f.manager.Authenticate(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, token.StateAuthFailed, f.manager.State())
}

func TestManager_KeystoneTenantAutoDiscovery(t *testing.T) {
	creds := validCreds()
	creds.TenantName = ""

	t.Run("two tenants is ambiguous", func(t *testing.T) {
		f := setupFixture(t, creds)
		f.transport.ListTenantsStub = func(context.Context, string) ([]tenants.Tenant, error) {
			return []tenants.Tenant{{ID: "t1", Name: "one"}, {ID: "t2", Name: "two"}}, nil
		}

		_, err := f.manager.Authenticate(context.Background())
		require.ErrorIs(t, err, token.ErrTenantAmbiguous)
		require.False(t, f.manager.TenantSupplied())
		require.Equal(t, token.StateAuthFailed, f.manager.State())
	})

	t.Run("zero tenants is ambiguous", func(t *testing.T) {
		f := setupFixture(t, creds)
		f.transport.ListTenantsStub = func(context.Context, string) ([]tenants.Tenant, error) {
			return nil, nil
		}

		_, err := f.manager.Authenticate(context.Background())
		require.ErrorIs(t, err, token.ErrTenantAmbiguous)
		require.False(t, f.manager.TenantSupplied())
	})

	t.Run("exactly one tenant is auto-selected", func(t *testing.T) {
		f := setupFixture(t, creds)
		f.transport.ListTenantsStub = func(context.Context, string) ([]tenants.Tenant, error) {
			return []tenants.Tenant{{ID: "t1", Name: "solo", Enabled: true}}, nil
		}

		var scoped credentials.Credentials
		issued := 0
		f.transport.SubmitCredentialsStub = func(_ context.Context, c credentials.Credentials) (*access.Access, error) {
			issued++
			scoped = c
			return &access.Access{
				Token:     fmt.Sprintf("token-%d", issued),
				ExpiresAt: f.clock.Now().Add(time.Hour),
			}, nil
		}

		a, err := f.manager.Authenticate(context.Background())
		require.NoError(t, err)
		require.Equal(t, "token-2", a.Token)

		// Unscoped exchange, tenant listing, then scoped exchange.
		require.Equal(t, 2, f.transport.SubmitCredentialsCallCount())
		require.Equal(t, 1, f.transport.ListTenantsCallCount())
		require.Equal(t, "t1", scoped.TenantID)

		require.True(t, f.manager.TenantSupplied())
		require.Equal(t, "solo", f.manager.Tenant().Name)
	})
}

func TestManager_Reload(t *testing.T) {
	f := setupFixture(t, validCreds())
	ctx := context.Background()

	first, err := f.manager.Authenticate(ctx)
	require.NoError(t, err)

	// Reload forces a fresh exchange even though the token is still valid.
	reloaded, err := f.manager.Reload(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, reloaded.Token)
	require.Equal(t, 2, f.transport.SubmitCredentialsCallCount())
	require.Equal(t, token.StateValid, f.manager.State())
}

func TestManager_CancellationLeavesAuthFailed(t *testing.T) {
	f := setupFixture(t, validCreds())

	ctx, cancel := context.WithCancel(context.Background())
	f.transport.SubmitCredentialsStub = func(_ context.Context, _ credentials.Credentials) (*access.Access, error) {
		cancel()
		return &access.Access{Token: "half-done", ExpiresAt: f.clock.Now().Add(time.Hour)}, nil
	}

	_, err := f.manager.Authenticate(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, token.StateAuthFailed, f.manager.State())
	require.Nil(t, f.manager.Access())
}
