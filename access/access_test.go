package access_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-swift-client/access"
	"github.com/stretchr/testify/require"
)

func TestAccess_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil access is expired", func(t *testing.T) {
		var a *access.Access
		require.True(t, a.Expired(now))
	})

	t.Run("zero expiry never expires", func(t *testing.T) {
		a := &access.Access{Token: "tok"}
		require.False(t, a.Expired(now))
	})

	t.Run("before expiry", func(t *testing.T) {
		a := &access.Access{Token: "tok", ExpiresAt: now.Add(time.Minute)}
		require.False(t, a.Expired(now))
	})

	t.Run("at expiry", func(t *testing.T) {
		a := &access.Access{Token: "tok", ExpiresAt: now}
		require.True(t, a.Expired(now))
	})

	t.Run("after expiry", func(t *testing.T) {
		a := &access.Access{Token: "tok", ExpiresAt: now.Add(-time.Second)}
		require.True(t, a.Expired(now))
	})
}

func TestAccess_Host(t *testing.T) {
	a := &access.Access{PublicURL: "https://storage.example.com:8080/v1/AUTH_tenant"}
	require.Equal(t, "storage.example.com:8080", a.Host())

	require.Equal(t, "", (&access.Access{}).Host())
	require.Equal(t, "", (*access.Access)(nil).Host())
}
