package account

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-swift-client/access"
	"github.com/jrsteele09/go-swift-client/containers"
	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/jrsteele09/go-swift-client/tenants"
	"github.com/jrsteele09/go-swift-client/transport"
)

var _ transport.Transport = (*countingTransport)(nil)

// countingTransport decorates a Transport so every outbound call bumps the
// account's call counter, whichever component issues it.
type countingTransport struct {
	inner transport.Transport
	calls *atomic.Int64
}

func (c *countingTransport) SubmitCredentials(ctx context.Context, creds credentials.Credentials) (*access.Access, error) {
	c.calls.Add(1)
	return c.inner.SubmitCredentials(ctx, creds)
}

func (c *countingTransport) ListTenants(ctx context.Context, token string) ([]tenants.Tenant, error) {
	c.calls.Add(1)
	return c.inner.ListTenants(ctx, token)
}

func (c *countingTransport) ListContainers(ctx context.Context, token, accountURL string, delimiter rune) ([]containers.Container, error) {
	c.calls.Add(1)
	return c.inner.ListContainers(ctx, token, accountURL, delimiter)
}

func (c *countingTransport) QueryServerTime(ctx context.Context) (time.Time, error) {
	c.calls.Add(1)
	return c.inner.QueryServerTime(ctx)
}

func (c *countingTransport) QueryAccountStats(ctx context.Context, token, accountURL string) (transport.AccountStats, error) {
	c.calls.Add(1)
	return c.inner.QueryAccountStats(ctx, token, accountURL)
}
