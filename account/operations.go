package account

import (
	"context"

	"github.com/jrsteele09/go-swift-client/containers"
	"github.com/jrsteele09/go-swift-client/tenants"
	"github.com/jrsteele09/go-swift-client/transport"
	"github.com/pkg/errors"
)

// BytesUsed returns the number of bytes stored across all containers.
func (a *Account) BytesUsed(ctx context.Context) (int64, error) {
	stats, err := a.stats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.BytesUsed, nil
}

// ObjectCount returns the number of stored objects across all containers.
func (a *Account) ObjectCount(ctx context.Context) (int64, error) {
	stats, err := a.stats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.ObjectCount, nil
}

// ContainerCount returns the number of containers under the account.
func (a *Account) ContainerCount(ctx context.Context) (int64, error) {
	stats, err := a.stats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.ContainerCount, nil
}

func (a *Account) stats(ctx context.Context) (transport.AccountStats, error) {
	acc, err := a.ensureToken(ctx)
	if err != nil {
		return transport.AccountStats{}, err
	}
	stats, err := a.transport.QueryAccountStats(ctx, acc.Token, acc.PublicURL)
	if err != nil {
		return transport.AccountStats{}, errors.Wrap(err, "[Account.stats] QueryAccountStats")
	}
	return stats, nil
}

// Containers lists the containers under the account. When caching is
// enabled the returned handles also populate the cache.
func (a *Account) Containers(ctx context.Context) ([]containers.Container, error) {
	acc, err := a.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	listing, err := a.transport.ListContainers(ctx, acc.Token, acc.PublicURL, a.Delimiter())
	if err != nil {
		return nil, errors.Wrap(err, "[Account.Containers] ListContainers")
	}

	if a.IsAllowContainerCaching() {
		for i := range listing {
			handle := listing[i]
			a.cache.Put(&handle)
		}
	}
	return listing, nil
}

// Container returns the handle for the named container. With caching
// enabled the lookup is served from the cache when possible; disabled, it
// always goes to the object store.
func (a *Account) Container(ctx context.Context, name string) (*containers.Container, error) {
	loader := func() (*containers.Container, error) {
		return a.lookupContainer(ctx, name)
	}

	if !a.IsAllowContainerCaching() {
		return loader()
	}
	return a.cache.GetOrLoad(name, loader)
}

func (a *Account) lookupContainer(ctx context.Context, name string) (*containers.Container, error) {
	acc, err := a.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	listing, err := a.transport.ListContainers(ctx, acc.Token, acc.PublicURL, a.Delimiter())
	if err != nil {
		return nil, errors.Wrap(err, "[Account.lookupContainer] ListContainers")
	}
	for i := range listing {
		if listing[i].Name == name {
			return &listing[i], nil
		}
	}
	return nil, errors.Wrapf(ErrContainerNotFound, "[Account.lookupContainer] %q", name)
}

// Tenants lists the tenants of the account. This is the only operation
// that works when no tenant has been supplied or discovered; it is how a
// caller finds the tenant to configure.
func (a *Account) Tenants(ctx context.Context) ([]tenants.Tenant, error) {
	// Reuse the live token when there is one.
	if acc := a.tokens.Access(); acc != nil && !acc.Expired(a.clock.ServerTime()) {
		list, err := a.transport.ListTenants(ctx, acc.Token)
		if err != nil {
			return nil, errors.Wrap(err, "[Account.Tenants] ListTenants")
		}
		return list, nil
	}

	if err := a.creds.Validate(); err != nil {
		return nil, err
	}

	// An unscoped exchange is enough to list tenants; this must work even
	// when tenant auto-discovery would fail as ambiguous.
	unscoped, err := a.transport.SubmitCredentials(ctx, a.creds.WithTenant("", ""))
	if err != nil {
		return nil, errors.Wrap(err, "[Account.Tenants] SubmitCredentials")
	}
	list, err := a.transport.ListTenants(ctx, unscoped.Token)
	if err != nil {
		return nil, errors.Wrap(err, "[Account.Tenants] ListTenants")
	}
	return list, nil
}
