package transportfakes

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-swift-client/access"
	"github.com/jrsteele09/go-swift-client/containers"
	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/jrsteele09/go-swift-client/tenants"
	"github.com/jrsteele09/go-swift-client/transport"
)

var _ transport.Transport = (*FakeTransport)(nil)

// FakeTransport is a hand-written Transport test double. Assign the stub
// functions to control behaviour; the call counters are safe to read from
// concurrent tests.
type FakeTransport struct {
	lock sync.Mutex

	SubmitCredentialsStub func(ctx context.Context, creds credentials.Credentials) (*access.Access, error)
	ListTenantsStub       func(ctx context.Context, token string) ([]tenants.Tenant, error)
	ListContainersStub    func(ctx context.Context, token, accountURL string, delimiter rune) ([]containers.Container, error)
	QueryServerTimeStub   func(ctx context.Context) (time.Time, error)
	QueryAccountStatsStub func(ctx context.Context, token, accountURL string) (transport.AccountStats, error)

	submitCredentialsCalls int
	listTenantsCalls       int
	listContainersCalls    int
	queryServerTimeCalls   int
	queryAccountStatsCalls int
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func (f *FakeTransport) SubmitCredentials(ctx context.Context, creds credentials.Credentials) (*access.Access, error) {
	f.lock.Lock()
	f.submitCredentialsCalls++
	stub := f.SubmitCredentialsStub
	f.lock.Unlock()

	if stub != nil {
		return stub(ctx, creds)
	}
	return &access.Access{Token: "fake-token", ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

func (f *FakeTransport) ListTenants(ctx context.Context, token string) ([]tenants.Tenant, error) {
	f.lock.Lock()
	f.listTenantsCalls++
	stub := f.ListTenantsStub
	f.lock.Unlock()

	if stub != nil {
		return stub(ctx, token)
	}
	return nil, nil
}

func (f *FakeTransport) ListContainers(ctx context.Context, token, accountURL string, delimiter rune) ([]containers.Container, error) {
	f.lock.Lock()
	f.listContainersCalls++
	stub := f.ListContainersStub
	f.lock.Unlock()

	if stub != nil {
		return stub(ctx, token, accountURL, delimiter)
	}
	return nil, nil
}

func (f *FakeTransport) QueryServerTime(ctx context.Context) (time.Time, error) {
	f.lock.Lock()
	f.queryServerTimeCalls++
	stub := f.QueryServerTimeStub
	f.lock.Unlock()

	if stub != nil {
		return stub(ctx)
	}
	return time.Now(), nil
}

func (f *FakeTransport) QueryAccountStats(ctx context.Context, token, accountURL string) (transport.AccountStats, error) {
	f.lock.Lock()
	f.queryAccountStatsCalls++
	stub := f.QueryAccountStatsStub
	f.lock.Unlock()

	if stub != nil {
		return stub(ctx, token, accountURL)
	}
	return transport.AccountStats{}, nil
}

func (f *FakeTransport) SubmitCredentialsCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.submitCredentialsCalls
}

func (f *FakeTransport) ListTenantsCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.listTenantsCalls
}

func (f *FakeTransport) ListContainersCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.listContainersCalls
}

func (f *FakeTransport) QueryServerTimeCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.queryServerTimeCalls
}

func (f *FakeTransport) QueryAccountStatsCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.queryAccountStatsCalls
}
