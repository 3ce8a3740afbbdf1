package transport

import (
	"context"
	"time"

	"github.com/jrsteele09/go-swift-client/access"
	"github.com/jrsteele09/go-swift-client/containers"
	"github.com/jrsteele09/go-swift-client/credentials"
	"github.com/jrsteele09/go-swift-client/tenants"
	"github.com/pkg/errors"
)

// ErrAuthenticationRejected indicates the remote server refused the
// submitted credentials. Any other error from a Transport is an opaque
// transport failure and is never interpreted by callers.
var ErrAuthenticationRejected = errors.New("authentication rejected by server")

// AccountStats holds the account-level usage figures reported by the
// object store.
type AccountStats struct {
	BytesUsed      int64
	ObjectCount    int64
	ContainerCount int64
}

// Transport performs the actual HTTP exchanges with the identity service
// and the object store. The session layer depends on nothing else.
type Transport interface {
	// SubmitCredentials exchanges credentials for an access token. For
	// Keystone the returned access is scoped to the tenant carried by
	// the credentials, or unscoped when none is set.
	SubmitCredentials(ctx context.Context, creds credentials.Credentials) (*access.Access, error)

	// ListTenants returns the tenants visible to the holder of token.
	ListTenants(ctx context.Context, token string) ([]tenants.Tenant, error)

	// ListContainers lists the containers under the account storage URL.
	ListContainers(ctx context.Context, token, accountURL string, delimiter rune) ([]containers.Container, error)

	// QueryServerTime returns the remote server's current time.
	QueryServerTime(ctx context.Context) (time.Time, error)

	// QueryAccountStats returns account usage metadata.
	QueryAccountStats(ctx context.Context, token, accountURL string) (AccountStats, error)
}
