package access

import (
	"net/url"
	"time"
)

// Access is the opaque credential returned by authentication. The token is
// never interpreted by this client; only its expiry and the endpoints from
// the service catalog matter.
type Access struct {
	Token       string
	ExpiresAt   time.Time
	PublicURL   string // object-store endpoint from the service catalog
	InternalURL string // internal endpoint, empty when the catalog has none
	TenantID    string
	TenantName  string
}

// Expired reports whether the token has expired at the supplied moment.
// Callers pass a server-adjusted now; this type never reads the wall clock.
// A zero expiry means the server issued a non-expiring token.
func (a *Access) Expired(now time.Time) bool {
	if a == nil {
		return true
	}
	if a.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(a.ExpiresAt)
}

// Host returns the host portion of the public object-store endpoint, the
// "original host" the authentication response pointed at.
func (a *Access) Host() string {
	if a == nil || a.PublicURL == "" {
		return ""
	}
	u, err := url.Parse(a.PublicURL)
	if err != nil {
		return ""
	}
	return u.Host
}
