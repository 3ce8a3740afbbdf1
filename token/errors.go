package token

import "github.com/pkg/errors"

var (
	// ErrTenantAmbiguous means Keystone tenant auto-discovery found zero
	// or multiple tenants, so the account cannot be scoped automatically.
	ErrTenantAmbiguous = errors.New("tenant could not be auto-discovered")

	// ErrTenantNotSupplied means an operation requiring a tenant was
	// attempted before a tenant was supplied or discovered.
	ErrTenantNotSupplied = errors.New("no tenant supplied")

	// ErrTokenExpiredNoReauth means the token expired while automatic
	// reauthentication is disabled; the caller must reauthenticate
	// manually.
	ErrTokenExpiredNoReauth = errors.New("authentication expired and reauthentication is disabled")
)
