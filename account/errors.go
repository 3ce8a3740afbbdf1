package account

import "github.com/pkg/errors"

var (
	// ErrNotAuthenticated means an accessor that needs authentication
	// metadata (such as the original host) was called before any
	// successful authentication.
	ErrNotAuthenticated = errors.New("account has not authenticated")

	// ErrContainerNotFound means the named container does not exist
	// under the account.
	ErrContainerNotFound = errors.New("container not found")

	// ErrNoHashPassword means a TempURL was requested without a hash
	// password configured; the server-side hash cannot be generated.
	ErrNoHashPassword = errors.New("no hash password set")
)
