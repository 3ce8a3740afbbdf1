package token

// State is the lifecycle state of an account's authentication session.
type State int

const (
	// StateUnauthenticated means no authentication has been attempted.
	StateUnauthenticated State = iota

	// StateAuthenticating means a credential exchange is in flight.
	StateAuthenticating

	// StateValid means the stored token has not expired.
	StateValid

	// StateExpired means the stored token's expiry has passed. Detected
	// lazily; the stored state stays StateValid until observed.
	StateExpired

	// StateAuthFailed means the last credential exchange failed. The
	// state persists until a fresh authentication is issued.
	StateAuthFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateAuthFailed:
		return "auth failed"
	default:
		return "unknown"
	}
}
