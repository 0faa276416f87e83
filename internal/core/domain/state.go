// Package domain defines the core domain models for the account portal.
package domain

// State is the client's view of whether its stored credential is authenticated.
type State int

const (
	// StateUnauthenticated means no credential has been confirmed by the server.
	StateUnauthenticated State = iota
	// StateAuthenticated means the server confirmed the stored credential.
	StateAuthenticated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
