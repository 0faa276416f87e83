// Package domain defines the core domain models for the account portal.
//
// Domain models are plain value objects without IO dependencies. This
// package contains:
//
//   - State: the client's authentication state
//   - Credential: the persisted username and token pair
//   - Challenge, account, realm and 2FA records exchanged with the API
//   - Errors: the tagged PortalError returned at the transport boundary
//
// Every response record carries an optional ErrorMessage. A non-empty
// value signals an application-level failure and is turned into a
// PortalError by the transport before a record reaches its caller.
package domain
