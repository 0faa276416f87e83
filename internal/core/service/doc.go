// Package service provides the portal session client.
//
// Portal is the single object a front end talks to. It orchestrates each
// account use case as one fallible call and owns:
//
//   - the in-memory session state and its listeners
//   - the persisted credential (through a CredentialStore)
//   - the version info cache
//
// Portal defines interfaces for its transport and storage dependencies,
// allowing for dependency injection and testability. It is safe for
// concurrent use; requests are not de-duplicated or ordered relative to
// each other.
package service
