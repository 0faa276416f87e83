// Package storage persists the portal credential between CLI invocations.
//
// Every backend stores a single JSON record under the fixed key
// "credential":
//
//   - BadgerStore: embedded badger/v3 database, optionally sealed with
//     pkg/crypto/adaptive (default)
//   - RedisStore: shared redis instance, for kiosk style deployments
//   - MemoryStore: process local, used by tests and one-shot sessions
package storage
