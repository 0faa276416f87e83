// Package adaptive seals small secrets at rest.
//
// A cipher is selected from the host architecture:
//
//   - AES-256-GCM where the CPU has AES instructions (amd64, arm64)
//   - ChaCha20-Poly1305 everywhere else
//
// Sealed envelopes carry a one byte algorithm tag in front of the nonce,
// so data written on one machine can be opened on another with the same
// key regardless of which algorithm the reader would have picked.
//
// Usage:
//
//	key, err := adaptive.LoadOrCreateKey(path)
//	sealed, err := adaptive.Seal(key, plaintext, aad)
//	plaintext, err := adaptive.Open(key, sealed, aad)
package adaptive
