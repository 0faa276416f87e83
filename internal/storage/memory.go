package storage

import (
	"context"
	"sync"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
)

// MemoryStore keeps the credential in process memory. It stores the
// encoded record so that tests observe the same bytes a persistent
// backend would write.
type MemoryStore struct {
	mu     sync.RWMutex
	data   []byte
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements CredentialStore.
func (s *MemoryStore) Load(ctx context.Context) (domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.Credential{}, ErrClosed
	}
	if s.data == nil {
		return domain.Credential{}, ErrCredentialNotFound
	}
	return decodeCredential(s.data)
}

// Save implements CredentialStore.
func (s *MemoryStore) Save(ctx context.Context, cred domain.Credential) error {
	data, err := encodeCredential(cred)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data = data
	return nil
}

// Delete implements CredentialStore.
func (s *MemoryStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data = nil
	return nil
}

// Raw returns the encoded record, or nil when nothing is stored.
func (s *MemoryStore) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil
	}
	return append([]byte(nil), s.data...)
}

// SetRaw stores arbitrary bytes as the credential record, bypassing
// encoding. Useful for simulating hand-edited or corrupted state.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}

// Close implements CredentialStore.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
