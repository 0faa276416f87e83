package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
)

// Common errors
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrClosed             = errors.New("credential store closed")
)

// CredentialStore persists the single portal credential.
//
// Implementations must be safe for concurrent use.
type CredentialStore interface {
	// Load returns the stored credential or ErrCredentialNotFound.
	Load(ctx context.Context) (domain.Credential, error)

	// Save replaces the stored credential.
	Save(ctx context.Context, cred domain.Credential) error

	// Delete removes the stored credential. Deleting a missing credential
	// is not an error.
	Delete(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string
	Encrypt bool
	KeyFile string
	Redis   RedisConfig
}

// Open creates the backend named by cfg.Backend.
func Open(cfg Config, logger *slog.Logger) (CredentialStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendBadger:
		bc := DefaultBadgerConfig(cfg.Dir)
		if cfg.Encrypt {
			bc.KeyFile = cfg.KeyFile
			if bc.KeyFile == "" {
				bc.KeyFile = filepath.Join(cfg.Dir, "store.key")
			}
		}
		s, err := NewBadgerStore(bc, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		s, err := NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

func encodeCredential(cred domain.Credential) ([]byte, error) {
	return json.Marshal(cred)
}

func decodeCredential(data []byte) (domain.Credential, error) {
	var cred domain.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return domain.Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	return cred, nil
}
