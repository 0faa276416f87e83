package service

import (
	"context"
	"errors"
	"sync"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/internal/storage"
	"github.com/gophercraft/gcportal-go/internal/telemetry/logger"
	"github.com/gophercraft/gcportal-go/internal/telemetry/metric"
)

// Transport performs JSON requests against the portal API.
//
// Implementations return *domain.PortalError values on failure.
type Transport interface {
	// Do sends body (may be nil) and decodes the response into out (may be nil).
	Do(ctx context.Context, method, path string, body, out any) error

	// Fetch performs a GET and returns the raw body and content type.
	Fetch(ctx context.Context, path string) ([]byte, string, error)
}

// CredentialStore persists the credential between runs.
//
// Load must return storage.ErrCredentialNotFound when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credential, error)
	Save(ctx context.Context, cred domain.Credential) error
	Delete(ctx context.Context) error
}

// Portal is the session/credential client.
type Portal struct {
	transport Transport
	store     CredentialStore
	logger    logger.Logger
	metrics   *metric.Registry

	stateMu   sync.Mutex
	state     domain.State
	listeners []*Subscription
	nextSubID uint64

	versionMu sync.Mutex
	version   *domain.VersionInfo
}

// Option configures a Portal.
type Option func(*Portal)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Portal) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records state transitions in r.
func WithMetrics(r *metric.Registry) Option {
	return func(p *Portal) { p.metrics = r }
}

// NewPortal creates a Portal in the unauthenticated state.
func NewPortal(transport Transport, store CredentialStore, opts ...Option) *Portal {
	p := &Portal{
		transport: transport,
		store:     store,
		logger:    logger.Default(),
		state:     domain.StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Credential returns the stored credential. ok is false when none is
// stored.
func (p *Portal) Credential(ctx context.Context) (cred domain.Credential, ok bool, err error) {
	cred, err = p.store.Load(ctx)
	if errors.Is(err, storage.ErrCredentialNotFound) {
		return domain.Credential{}, false, nil
	}
	if err != nil {
		return domain.Credential{}, false, domain.StorageError(err)
	}
	return cred, true, nil
}

// TokenLoader adapts a CredentialStore to the transport's credential
// source. Unreadable credentials are treated as absent.
func TokenLoader(store CredentialStore, log logger.Logger) func(ctx context.Context) string {
	if log == nil {
		log = logger.Default()
	}
	return func(ctx context.Context) string {
		cred, err := store.Load(ctx)
		if err != nil {
			if !errors.Is(err, storage.ErrCredentialNotFound) {
				log.Warn("ignoring unreadable credential", "error", err)
			}
			return ""
		}
		return cred.Token
	}
}
