package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/pkg/crypto/adaptive"
	"github.com/prometheus/client_golang/prometheus"
)

// credentialKey is the badger key of the credential record.
var credentialKey = []byte(domain.CredentialKey)

// BadgerConfig contains Badger-specific configuration.
type BadgerConfig struct {
	// Dir is the database directory.
	Dir string

	// KeyFile enables sealing when non-empty. The file is created with a
	// random key on first use.
	KeyFile string

	// InMemory runs badger without touching disk.
	InMemory bool

	// GCInterval is how often the value log is collected.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64
}

// DefaultBadgerConfig returns a config tuned for a single small record.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// BadgerStore implements CredentialStore using Badger v3.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	key    []byte
	logger *slog.Logger

	lastGCTime atomic.Int64 // Unix milliseconds

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge

	closeOnce sync.Once
	closed    atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewBadgerStore opens (or creates) the credential database.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}

	var key []byte
	if cfg.KeyFile != "" {
		var err error
		key, err = adaptive.LoadOrCreateKey(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("badger: load key: %w", err)
		}
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithLogger(&badgerLogger{logger: logger}).
		WithNumVersionsToKeep(1).
		WithSyncWrites(true)
	if cfg.InMemory {
		opts.Dir, opts.ValueDir = "", ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		key:    key,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go s.gcLoop()

	logger.Debug("credential store opened",
		"backend", BackendBadger,
		"dir", cfg.Dir,
		"sealed", key != nil)

	return s, nil
}

// Load implements CredentialStore.
func (s *BadgerStore) Load(ctx context.Context) (domain.Credential, error) {
	if s.closed.Load() {
		return domain.Credential{}, ErrClosed
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(credentialKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrCredentialNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return domain.Credential{}, err
	}

	if s.key != nil {
		value, err = adaptive.Open(s.key, value, credentialKey)
		if err != nil {
			return domain.Credential{}, fmt.Errorf("badger: unseal credential: %w", err)
		}
	}
	return decodeCredential(value)
}

// Save implements CredentialStore.
func (s *BadgerStore) Save(ctx context.Context, cred domain.Credential) error {
	if s.closed.Load() {
		return ErrClosed
	}

	value, err := encodeCredential(cred)
	if err != nil {
		return err
	}
	if s.key != nil {
		value, err = adaptive.Seal(s.key, value, credentialKey)
		if err != nil {
			return fmt.Errorf("badger: seal credential: %w", err)
		}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(credentialKey, value)
	})
}

// Delete implements CredentialStore.
func (s *BadgerStore) Delete(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(credentialKey)
	})
}

// putRaw writes bytes under the credential key without encoding or sealing.
func (s *BadgerStore) putRaw(value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(credentialKey, value)
	})
}

// GC collects the value log until badger reports nothing to rewrite.
func (s *BadgerStore) GC() error {
	if s.cfg.InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
	}
	s.lastGCTime.Store(time.Now().UnixMilli())
	return nil
}

// Close gracefully shuts down the store.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
	})
	return err
}

// RegisterMetrics registers size gauges with Prometheus.
//
// Gauges are refreshed on every GC tick and once on registration.
// Returns the store for method chaining.
func (s *BadgerStore) RegisterMetrics(registry prometheus.Registerer) *BadgerStore {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gcportal",
		Subsystem: "store",
		Name:      "lsm_size_bytes",
		Help:      "Credential store LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gcportal",
		Subsystem: "store",
		Name:      "value_log_size_bytes",
		Help:      "Credential store value log size in bytes",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gcportal",
		Subsystem: "store",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value log GC",
	})

	registry.MustRegister(s.metricsLSMSize, s.metricsValueLogSize, s.metricsLastGCTime)
	s.updateMetrics()
	return s
}

func (s *BadgerStore) updateMetrics() {
	if s.metricsLSMSize == nil {
		return
	}
	lsm, vlog := s.db.Size()
	s.metricsLSMSize.Set(float64(lsm))
	s.metricsValueLogSize.Set(float64(vlog))
	if ms := s.lastGCTime.Load(); ms > 0 {
		s.metricsLastGCTime.Set(float64(ms) / 1000.0)
	}
}

// gcLoop runs periodic garbage collection.
func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.GC(); err != nil {
				s.logger.Error("credential store gc failed", "error", err)
			}
			s.updateMetrics()
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger is chatty at info level, so its info records are demoted.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
