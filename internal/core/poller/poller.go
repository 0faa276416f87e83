// Package poller runs a fetch on a fixed interval for as long as a view
// is open.
//
// Failures are logged and counted but never stop the loop. There is no
// backoff.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/gophercraft/gcportal-go/internal/telemetry/logger"
	"github.com/gophercraft/gcportal-go/internal/telemetry/metric"
)

// DefaultInterval matches the realm list refresh rate.
const DefaultInterval = 3 * time.Second

// Func is one poll. The context is cancelled when the poller stops.
type Func func(ctx context.Context) error

// Poller invokes a Func every interval until stopped.
type Poller struct {
	name      string
	fn        Func
	interval  time.Duration
	immediate bool
	logger    logger.Logger
	metrics   *metric.Registry

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the tick interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithImmediate runs the first poll on Start instead of after one interval.
func WithImmediate() Option {
	return func(p *Poller) { p.immediate = true }
}

// WithLogger sets the logger used for poll failures.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics counts polls and failures in r.
func WithMetrics(r *metric.Registry) Option {
	return func(p *Poller) { p.metrics = r }
}

// New creates a stopped Poller.
func New(name string, fn Func, opts ...Option) *Poller {
	p := &Poller{
		name:     name,
		fn:       fn,
		interval: DefaultInterval,
		logger:   logger.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the loop. It runs until Stop is called or ctx is done.
// Calling Start more than once, or after Stop, has no effect.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop cancels the loop and waits for it to exit. No poll runs after Stop
// returns. Stop is safe to call multiple times and before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	started := p.started
	cancel := p.cancel
	p.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-p.done
}

// Done is closed when the loop exits.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if p.immediate {
		p.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("poller stopped", "poller", p.name)
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	err := p.fn(ctx)
	// A poll cut short by Stop is neither counted nor a failure. One that
	// completed before the stop still is.
	if err != nil && ctx.Err() != nil {
		return
	}
	p.metrics.ObservePoll(err)
	if err != nil {
		p.logger.Warn("poll failed", "poller", p.name, "error", err)
	}
}
