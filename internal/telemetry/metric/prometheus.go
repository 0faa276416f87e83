package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gcportal"

// Request outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeApplication = "application_error"
	OutcomeTransport   = "transport_error"
	OutcomeNetwork     = "network_error"
	OutcomeDecode      = "decode_error"
)

// Registry holds all client metrics.
//
// A nil *Registry is valid and records nothing.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	StateTransitions *prometheus.CounterVec
	PollsTotal       prometheus.Counter
	PollFailures     prometheus.Counter
}

// NewRegistry creates a registry with every client metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by endpoint, method and outcome",
		}, []string{"endpoint", "method", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state_transitions_total",
			Help:      "Session state changes by target state",
		}, []string{"state"}),
		PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "ticks_total",
			Help:      "Poll ticks executed",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "failures_total",
			Help:      "Poll ticks whose fetch failed",
		}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.StateTransitions,
		r.PollsTotal,
		r.PollFailures,
		collectors.NewGoCollector(),
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Registerer exposes the underlying registry so other packages can add
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// ObserveRequest records one API call.
func (r *Registry) ObserveRequest(endpoint, method, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(endpoint, method, outcome).Inc()
	r.RequestDuration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

// ObserveState records a session state change.
func (r *Registry) ObserveState(state string) {
	if r == nil {
		return
	}
	r.StateTransitions.WithLabelValues(state).Inc()
}

// ObservePoll records one poll tick.
func (r *Registry) ObservePoll(err error) {
	if r == nil {
		return
	}
	r.PollsTotal.Inc()
	if err != nil {
		r.PollFailures.Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{})
}
