// Package metrics provides Prometheus metrics for the presentation runtime.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every metric of a process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	transitions     *prometheus.CounterVec
	actions         *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	votes           *prometheus.CounterVec
	stateWrites     *prometheus.CounterVec
	subscribers     *prometheus.GaugeVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a manager on a fresh registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "liveslides",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.transitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "phase_transitions_total",
		Help:      "Phase transitions by target phase and source",
	}, []string{"phase", "source"})

	m.actions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "actions_total",
		Help:      "Pipeline actions by type and result",
	}, []string{"type", "result"})

	m.eventsPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_published_total",
		Help:      "Response events appended to streams by type",
	}, []string{"type"})

	m.votes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tally_votes_total",
		Help:      "Tally events received per presentation",
	}, []string{"code"})

	m.stateWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "state_writes_total",
		Help:      "Current-slide changes per presentation",
	}, []string{"code"})

	m.subscribers = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscribers",
		Help:      "Open SSE and WebSocket subscribers by transport",
	}, []string{"transport"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})
}

// Enabled reports whether metrics are recorded.
func (m *Manager) Enabled() bool { return m != nil && m.enabled }

// Registry returns the registry holding every metric.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that feed the runtime counters.
func (m *Manager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.RecordTransition(e.To, e.Source)
		},
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			m.RecordAction(e.Type, e.Err == nil)
		},
		OnPublish: func(_ context.Context, e *domain.ResponseEvent) {
			m.RecordPublish(e.Type)
		},
	}
}

// RecordTransition counts a phase change.
func (m *Manager) RecordTransition(to domain.Phase, source string) {
	if !m.Enabled() {
		return
	}
	m.transitions.WithLabelValues(string(to), source).Inc()
}

// RecordAction counts an executed pipeline action.
func (m *Manager) RecordAction(t domain.ActionType, ok bool) {
	if !m.Enabled() {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.actions.WithLabelValues(string(t), result).Inc()
}

// RecordPublish counts a response event appended to a stream.
func (m *Manager) RecordPublish(t domain.ActionType) {
	if !m.Enabled() {
		return
	}
	m.eventsPublished.WithLabelValues(string(t)).Inc()
}

// RecordVotes counts n Tally events received for code.
func (m *Manager) RecordVotes(code string, n int) {
	if !m.Enabled() || n <= 0 {
		return
	}
	m.votes.WithLabelValues(code).Add(float64(n))
}

// RecordStateWrite counts a current-slide change.
func (m *Manager) RecordStateWrite(code string) {
	if !m.Enabled() {
		return
	}
	m.stateWrites.WithLabelValues(code).Inc()
}

// SubscriberOpened tracks an opened live connection; the returned func closes it.
func (m *Manager) SubscriberOpened(transport string) func() {
	if !m.Enabled() {
		return func() {}
	}
	g := m.subscribers.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}

// ObserveHTTP records one served request.
func (m *Manager) ObserveHTTP(method, route string, status int, d time.Duration) {
	if !m.Enabled() {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
