package observability

import (
	"context"
	"errors"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "squadchat"

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	NodeVisits   *prometheus.CounterVec
	NodeFailures *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	Suspensions  prometheus.Counter
	Finishes     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_visits_total",
			Help:      "Total number of node visits.",
		}, []string{"node_id"}),
		NodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_failures_total",
			Help:      "Steps that returned an error, by node and cause.",
		}, []string{"node_id", "cause"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Handler run time per node.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node_id"}),
		Suspensions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspensions_total",
			Help:      "Turns paused for a clarification answer.",
		}),
		Finishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finishes_total",
			Help:      "Finished turns by the outcome of their last step.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.NodeVisits, m.NodeFailures, m.NodeDuration, m.Suspensions, m.Finishes)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID.String()).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeDuration.WithLabelValues(e.NodeID.String()).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.NodeFailures.WithLabelValues(e.NodeID.String(), cause(e.Err)).Inc()
			}
		},
		OnSuspend: func(context.Context, *domain.NodeEvent) {
			m.Suspensions.Inc()
		},
		OnFinish: func(_ context.Context, e *domain.NodeEvent) {
			m.Finishes.WithLabelValues(string(e.Outcome)).Inc()
		},
	}
}

func cause(err error) string {
	switch {
	case errors.Is(err, domain.ErrCollaborator):
		return "collaborator"
	case errors.Is(err, domain.ErrInvariantViolation):
		return "invariant"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
