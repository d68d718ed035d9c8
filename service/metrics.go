package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics of the generalize service. A nil *Metrics records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	deletedVertices prometheus.Counter
	updatedFeatures prometheus.Counter
}

// NewMetrics registers the service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "generalize",
			Name:      "requests_total",
			Help:      "Requests by operation and outcome",
		}, []string{"op", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "generalize",
			Name:      "request_duration_seconds",
			Help:      "Request latency by operation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"op"}),
		deletedVertices: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "generalize",
			Name:      "deletable_vertices_total",
			Help:      "Vertices reported as deletable by calculate requests",
		}),
		updatedFeatures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "generalize",
			Name:      "updated_features_total",
			Help:      "Features returned as updated or affected by apply requests",
		}),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome(err)).Inc()
	m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) addDeleted(n int) {
	if m == nil || n == 0 {
		return
	}
	m.deletedVertices.Add(float64(n))
}

func (m *Metrics) addUpdated(n int) {
	if m == nil || n == 0 {
		return
	}
	m.updatedFeatures.Add(float64(n))
}
