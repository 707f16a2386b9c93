package db

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	storeProjects = "projects"
	storeEvents   = "events"
)

// Metrics counts store operations and their rejections. A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	rejections *prometheus.CounterVec
	corrupt    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqr1_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"store", "operation"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqr1_rejections_total",
				Help: "Total number of store operations that returned an error, by reason",
			},
			[]string{"store", "reason"},
		),
		corrupt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqr1_corrupt_records_total",
				Help: "Total number of reads that found an undecodable record and treated it as empty",
			},
			[]string{"key"},
		),
	}

	reg.MustRegister(m.operations, m.rejections, m.corrupt)

	return m
}

func (m *Metrics) observe(store, operation string, err error) {
	if m == nil {
		return
	}

	m.operations.WithLabelValues(store, operation).Inc()

	if err != nil {
		m.rejections.WithLabelValues(store, rejectionReason(err)).Inc()
	}
}

func (m *Metrics) corruptRecord(key string) {
	if m == nil {
		return
	}

	m.corrupt.WithLabelValues(key).Inc()
}

func rejectionReason(err error) string {
	switch {
	case IsLimit(err):
		return "limit"
	case IsInvalid(err):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "storage"
	}
}
