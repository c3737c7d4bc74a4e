// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery outcomes recorded on the deliveries counter.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeNotVideo  = "not_video"
	OutcomeMalformed = "malformed"
	OutcomeQueueFull = "queue_full"
)

type Metrics struct {
	registry *prometheus.Registry

	Deliveries  *prometheus.CounterVec
	Jobs        *prometheus.CounterVec
	QueueLength prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gva_deliveries_total",
			Help: "Inbound deliveries by admission outcome.",
		}, []string{"outcome"}),
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gva_jobs_total",
			Help: "Completed jobs by terminal status.",
		}, []string{"status"}),
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gva_queue_length",
			Help: "Jobs currently waiting in the processing queue.",
		}),
	}

	registry.MustRegister(m.Deliveries, m.Jobs, m.QueueLength)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
