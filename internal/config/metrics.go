package config

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters the lifecycle engine reports. A private registry
// keeps test instances from colliding on duplicate registration.
type Metrics struct {
	Registry *prometheus.Registry

	Transitions    *prometheus.CounterVec
	ApprovedAmount prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coswo_donation_transitions_total",
		Help: "Donation status transitions by from/to state.",
	}, []string{"from", "to"})

	approvedAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coswo_approved_amount_total",
		Help: "Sum of approved donation amounts.",
	})

	registry.MustRegister(transitions, approvedAmount)

	return &Metrics{
		Registry:       registry,
		Transitions:    transitions,
		ApprovedAmount: approvedAmount,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
