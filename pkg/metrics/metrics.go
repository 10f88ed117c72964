// Package metrics holds the prometheus collectors shared by the engine, the
// router and the dispatch loop. A nil *Metrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "record"

type Metrics struct {
	Statements    *prometheus.CounterVec
	StorageErrors *prometheus.CounterVec
	Routes        *prometheus.CounterVec
	Dispatches    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "SQL statements executed, by action and table.",
		}, []string{"action", "table"}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Backend failures, by action.",
		}, []string{"action"}),
		Routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Route resolutions, by result.",
		}, []string{"result"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Dispatched requests, by HTTP status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.Statements, m.StorageErrors, m.Routes, m.Dispatches)
	return m
}

func (m *Metrics) Statement(action, table string) {
	if m == nil {
		return
	}
	m.Statements.WithLabelValues(action, table).Inc()
}

func (m *Metrics) StorageError(action string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(action).Inc()
}

func (m *Metrics) Route(result string) {
	if m == nil {
		return
	}
	m.Routes.WithLabelValues(result).Inc()
}

func (m *Metrics) Dispatch(status string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(status).Inc()
}
