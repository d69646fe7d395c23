package query

import (
	"time"

	"github.com/endorses/routefilter/internal/pkg/inventory"
	"github.com/prometheus/client_golang/prometheus"
)

// Query outcomes
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics records query and inventory metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	matches  *prometheus.HistogramVec
	records  *prometheus.GaugeVec
	reloads  *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	// Add Go runtime metrics
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routefilter_queries_total",
				Help: "Total number of filter queries by outcome",
			},
			[]string{"kind", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "routefilter_query_duration_seconds",
				Help:    "Time spent compiling and evaluating a query",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
			[]string{"kind"},
		),
		matches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "routefilter_query_matches",
				Help:    "Number of records returned per query",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"kind"},
		),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "routefilter_inventory_records",
				Help: "Number of records in the current inventory snapshot",
			},
			[]string{"kind"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routefilter_inventory_reloads_total",
				Help: "Total number of inventory reloads by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(m.queries, m.duration, m.matches, m.records, m.reloads)
	return m
}

// Registry returns the registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveQuery records one query. Matches are only observed for successful queries.
func (m *Metrics) ObserveQuery(kind, outcome string, elapsed time.Duration, matches int) {
	if m == nil {
		return
	}

	m.queries.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if outcome == OutcomeOK {
		m.matches.WithLabelValues(kind).Observe(float64(matches))
	}
}

// SetInventory publishes the record counts of a snapshot
func (m *Metrics) SetInventory(s *inventory.Snapshot) {
	if m == nil || s == nil {
		return
	}
	for kind, n := range s.Counts() {
		m.records.WithLabelValues(kind).Set(float64(n))
	}
}

// RecordReload counts an inventory reload attempt. It matches
// inventory.ReloadFunc so it can be registered on a watcher.
func (m *Metrics) RecordReload(s *inventory.Snapshot, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloads.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.reloads.WithLabelValues(OutcomeOK).Inc()
	m.SetInventory(s)
}
