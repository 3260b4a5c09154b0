// Package metrics defines the Prometheus metrics of the reconciler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// Run outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Metrics contains all Prometheus metrics for reconciliation runs.
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	RunsInFlight prometheus.Gauge

	// Result metrics
	RowsTotal     *prometheus.CounterVec
	DuplicateKeys *prometheus.CounterVec

	// History metrics
	HistoryEntries prometheus.Counter
	HistoryErrors  prometheus.Counter

	// HTTP API metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates a metrics set on its own registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recon_runs_total",
			Help: "Total number of reconciliation runs by mode and outcome",
		}, []string{"mode", "outcome"}),

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recon_run_duration_seconds",
			Help:    "Duration of successful reconciliation runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"mode"}),

		RunsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "recon_runs_in_flight",
			Help: "Number of reconciliation runs currently executing",
		}),

		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recon_rows_total",
			Help: "Total number of report rows by mode and verdict",
		}, []string{"mode", "verdict"}),

		DuplicateKeys: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recon_duplicate_keys_total",
			Help: "Total number of duplicate keys seen while indexing, by side",
		}, []string{"side"}),

		HistoryEntries: factory.NewCounter(prometheus.CounterOpts{
			Name: "recon_history_entries_total",
			Help: "Total number of history entries recorded",
		}),

		HistoryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "recon_history_errors_total",
			Help: "Total number of failed history writes",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recon_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"route", "method", "status"}),
	}
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a finished run. result is nil for failed runs.
func (m *Metrics) ObserveRun(mode types.Mode, outcome string, elapsed time.Duration, result *report.Result) {
	m.RunsTotal.WithLabelValues(string(mode), outcome).Inc()
	if result == nil {
		return
	}

	m.RunDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	m.RowsTotal.WithLabelValues(string(mode), string(types.VerdictMatch)).Add(float64(result.Matches))
	m.RowsTotal.WithLabelValues(string(mode), string(types.VerdictMismatch)).Add(float64(result.Mismatches))
	m.RowsTotal.WithLabelValues(string(mode), string(types.VerdictMissingCounterpart)).Add(float64(result.Missing))
	m.DuplicateKeys.WithLabelValues(string(types.SideReference)).Add(float64(result.Stats.ReferenceDuplicates))
	m.DuplicateKeys.WithLabelValues(string(types.SideGoverning)).Add(float64(result.Stats.GoverningDuplicates))
}
