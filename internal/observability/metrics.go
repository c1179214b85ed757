// Package observability records per-run report metrics and writes them in the
// Prometheus text exposition format for a node_exporter textfile collector.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

// Outcome labels for SourceRequests.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics holds the counters and gauges for one report run. All methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	SourceRequests  *prometheus.CounterVec // labels: source, outcome
	ConversionRules *prometheus.CounterVec // labels: rule
	FallbackQuotes  prometheus.Counter
	ReportRows      prometheus.Gauge
	RunDuration     prometheus.Gauge
	LastRunUnix     prometheus.Gauge
	EmailSent       prometheus.Gauge
}

// NewMetrics creates the run metrics on a private registry, so repeated runs
// and tests never collide on registration.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "market_report",
			Name:      "source_requests_total",
			Help:      "Price source requests by source and outcome.",
		}, []string{"source", "outcome"}),
		ConversionRules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "market_report",
			Name:      "conversion_rule_total",
			Help:      "Rows normalized per unit conversion rule.",
		}, []string{"rule"}),
		FallbackQuotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "market_report",
			Name:      "demo_fallback_quotes_total",
			Help:      "Commodities filled from the static demo table.",
		}),
		ReportRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "market_report",
			Name:      "report_rows",
			Help:      "Rows in the last written report.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "market_report",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last report run.",
		}),
		LastRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "market_report",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last report run finished.",
		}),
		EmailSent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "market_report",
			Name:      "email_sent",
			Help:      "1 when the last run delivered the report by e-mail.",
		}),
	}

	m.registry.MustRegister(
		m.SourceRequests,
		m.ConversionRules,
		m.FallbackQuotes,
		m.ReportRows,
		m.RunDuration,
		m.LastRunUnix,
		m.EmailSent,
	)
	return m
}

// ObserveSource counts one adapter call.
func (m *Metrics) ObserveSource(source, outcome string) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(source, outcome).Inc()
}

// ObserveRule counts one row normalized by rule.
func (m *Metrics) ObserveRule(rule string) {
	if m == nil {
		return
	}
	m.ConversionRules.WithLabelValues(rule).Inc()
}

// ObserveFallback counts one demo-table fill.
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.FallbackQuotes.Inc()
}

// WriteTextfile atomically writes every metric to path. An empty path is a
// no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
