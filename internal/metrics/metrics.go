// Package metrics holds the Prometheus instruments of the agent. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dqagent"

// Metrics groups every instrument. Create one per registry with New.
type Metrics struct {
	// ToolInvocations counts tool calls. Labels: tool, status (success, error).
	ToolInvocations *prometheus.CounterVec
	// ToolDuration observes tool latency. Labels: tool.
	ToolDuration *prometheus.HistogramVec
	// LLMCalls counts language-model calls. Labels: stage (analyze,
	// synthesize), outcome (ok, error, rejected).
	LLMCalls *prometheus.CounterVec
	// Fallbacks counts switches to the keyword router or the templates.
	// Labels: stage.
	Fallbacks *prometheus.CounterVec
	// Queries counts processed queries. Labels: type (success, error).
	Queries *prometheus.CounterVec
	// DatasetRows is the row count of the live dataset.
	DatasetRows prometheus.Gauge
	// DatasetLoads counts load attempts. Labels: outcome (ok, error).
	DatasetLoads *prometheus.CounterVec
}

// New registers all instruments on reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ToolInvocations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "invocations_total",
			Help:      "Tool invocations by tool and result status.",
		}, []string{"tool", "status"}),
		ToolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "duration_seconds",
			Help:      "Tool execution time in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"tool"}),
		LLMCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Language model calls by pipeline stage and outcome.",
		}, []string{"stage", "outcome"}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "fallbacks_total",
			Help:      "Times a stage fell back to its deterministic implementation.",
		}, []string{"stage"}),
		Queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "queries_total",
			Help:      "Processed queries by response type.",
		}, []string{"type"}),
		DatasetRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "rows",
			Help:      "Rows in the live dataset.",
		}),
		DatasetLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveTool records one tool invocation.
func (m *Metrics) ObserveTool(tool, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ToolInvocations.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveLLM records one language-model call.
func (m *Metrics) ObserveLLM(stage, outcome string) {
	if m == nil {
		return
	}
	m.LLMCalls.WithLabelValues(stage, outcome).Inc()
}

// ObserveFallback records a fallback in stage.
func (m *Metrics) ObserveFallback(stage string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(stage).Inc()
}

// ObserveQuery records a finished query.
func (m *Metrics) ObserveQuery(responseType string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(responseType).Inc()
}

// ObserveLoad records a load attempt and, on success, the new row count.
func (m *Metrics) ObserveLoad(rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.DatasetLoads.WithLabelValues("error").Inc()
		return
	}
	m.DatasetLoads.WithLabelValues("ok").Inc()
	m.DatasetRows.Set(float64(rows))
}

// SetDatasetRows updates the live row count after an in-place change.
func (m *Metrics) SetDatasetRows(rows int) {
	if m == nil {
		return
	}
	m.DatasetRows.Set(float64(rows))
}
