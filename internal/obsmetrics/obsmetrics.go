// Package obsmetrics exposes the ingestion pipeline's Prometheus counters:
// rows processed, rows dropped, columns classified by role, and LLM
// fallback call/failure counts. Each Collector is registered against its own
// private prometheus.Registry, so embedding applications can scrape it
// without colliding with their own metrics. An Ingest call records into the
// Collector passed in its options, if any: it increments the row and column
// counters, and nothing in this module increments the two LLM fallback
// counters.
package obsmetrics

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the ingestion pipeline's Prometheus instrumentation.
type Collector struct {
	registry *prometheus.Registry

	RowsIngested        prometheus.Counter
	RowsDropped         prometheus.Counter
	ColumnsClassified   *prometheus.CounterVec
	LLMFallbackCalls    prometheus.Counter
	LLMFallbackFailures prometheus.Counter
}

// New builds a Collector with its own private registry.
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghgcore_rows_ingested_total",
			Help: "Total number of input rows that produced an emission line.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghgcore_rows_dropped_total",
			Help: "Total number of input rows dropped during mapping or calculation.",
		}),
		ColumnsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghgcore_columns_classified_total",
			Help: "Total number of columns classified, labeled by assigned role.",
		}, []string{"role"}),
		LLMFallbackCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghgcore_llm_fallback_calls_total",
			Help: "Total number of column-classification calls made to the LLM fallback.",
		}),
		LLMFallbackFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghgcore_llm_fallback_failures_total",
			Help: "Total number of LLM fallback calls that failed or were unparseable.",
		}),
	}

	registry.MustRegister(
		c.RowsIngested,
		c.RowsDropped,
		c.ColumnsClassified,
		c.LLMFallbackCalls,
		c.LLMFallbackFailures,
	)

	return c
}

// Gather returns the current metric families for an embedding application
// to expose on its own /metrics endpoint (e.g. via promhttp.HandlerFor).
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}

// Registry exposes the underlying prometheus.Registry directly, for callers
// that want to wrap it with promhttp.HandlerFor themselves.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordColumnClassification increments the per-role classification
// counter. role is the ingestion.Role's string form.
func (c *Collector) RecordColumnClassification(role string) {
	c.ColumnsClassified.WithLabelValues(role).Inc()
}
