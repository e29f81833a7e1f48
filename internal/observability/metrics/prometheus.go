// Package metrics provides Prometheus metrics for the conversion
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	MessagesConverted   *prometheus.CounterVec
	ConversionsFailed   prometheus.Counter
	ConversionDuration  prometheus.Histogram
	ResourcesGenerated  *prometheus.CounterVec
	MappingWarnings     prometheus.Counter
	FilesIngested       prometheus.Counter
	EventsPublished     prometheus.Counter
	OutboxPending       prometheus.Gauge
}

// New creates and registers all metrics.
func New() *Metrics {
	m := &Metrics{
		MessagesConverted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hl7_messages_converted_total",
			Help: "Total HL7 messages converted, by message type",
		}, []string{"message_type"}),
		ConversionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hl7_conversions_failed_total",
			Help: "Total conversions rejected as unmappable",
		}),
		ConversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hl7_conversion_duration_seconds",
			Help:    "Message conversion duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ResourcesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fhir_resources_generated_total",
			Help: "Total FHIR resources emitted, by resource type",
		}, []string{"resource_type"}),
		MappingWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hl7_mapping_warnings_total",
			Help: "Total segments skipped with a mapping warning",
		}),
		FilesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hl7_files_ingested_total",
			Help: "Total HL7 files picked up by the ingester",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stream_events_published_total",
			Help: "Total events published to the stream",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
	}

	prometheus.MustRegister(
		m.MessagesConverted,
		m.ConversionsFailed,
		m.ConversionDuration,
		m.ResourcesGenerated,
		m.MappingWarnings,
		m.FilesIngested,
		m.EventsPublished,
		m.OutboxPending,
	)

	return m
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
