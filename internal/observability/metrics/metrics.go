// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_insights"

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Vendor format conversion metrics
	ConversionsTotal  *prometheus.CounterVec
	ConversionErrors  *prometheus.CounterVec
	SchemaRejections  *prometheus.CounterVec
	UtterancesFlatten prometheus.Counter
	ResultsSkipped    prometheus.Counter

	// Role classification metrics
	ClassificationsTotal    prometheus.Counter
	ClassificationErrors    *prometheus.CounterVec
	ClassificationLatency   prometheus.Histogram
	PredictionCountMismatch prometheus.Counter

	// Role merge metrics. RoleFallbacks counts every entry whose channel tag
	// defaulted to CUSTOMER because the positional prediction lookup failed;
	// a non-zero rate here means the model output and the recognition results
	// are drifting out of alignment.
	MergesTotal   prometheus.Counter
	RoleFallbacks prometheus.Counter

	// Batch pipeline metrics
	FilesProcessed prometheus.Counter
	FilesFailed    *prometheus.CounterVec
	BatchDuration  prometheus.Histogram

	// Event publish metrics
	PublishTotal   *prometheus.CounterVec
	PublishErrors  *prometheus.CounterVec
	PublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ConversionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Total vendor transcript conversions by vendor",
		}, []string{"vendor"}),
		ConversionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_errors_total",
			Help:      "Total failed vendor transcript conversions by vendor and reason",
		}, []string{"vendor", "reason"}),
		SchemaRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_rejections_total",
			Help:      "Total documents rejected by vendor schema validation",
		}, []string{"schema"}),
		UtterancesFlatten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_flattened_total",
			Help:      "Total utterances emitted by recognition result flattening",
		}),
		ResultsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_skipped_total",
			Help:      "Total recognition results skipped during flattening (no usable alternative)",
		}),

		ClassificationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total role classification requests sent to the model",
		}),
		ClassificationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_errors_total",
			Help:      "Total failed role classifications by reason",
		}, []string{"reason"}),
		ClassificationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_latency_seconds",
			Help:      "Latency of role classification calls in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		PredictionCountMismatch: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_count_mismatch_total",
			Help:      "Total merges where prediction count differed from recognition result count",
		}),

		MergesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Total role merges performed",
		}),
		RoleFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_fallbacks_total",
			Help:      "Total entries whose channel tag defaulted to CUSTOMER on prediction lookup failure",
		}),

		FilesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Total recognition output files processed end to end",
		}),
		FilesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Total recognition output files that failed processing, by stage",
		}, []string{"stage"}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of full pipeline batches in seconds",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		}),

		PublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Total events published by topic",
		}, []string{"topic", "eventType"}),
		PublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total event publish errors by topic",
		}, []string{"topic", "eventType"}),
		PublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_latency_seconds",
			Help:      "Latency of event publishes in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"topic"}),
	}
}

// RecordPublish records a publish attempt.
func (m *Metrics) RecordPublish(topic, eventType string, err error, latencySeconds float64) {
	m.PublishTotal.WithLabelValues(topic, eventType).Inc()
	m.PublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.PublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordConversion records the outcome of one vendor transcript conversion.
func (m *Metrics) RecordConversion(vendor string, err error, reason string) {
	if err != nil {
		m.ConversionErrors.WithLabelValues(vendor, reason).Inc()
		return
	}
	m.ConversionsTotal.WithLabelValues(vendor).Inc()
}

// RecordFileFailed records a pipeline file failure at the named stage.
func (m *Metrics) RecordFileFailed(stage string) {
	m.FilesFailed.WithLabelValues(stage).Inc()
}
