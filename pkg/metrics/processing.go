package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProcessingMetrics records quote file processing outcomes per file type and format.
type ProcessingMetrics struct {
	duration *prometheus.HistogramVec
	outcome  *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

// NewProcessingMetrics registers the document processing metrics on the provided registerer.
func NewProcessingMetrics(reg prometheus.Registerer) *ProcessingMetrics {
	if reg == nil {
		return &ProcessingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_file_processing_duration_seconds",
		Help:    "Duration of quote file processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"file_type", "format"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_file_processing_total",
		Help: "Quote file processing outcomes.",
	}, []string{"file_type", "format", "outcome"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "imported_rows_total",
		Help: "Rows materialized from quote files.",
	}, []string{"file_type"})
	reg.MustRegister(duration, outcome, rows)
	return &ProcessingMetrics{
		duration: duration,
		outcome:  outcome,
		rows:     rows,
	}
}

// ObserveDuration records how long processing a single file took.
func (p *ProcessingMetrics) ObserveDuration(fileType, format string, d time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(fileType), normalizeLabel(format)).Observe(d.Seconds())
}

// IncOutcome increments the outcome counter ("handled", "exception", "skipped").
func (p *ProcessingMetrics) IncOutcome(fileType, format, outcome string) {
	if p == nil || p.outcome == nil {
		return
	}
	p.outcome.WithLabelValues(normalizeLabel(fileType), normalizeLabel(format), normalizeLabel(outcome)).Inc()
}

// AddRows adds to the materialized row counter for the given file type.
func (p *ProcessingMetrics) AddRows(fileType string, n int) {
	if p == nil || p.rows == nil || n <= 0 {
		return
	}
	p.rows.WithLabelValues(normalizeLabel(fileType)).Add(float64(n))
}
