package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionsTotal counts pipeline runs.
	// Labels: status (ok, no_evidence, ocr_failed, error)
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affidavit",
			Name:      "extractions_total",
			Help:      "Total number of affidavit extraction runs by outcome",
		},
		[]string{"status"},
	)

	// FieldOutcomesTotal counts extracted and missing fields.
	// Labels: field, outcome (present, absent)
	FieldOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affidavit",
			Name:      "field_outcomes_total",
			Help:      "Total number of field extraction outcomes",
		},
		[]string{"field", "outcome"},
	)

	// SemanticCallsTotal counts semantic extractor results by status.
	SemanticCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affidavit",
			Name:      "semantic_calls_total",
			Help:      "Total number of semantic name extraction attempts by status",
		},
		[]string{"status"},
	)

	// ExtractionDuration tracks end-to-end pipeline latency.
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "affidavit",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of affidavit extraction runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

func recordField(field string, present bool) {
	outcome := "absent"
	if present {
		outcome = "present"
	}
	FieldOutcomesTotal.WithLabelValues(field, outcome).Inc()
}
