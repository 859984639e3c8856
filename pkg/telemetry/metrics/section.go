package metrics

import (
	"time"

	"clearcourse-hq/exhibit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SectionMetrics tracks per-section generation metrics. Section types form
// a closed set, so label cardinality is fixed.
//
// Metrics:
//   - clearcourse_exhibit_sections_total: Sections generated by type
//   - clearcourse_exhibit_section_duration_seconds: Per-section duration histogram
//   - clearcourse_exhibit_section_evidence_total: Evidence records included by type
type SectionMetrics struct {
	sectionsTotal   *prometheus.CounterVec
	sectionDuration *prometheus.HistogramVec
	evidenceTotal   *prometheus.CounterVec
}

// NewSectionMetrics creates and registers section metrics with the provided registry.
func NewSectionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SectionMetrics {
	sm := &SectionMetrics{
		sectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sections_total",
				Help:      "Total number of sections generated",
			},
			[]string{"section_type"},
		),

		sectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "section_duration_seconds",
				Help:      "Duration of per-section generation in seconds",
				Buckets:   cfg.SectionDurationBuckets,
			},
			[]string{"section_type"},
		),

		evidenceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "section_evidence_total",
				Help:      "Total number of evidence records included in generated sections",
			},
			[]string{"section_type"},
		),
	}

	registry.MustRegister(
		sm.sectionsTotal,
		sm.sectionDuration,
		sm.evidenceTotal,
	)

	return sm
}

// RecordSection records one generated section.
func (sm *SectionMetrics) RecordSection(sectionType string, duration time.Duration, evidenceCount int) {
	sm.sectionsTotal.WithLabelValues(sectionType).Inc()
	sm.sectionDuration.WithLabelValues(sectionType).Observe(duration.Seconds())
	if evidenceCount > 0 {
		sm.evidenceTotal.WithLabelValues(sectionType).Add(float64(evidenceCount))
	}
}
