package metrics

import (
	"time"

	"clearcourse-hq/exhibit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ExportMetrics tracks metrics for whole generation runs and the export
// lifecycle.
//
// Metrics:
//   - clearcourse_exhibit_exports_total: Runs by package type and status
//   - clearcourse_exhibit_generation_duration_seconds: Run duration histogram
//   - clearcourse_exhibit_verifications_total: Chain verifications by result
//   - clearcourse_exhibit_downloads_total: Package downloads by package type
//   - clearcourse_exhibit_retention_deleted_total: Exports removed by the pruner
type ExportMetrics struct {
	exportsTotal       *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	verificationsTotal *prometheus.CounterVec
	downloadsTotal     *prometheus.CounterVec
	retentionDeleted   prometheus.Counter
}

// NewExportMetrics creates and registers export metrics with the provided registry.
func NewExportMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExportMetrics {
	em := &ExportMetrics{
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exports_total",
				Help:      "Total number of export generation runs by terminal status",
			},
			[]string{"package_type", "status"},
		),

		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generation_duration_seconds",
				Help:      "Duration of whole generation runs in seconds",
				Buckets:   cfg.GenerationDurationBuckets,
			},
			[]string{"package_type"},
		),

		verificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "verifications_total",
				Help:      "Total number of chain-of-custody verifications by result",
			},
			[]string{"result"},
		),

		downloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "downloads_total",
				Help:      "Total number of package downloads",
			},
			[]string{"package_type"},
		),

		retentionDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retention_deleted_total",
				Help:      "Total number of expired exports removed by the retention pruner",
			},
		),
	}

	registry.MustRegister(
		em.exportsTotal,
		em.generationDuration,
		em.verificationsTotal,
		em.downloadsTotal,
		em.retentionDeleted,
	)

	return em
}

// RecordExport records one finished generation run.
func (em *ExportMetrics) RecordExport(packageType, status string, duration time.Duration) {
	em.exportsTotal.WithLabelValues(packageType, status).Inc()
	em.generationDuration.WithLabelValues(packageType).Observe(duration.Seconds())
}

// RecordVerification records a verification outcome.
func (em *ExportMetrics) RecordVerification(valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	em.verificationsTotal.WithLabelValues(result).Inc()
}

// RecordDownload records a package download.
func (em *ExportMetrics) RecordDownload(packageType string) {
	em.downloadsTotal.WithLabelValues(packageType).Inc()
}

// RecordRetentionSweep records exports removed by one prune sweep.
func (em *ExportMetrics) RecordRetentionSweep(deleted int64) {
	if deleted > 0 {
		em.retentionDeleted.Add(float64(deleted))
	}
}
