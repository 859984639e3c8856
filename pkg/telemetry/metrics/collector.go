package metrics

import (
	"time"

	"clearcourse-hq/exhibit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric of the export engine and provides
// one recording interface for all components. Metrics are pre-registered at
// construction; recording is cheap and safe for concurrent use. When
// metrics are disabled in configuration every recording method is a no-op,
// so callers never need to branch.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	exportMetrics  *ExportMetrics
	sectionMetrics *SectionMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "clearcourse"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "exhibit"
	}
	if len(cfg.GenerationDurationBuckets) == 0 {
		cfg.GenerationDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0}
	}
	if len(cfg.SectionDurationBuckets) == 0 {
		cfg.SectionDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 10.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.exportMetrics = NewExportMetrics(cfg, registry)
	c.sectionMetrics = NewSectionMetrics(cfg, registry)
	return c
}

// RecordExport records one finished generation run.
//
// Parameters:
//   - packageType: "court" or "investigation"
//   - status: terminal status ("completed", "failed")
//   - duration: whole-run generation time
func (c *Collector) RecordExport(packageType, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.exportMetrics.RecordExport(packageType, status, duration)
}

// RecordSection records one generated section.
func (c *Collector) RecordSection(sectionType string, duration time.Duration, evidenceCount int) {
	if !c.config.Enabled {
		return
	}
	c.sectionMetrics.RecordSection(sectionType, duration, evidenceCount)
}

// RecordVerification records a chain-of-custody verification outcome.
func (c *Collector) RecordVerification(valid bool) {
	if !c.config.Enabled {
		return
	}
	c.exportMetrics.RecordVerification(valid)
}

// RecordDownload records a package download.
func (c *Collector) RecordDownload(packageType string) {
	if !c.config.Enabled {
		return
	}
	c.exportMetrics.RecordDownload(packageType)
}

// RecordRetentionSweep records the outcome of one retention prune sweep.
func (c *Collector) RecordRetentionSweep(deleted int64) {
	if !c.config.Enabled {
		return
	}
	c.exportMetrics.RecordRetentionSweep(deleted)
}

// Registry returns the Prometheus registry used by this collector. It can
// be used to serve the /metrics endpoint:
//
//	http.Handle("/metrics", collector.Handler())
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
