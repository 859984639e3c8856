package retention

import (
	"context"
	"log/slog"
	"time"

	"clearcourse-hq/exhibit/pkg/config"
	"clearcourse-hq/exhibit/pkg/export"
	"clearcourse-hq/exhibit/pkg/telemetry/metrics"
)

// Pruner removes expired export packages. Expiry is stamped onto each
// export when it is created, so a sweep is a single pass over rows whose
// expires_at has passed; permanent exports are never touched.
type Pruner struct {
	storage   export.Storage
	config    config.RetentionConfig
	metrics   *metrics.Collector
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a retention pruner over the export storage backend.
// A nil collector disables sweep instrumentation.
func NewPruner(storage export.Storage, cfg config.RetentionConfig, collector *metrics.Collector) *Pruner {
	p := &Pruner{
		storage: storage,
		config:  cfg,
		metrics: collector,
		logger:  slog.Default().With("component", "export.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes every expired, non-permanent export together with its
// section rows. Returns the number of exports deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if !p.config.Enabled {
		p.logger.Debug("retention disabled, skipping sweep")
		return 0, nil
	}

	deleted, err := p.storage.DeleteExpired(ctx, p.now())
	if err != nil {
		return 0, err
	}

	if p.metrics != nil {
		p.metrics.RecordRetentionSweep(deleted)
	}

	if deleted > 0 {
		p.logger.Info("expired exports pruned",
			"deleted_count", deleted,
			"retention_days", p.config.Days,
		)
	} else {
		p.logger.Debug("retention sweep completed, nothing expired")
	}
	return deleted, nil
}

// Start begins scheduled pruning. Call during application startup.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop halts scheduled pruning. Call during graceful shutdown.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled sweep.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
