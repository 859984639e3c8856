package main

import (
	"fmt"
	"io"
	"time"

	"clearcourse-hq/exhibit/pkg/casedata"
	casememory "clearcourse-hq/exhibit/pkg/casedata/memory"
	casesqlite "clearcourse-hq/exhibit/pkg/casedata/sqlite"
	"clearcourse-hq/exhibit/pkg/config"
	"clearcourse-hq/exhibit/pkg/export"
	"clearcourse-hq/exhibit/pkg/export/orchestrator"
	"clearcourse-hq/exhibit/pkg/export/sections"
	"clearcourse-hq/exhibit/pkg/export/storage"
	"clearcourse-hq/exhibit/pkg/redact/rulefile"
	"clearcourse-hq/exhibit/pkg/telemetry/logging"
	"clearcourse-hq/exhibit/pkg/telemetry/metrics"
)

// app bundles the wired application components a command needs, together
// with their teardown.
type app struct {
	cfg     *config.Config
	storage export.Storage
	orch    *orchestrator.Orchestrator
	metrics *metrics.Collector
	closers []io.Closer
}

// Close releases every component, last-wired first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

// loadConfig loads the config file with environment overrides and installs
// the process logger. The --verbose flag forces debug-level logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if _, err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires the full export pipeline from configuration: export storage,
// the case-data adapter, the redaction rule source, metrics, and the
// orchestrator on top. Overrides run after the config is loaded, before
// anything is wired.
func newApp(overrides ...func(*config.Config)) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}

	a := &app{cfg: cfg}

	a.storage, err = openExportStorage(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.storage)

	stores, closer, err := openCaseData(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	rules, err := rulefile.NewSource(cfg.Redaction.RulesDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load redaction rules: %w", err)
	}
	if cfg.Redaction.Watch {
		if err := rules.Watch(); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.closers = append(a.closers, rules)

	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	var ttl time.Duration
	if cfg.Retention.Enabled {
		ttl = time.Duration(cfg.Retention.Days) * 24 * time.Hour
	}

	a.orch = orchestrator.New(a.storage, sections.NewDefaultRegistry(), stores, rules, orchestrator.Options{
		RetentionTTL:          ttl,
		DefaultRedactionLevel: export.RedactionLevel(cfg.Redaction.DefaultLevel),
		BundleDir:             cfg.Export.BundleDir,
		PrettyJSON:            cfg.Export.PrettyJSON,
		Metrics:               a.metrics,
	})

	return a, nil
}

// openExportStorage creates the export storage backend from config.
func openExportStorage(cfg *config.Config) (export.Storage, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Storage.SQLite.Path,
			MaxOpenConns: cfg.Storage.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Storage.SQLite.MaxIdleConns,
			WALMode:      cfg.Storage.SQLite.WALMode,
			BusyTimeout:  cfg.Storage.SQLite.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (supported: sqlite, memory)", cfg.Storage.Backend)
	}
}

// openCaseData creates the read-only case-data adapter from config.
func openCaseData(cfg *config.Config) (casedata.Stores, io.Closer, error) {
	switch cfg.CaseData.Backend {
	case "sqlite":
		store, err := casesqlite.NewStore(casesqlite.Config{
			Path:        cfg.CaseData.SQLite.Path,
			BusyTimeout: cfg.CaseData.SQLite.BusyTimeout,
		})
		if err != nil {
			return casedata.Stores{}, nil, fmt.Errorf("failed to open case database: %w", err)
		}
		return store.Stores(), store, nil
	case "memory":
		// Empty in-memory stores; useful for smoke tests of the wiring.
		return casememory.NewStore().Stores(), nil, nil
	default:
		return casedata.Stores{}, nil, fmt.Errorf("unsupported casedata backend: %s", cfg.CaseData.Backend)
	}
}
