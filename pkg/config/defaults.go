package config

import "time"

// ApplyDefaults fills in default values for any configuration fields that
// were not specified. It modifies the configuration in place.
func ApplyDefaults(cfg *Config) {
	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	// WAL mode defaults on when the sqlite section is absent entirely.
	if cfg.Storage.SQLite == (SQLiteConfig{}) {
		cfg.Storage.SQLite.WALMode = true
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/exports.db"
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = 10
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = 5
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = 5 * time.Second
	}

	// Case data defaults
	if cfg.CaseData.Backend == "" {
		cfg.CaseData.Backend = "sqlite"
	}
	if cfg.CaseData.SQLite.Path == "" {
		cfg.CaseData.SQLite.Path = "data/casedata.db"
	}
	if cfg.CaseData.SQLite.BusyTimeout == 0 {
		cfg.CaseData.SQLite.BusyTimeout = 5 * time.Second
	}

	// Redaction defaults
	if cfg.Redaction.RulesDir == "" {
		cfg.Redaction.RulesDir = "rules"
	}
	if cfg.Redaction.DefaultLevel == "" {
		cfg.Redaction.DefaultLevel = "standard"
	}

	// Export defaults
	if cfg.Export.BundleDir == "" {
		cfg.Export.BundleDir = "bundles"
	}

	// Retention defaults
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = "0 3 * * *" // daily at 03:00
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Logging.Output == "" {
		cfg.Telemetry.Logging.Output = "stderr"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = ":9090"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "clearcourse"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "exhibit"
	}
	if len(cfg.Telemetry.Metrics.GenerationDurationBuckets) == 0 {
		// Whole-run generation latencies (50ms - 60s)
		cfg.Telemetry.Metrics.GenerationDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0}
	}
	if len(cfg.Telemetry.Metrics.SectionDurationBuckets) == 0 {
		// Per-section latencies (5ms - 10s)
		cfg.Telemetry.Metrics.SectionDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 10.0}
	}
}
