package config

import "time"

// Config is the root configuration for the exhibit export engine.
type Config struct {
	// Storage configures the export persistence backend.
	Storage StorageConfig `yaml:"storage"`

	// CaseData configures the read-only case data source.
	CaseData CaseDataConfig `yaml:"casedata"`

	// Redaction configures the redaction rule set.
	Redaction RedactionConfig `yaml:"redaction"`

	// Export configures generation and download behavior.
	Export ExportConfig `yaml:"export"`

	// Retention configures the expired-export pruner.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig configures the export persistence backend.
type StorageConfig struct {
	// Backend selects the storage backend: "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures the SQLite export store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging for better concurrency.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// CaseDataConfig configures the read-only case data source.
type CaseDataConfig struct {
	// Backend selects the case data backend: "sqlite" or "memory".
	// The memory backend is for tests and demos only.
	Backend string `yaml:"backend"`

	// SQLite configures the read-only SQLite case database.
	SQLite CaseDataSQLiteConfig `yaml:"sqlite"`
}

// CaseDataSQLiteConfig configures the read-only case database connection.
type CaseDataSQLiteConfig struct {
	// Path is the case database file path.
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RedactionConfig configures the redaction rule set.
type RedactionConfig struct {
	// RulesDir is the directory holding YAML rule files. Every *.yaml and
	// *.yml file in the directory is merged into one rule set.
	RulesDir string `yaml:"rules_dir"`

	// Watch reloads the rule set when files in RulesDir change. In-flight
	// generation runs keep the snapshot they started with.
	Watch bool `yaml:"watch"`

	// DefaultLevel is the redaction level applied when a request does not
	// specify one: "none", "standard", or "enhanced".
	DefaultLevel string `yaml:"default_level"`
}

// ExportConfig configures generation and download behavior.
type ExportConfig struct {
	// BundleDir is the directory download artifacts are written to.
	BundleDir string `yaml:"bundle_dir"`

	// PrettyJSON pretty-prints the JSON download artifact.
	PrettyJSON bool `yaml:"pretty_json"`
}

// RetentionConfig configures the expired-export pruner.
type RetentionConfig struct {
	// Enabled turns the scheduled pruner on.
	Enabled bool `yaml:"enabled"`

	// Days is the retention period applied to new exports. Zero means
	// exports never expire. Permanent exports are always retained.
	Days int `yaml:"days"`

	// Schedule is the cron expression for the prune sweep.
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", or "error".
	Level string `yaml:"level"`

	// Format selects the output encoding: "json" or "text".
	Format string `yaml:"format"`

	// Output selects the destination: "stdout" or "stderr".
	Output string `yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics HTTP server binds to.
	ListenAddress string `yaml:"listen_address"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`

	// Namespace and Subsystem prefix every metric name.
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// GenerationDurationBuckets are the histogram buckets for whole-run
	// generation duration, in seconds.
	GenerationDurationBuckets []float64 `yaml:"generation_duration_buckets"`

	// SectionDurationBuckets are the histogram buckets for per-section
	// generation duration, in seconds.
	SectionDurationBuckets []float64 `yaml:"section_duration_buckets"`
}
