package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for errors and returns a descriptive
// error if any field is invalid. It should be called after ApplyDefaults.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.Storage.Backend {
	case "sqlite":
		if cfg.Storage.SQLite.Path == "" {
			errs = append(errs, "storage.sqlite.path must not be empty")
		}
		if cfg.Storage.SQLite.MaxOpenConns < 1 {
			errs = append(errs, "storage.sqlite.max_open_conns must be at least 1")
		}
		if cfg.Storage.SQLite.MaxIdleConns < 0 {
			errs = append(errs, "storage.sqlite.max_idle_conns must not be negative")
		}
		if cfg.Storage.SQLite.BusyTimeout < 0 {
			errs = append(errs, "storage.sqlite.busy_timeout must not be negative")
		}
	case "memory":
		// No backend options
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be \"sqlite\" or \"memory\", got %q", cfg.Storage.Backend))
	}

	switch cfg.CaseData.Backend {
	case "sqlite":
		if cfg.CaseData.SQLite.Path == "" {
			errs = append(errs, "casedata.sqlite.path must not be empty")
		}
	case "memory":
		// No backend options
	default:
		errs = append(errs, fmt.Sprintf("casedata.backend must be \"sqlite\" or \"memory\", got %q", cfg.CaseData.Backend))
	}

	switch cfg.Redaction.DefaultLevel {
	case "none", "standard", "enhanced":
	default:
		errs = append(errs, fmt.Sprintf("redaction.default_level must be \"none\", \"standard\", or \"enhanced\", got %q", cfg.Redaction.DefaultLevel))
	}
	if cfg.Redaction.RulesDir == "" {
		errs = append(errs, "redaction.rules_dir must not be empty")
	}

	if cfg.Export.BundleDir == "" {
		errs = append(errs, "export.bundle_dir must not be empty")
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, "retention.days must not be negative")
	}
	if cfg.Retention.Enabled && cfg.Retention.Schedule == "" {
		errs = append(errs, "retention.schedule must not be empty when retention is enabled")
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("telemetry.logging.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", cfg.Telemetry.Logging.Level))
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("telemetry.logging.format must be \"json\" or \"text\", got %q", cfg.Telemetry.Logging.Format))
	}
	switch cfg.Telemetry.Logging.Output {
	case "stdout", "stderr":
	default:
		errs = append(errs, fmt.Sprintf("telemetry.logging.output must be \"stdout\" or \"stderr\", got %q", cfg.Telemetry.Logging.Output))
	}
	if cfg.Telemetry.Metrics.Enabled {
		if cfg.Telemetry.Metrics.ListenAddress == "" {
			errs = append(errs, "telemetry.metrics.listen_address must not be empty when metrics are enabled")
		}
		if !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
			errs = append(errs, fmt.Sprintf("telemetry.metrics.path must start with \"/\", got %q", cfg.Telemetry.Metrics.Path))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
