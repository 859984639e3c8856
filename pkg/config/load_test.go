package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("storage backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if !cfg.Storage.SQLite.WALMode {
		t.Error("WAL mode should default on")
	}
	if cfg.Storage.SQLite.BusyTimeout != 5*time.Second {
		t.Errorf("busy timeout = %v, want 5s", cfg.Storage.SQLite.BusyTimeout)
	}
	if cfg.Redaction.DefaultLevel != "standard" {
		t.Errorf("default redaction level = %q, want standard", cfg.Redaction.DefaultLevel)
	}
	if cfg.Retention.Schedule != "0 3 * * *" {
		t.Errorf("retention schedule = %q", cfg.Retention.Schedule)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	}
	if cfg.Telemetry.Metrics.Namespace != "clearcourse" || cfg.Telemetry.Metrics.Subsystem != "exhibit" {
		t.Errorf("metric prefix = %s_%s", cfg.Telemetry.Metrics.Namespace, cfg.Telemetry.Metrics.Subsystem)
	}
}

func TestLoadConfig_Values(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: sqlite
  sqlite:
    path: /tmp/exhibit/exports.db
    wal_mode: true
    busy_timeout: 2s
casedata:
  sqlite:
    path: /tmp/clearcourse/casedata.db
redaction:
  rules_dir: /etc/exhibit/rules
  watch: true
  default_level: enhanced
retention:
  enabled: true
  days: 365
  schedule: "30 2 * * *"
telemetry:
  logging:
    level: debug
    format: text
  metrics:
    enabled: true
    listen_address: ":9190"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Storage.SQLite.Path != "/tmp/exhibit/exports.db" {
		t.Errorf("sqlite path = %q", cfg.Storage.SQLite.Path)
	}
	if cfg.Storage.SQLite.BusyTimeout != 2*time.Second {
		t.Errorf("busy timeout = %v", cfg.Storage.SQLite.BusyTimeout)
	}
	if !cfg.Redaction.Watch || cfg.Redaction.DefaultLevel != "enhanced" {
		t.Errorf("redaction = %+v", cfg.Redaction)
	}
	if !cfg.Retention.Enabled || cfg.Retention.Days != 365 || cfg.Retention.Schedule != "30 2 * * *" {
		t.Errorf("retention = %+v", cfg.Retention)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.ListenAddress != ":9190" {
		t.Errorf("metrics = %+v", cfg.Telemetry.Metrics)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad storage backend",
			yaml:    "storage:\n  backend: postgres\n",
			wantErr: "storage.backend",
		},
		{
			name:    "bad redaction level",
			yaml:    "redaction:\n  default_level: maximum\n",
			wantErr: "redaction.default_level",
		},
		{
			name:    "negative retention",
			yaml:    "retention:\n  days: -7\n",
			wantErr: "retention.days",
		},
		{
			name:    "bad log level",
			yaml:    "telemetry:\n  logging:\n    level: verbose\n",
			wantErr: "telemetry.logging.level",
		},
		{
			name:    "bad metrics path",
			yaml:    "telemetry:\n  metrics:\n    enabled: true\n    path: metrics\n",
			wantErr: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  sqlite:
    path: /tmp/from-file.db
retention:
  days: 30
`)

	t.Setenv("EXHIBIT_STORAGE_SQLITE_PATH", "/tmp/from-env.db")
	t.Setenv("EXHIBIT_RETENTION_DAYS", "90")
	t.Setenv("EXHIBIT_REDACTION_DEFAULT_LEVEL", "enhanced")
	t.Setenv("EXHIBIT_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Storage.SQLite.Path != "/tmp/from-env.db" {
		t.Errorf("sqlite path = %q, want env override", cfg.Storage.SQLite.Path)
	}
	if cfg.Retention.Days != 90 {
		t.Errorf("retention days = %d, want 90", cfg.Retention.Days)
	}
	if cfg.Redaction.DefaultLevel != "enhanced" {
		t.Errorf("default level = %q, want enhanced", cfg.Redaction.DefaultLevel)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("EXHIBIT_STORAGE_BACKEND", "postgres")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("expected validation error after env override")
	}
}
