// Package telemetry groups the observability subsystems of the export
// engine: structured logging with case-data redaction (logging) and
// Prometheus metrics (metrics).
package telemetry
