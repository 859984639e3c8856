// Package metrics provides Prometheus instrumentation for the export
// engine: generation run counts and durations, per-section timings and
// evidence volumes, verification outcomes, downloads, and retention
// sweeps. All metrics live under the clearcourse_exhibit prefix and are
// registered once into a Collector at process start.
package metrics
