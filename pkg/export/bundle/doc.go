// Package bundle renders completed exports into download artifacts: a JSON
// document carrying the export record with its sections in canonical order,
// and a CSV index of section hashes and evidence counts. Writers never
// touch persisted state; downloads are tracked by the orchestrator.
package bundle
