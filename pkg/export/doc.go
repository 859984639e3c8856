// Package export defines the core domain model for case evidence exports:
// tamper-evident, redacted evidentiary packages assembled for family-court
// submission.
//
// # Data Model
//
// A CaseExport is one generated, versioned evidence package covering a case
// over a date range. It is created in the "generating" state and transitions
// exactly once to "completed" (all sections persisted, hashes set) or
// "failed" (no sections retained, error message set). Terminal exports are
// immutable; a new attempt is always a new CaseExport.
//
// An ExportSection is one generator's output within one export: a structured
// content tree, its SHA-256 content hash, an evidence count, and the data
// sources it cites. Section rows exist only for completed exports.
//
// # Chain of Custody
//
// Each section's content hash is a pure function of its content data under
// canonical serialization. The export's chain hash covers the ordered
// section hashes plus the chain hash of the case's most recent prior
// completed export, so packages for a case form a verifiable chain:
//
//	chain_hash = SHA-256(h1 ‖ h2 ‖ … ‖ hn ‖ prior_chain_hash_or_empty)
//
// Verification recomputes the chain from persisted section hashes and
// detects any post-hoc mutation of stored content or hashes.
//
// # Subpackages
//
//   - hash: canonical serialization and the hash functions
//   - sections: the section generators, registry, and generation context
//   - storage: SQLite and in-memory persistence backends
//   - orchestrator: drives a generation run end to end
//   - bundle: JSON/CSV download artifacts
//   - retention: expiry pruning on a cron schedule
package export
