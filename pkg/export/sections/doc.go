// Package sections implements the pluggable section-generation pipeline of
// the case export engine: one Generator per evidence domain, a read-only
// Registry that owns their canonical ordering, and the per-run
// GenerationContext with memoized, typed data access.
//
// # Generators
//
// The generator set is closed and fixed at process start:
//
//  1. agreement_overview        Agreements on file and their clauses
//  2. compliance_summary        Cross-domain compliance headline
//  3. parenting_time            Planned vs actual time, exchange GPS log
//  4. financial_compliance      Shared expenses and reimbursements
//  5. communication_compliance  Message volumes, tone, flagged excerpts
//  6. intervention_log          Chronological moderation events
//  7. parent_impact             Check-in consistency and wellbeing
//  8. chain_of_custody          Data provenance and hashing scheme
//
// The number is each generator's canonical order. Sections always persist
// in this order regardless of request order or completion timing; the
// chain hash depends on it.
//
// # Determinism
//
// A generator's content tree is a pure function of the source records and
// the pinned redaction rule set. Content trees hold only JSON-stable
// values, timestamps are rendered as fixed-format strings, floats are
// rounded, and map-derived lists are emitted in sorted key order.
package sections
