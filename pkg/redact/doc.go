// Package redact implements the deterministic redaction layer of the case
// export engine. It applies an ordered, prioritized rule set to free text
// and to structured content trees before anything enters an evidence
// section.
//
// # Rule Selection
//
// A redaction call names a scope (which record domain the text came from),
// a level, and the case jurisdiction. The engine applies every active rule
// that covers the scope, whose jurisdiction is unset or matches, and whose
// level is at or below the requested level on the ordinal scale
// none < standard < enhanced. Matching rules run in descending priority,
// ties broken by ascending rule name, so repeated runs over the same data
// always produce the same bytes, a requirement for content hashing to be
// meaningful.
//
// # Rule Types
//
//   - regex: replaces all non-overlapping matches with the literal replacement
//   - keyword: case-insensitive whole-token replacement
//   - entity_type: delegates span detection to a pluggable EntityDetector
//
// A malformed rule fails closed: the call errors and the generation run
// that invoked it aborts rather than emitting unredacted evidence.
//
// Rule sets are authored as YAML documents (see subpackage rulefile) and
// pinned as an immutable snapshot for the duration of a generation run.
package redact
