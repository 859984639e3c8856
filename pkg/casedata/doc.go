// Package casedata defines the read-only collaborator interfaces through
// which the export engine consumes the surrounding record domains: parties
// and children, co-parenting messages and moderation events, parenting-time
// schedules, custody exchanges, check-ins, agreements, and shared finances.
//
// The engine only ever reads through these interfaces; the systems that
// produce the records (toxicity scoring, GPS geofence verification, custody
// scheduling) live elsewhere. Two implementations ship with the engine:
//
//   - memory: in-memory stores used by tests and fixtures
//   - sqlite: a read-only adapter over the platform's case database
package casedata
