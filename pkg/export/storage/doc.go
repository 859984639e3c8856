// Package storage provides persistence backends for case exports and their
// sections: a SQLite backend for durable deployments and an in-memory
// backend for tests and ephemeral use.
//
// Both backends enforce the export lifecycle at the persistence boundary.
// An export row is created in the generating state and transitions exactly
// once to completed or failed; CompleteExport writes the export's hashes
// and every section row in one transaction, and FailExport discards any
// section rows so a failed export never carries partial content. Terminal
// rows are immutable apart from download tracking.
package storage
