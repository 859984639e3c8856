// Package orchestrator coordinates the export lifecycle end to end. It
// validates create requests, persists the export row in its generating
// state, runs the section generators over a fresh per-run context, hashes
// every section, links the package to the case's prior completed export,
// and commits the result atomically. It also serves verification and
// download of completed packages.
//
// An export transitions exactly once from generating to completed or
// failed. A failed run leaves no section content behind; a retry is always
// a new export.
package orchestrator
