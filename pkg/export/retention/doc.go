// Package retention enforces the expiry policy on export packages.
// Non-permanent exports carry an expires_at stamped at creation; the
// pruner sweeps expired rows and their sections on a cron schedule.
// Permanent exports are never deleted.
package retention
