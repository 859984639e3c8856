// Exhibit is the ClearCourse case evidence export engine.
//
// It assembles court-ready evidence packages from a family's co-parenting
// records: parenting-time compliance, communication history, financial
// records, and moderation events, redacted to the requested level and
// sealed with a verifiable hash chain.
//
// Usage:
//
//	# Generate a court package for a case
//	exhibit export --case case-123 --package court --from 2026-01-01 --to 2026-03-31
//
//	# Generate an investigation package scoped to a claim
//	exhibit export --case case-123 --package investigation \
//	    --claim-type parenting_time_interference --from 2026-01-01 --to 2026-03-31
//
//	# Verify a package's chain of custody
//	exhibit verify CE-20260401-1a2b3c4d
//
//	# Write the download artifacts for a package
//	exhibit download CE-20260401-1a2b3c4d --dir ./bundles
//
//	# List packages for a case
//	exhibit list --case case-123
//
//	# Sweep expired packages once
//	exhibit prune
//
//	# Run the long-lived mode: metrics endpoint, rule watching, scheduled sweeps
//	exhibit serve
package main

func main() {
	Execute()
}
