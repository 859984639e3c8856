// Package logging configures the process-wide structured logger. All
// component loggers derive from the slog default installed by Setup, which
// wraps the configured handler with a redacting middleware: attributes with
// case-content keys are withheld and string values are scrubbed of contact
// details before any log line is written.
package logging
