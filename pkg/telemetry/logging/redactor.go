package logging

import (
	"regexp"
	"strings"
)

// Redactor redacts case-sensitive values from log fields. The export engine
// handles family-court records, so free text and contact details must never
// land in log output: sections are redacted by the export pipeline, and the
// logging layer applies the same posture to its own attributes.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in pattern set.
func NewRedactor() *Redactor {
	r := &Redactor{}

	add := func(name, pattern, replacement string) {
		r.patterns = append(r.patterns, &redactPattern{
			name:        name,
			regex:       regexp.MustCompile(pattern),
			replacement: replacement,
		})
	}

	// Email addresses
	add("email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "[EMAIL]")

	// Social security numbers
	add("ssn", `\b\d{3}-\d{2}-\d{4}\b`, "[SSN]")

	// Phone numbers
	add("phone", `\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`, "[PHONE]")

	return r
}

// RedactString redacts sensitive patterns from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// SensitiveKey reports whether an attribute key carries case content that
// must be fully withheld rather than pattern-scrubbed.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{
		"body", "excerpt", "message_content",
		"first_name", "last_name", "party_name", "child_name",
		"email", "phone", "address", "location",
	} {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
