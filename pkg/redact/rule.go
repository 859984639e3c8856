package redact

import (
	"sort"

	"clearcourse-hq/exhibit/pkg/export"
)

// RuleType identifies how a redaction rule matches text.
type RuleType string

const (
	// RuleRegex replaces all non-overlapping regular-expression matches.
	RuleRegex RuleType = "regex"

	// RuleKeyword performs case-insensitive whole-token replacement.
	RuleKeyword RuleType = "keyword"

	// RuleEntityType delegates span detection to the external entity
	// detector and replaces detected spans.
	RuleEntityType RuleType = "entity_type"
)

// Rule is one reusable redaction policy entry. Rules are immutable at use
// time: a generation run pins a snapshot for its whole duration, and edits
// happen administratively outside the export pipeline.
type Rule struct {
	// Name uniquely identifies the rule and breaks priority ties.
	Name string `yaml:"name"`

	// Type selects the matching semantics.
	Type RuleType `yaml:"type"`

	// Pattern is the regex, keyword, or entity type to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the literal text substituted for matches.
	Replacement string `yaml:"replacement"`

	// AppliesTo lists the scopes the rule covers ("messages",
	// "agreements", "*" for all).
	AppliesTo []string `yaml:"applies_to"`

	// Level is the lowest redaction level at which the rule activates.
	// A request at level L applies every rule with Level <= L.
	Level export.RedactionLevel `yaml:"redaction_level"`

	// Jurisdiction restricts the rule to one court jurisdiction; empty
	// means the rule applies everywhere.
	Jurisdiction string `yaml:"jurisdiction,omitempty"`

	// Priority orders rule application; higher runs first.
	Priority int `yaml:"priority"`

	// IsActive disables the rule without deleting it.
	IsActive bool `yaml:"is_active"`
}

// AppliesToScope reports whether the rule covers the given scope.
func (r *Rule) AppliesToScope(scope string) bool {
	for _, s := range r.AppliesTo {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}

// selectRules filters the rule set to the active rules matching the scope,
// level, and jurisdiction, ordered by descending priority with ties broken
// by ascending name. The ordering is part of the determinism contract:
// redaction output must be a pure function of (text, active rule set).
func selectRules(rules []Rule, scope string, level export.RedactionLevel, jurisdiction string) []Rule {
	var out []Rule
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		if !r.AppliesToScope(scope) {
			continue
		}
		if r.Jurisdiction != "" && r.Jurisdiction != jurisdiction {
			continue
		}
		if r.Level.Rank() > level.Rank() {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})

	return out
}
