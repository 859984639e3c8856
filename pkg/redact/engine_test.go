package redact

import (
	"errors"
	"testing"

	"clearcourse-hq/exhibit/pkg/export"
)

// testRules is a fixed rule set exercising all three rule types and the
// level/scope/jurisdiction selection axes.
func testRules() []Rule {
	return []Rule{
		{
			Name:        "phone-number",
			Type:        RuleRegex,
			Pattern:     `\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`,
			Replacement: "[PHONE]",
			AppliesTo:   []string{"*"},
			Level:       export.RedactionStandard,
			Priority:    100,
			IsActive:    true,
		},
		{
			Name:        "email-address",
			Type:        RuleRegex,
			Pattern:     `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
			Replacement: "[EMAIL]",
			AppliesTo:   []string{"messages", "agreements"},
			Level:       export.RedactionStandard,
			Priority:    90,
			IsActive:    true,
		},
		{
			Name:        "school-name",
			Type:        RuleKeyword,
			Pattern:     "Lakeside Elementary",
			Replacement: "[SCHOOL]",
			AppliesTo:   []string{"messages"},
			Level:       export.RedactionEnhanced,
			Priority:    80,
			IsActive:    true,
		},
		{
			Name:         "ca-case-number",
			Type:         RuleRegex,
			Pattern:      `\bFL-\d{6}\b`,
			Replacement:  "[CASE]",
			AppliesTo:    []string{"*"},
			Level:        export.RedactionStandard,
			Jurisdiction: "US-CA",
			Priority:     70,
			IsActive:     true,
		},
		{
			Name:        "inactive-rule",
			Type:        RuleKeyword,
			Pattern:     "inactive",
			Replacement: "[X]",
			AppliesTo:   []string{"*"},
			Level:       export.RedactionStandard,
			Priority:    60,
			IsActive:    false,
		},
	}
}

func TestRedactText_RegexRule(t *testing.T) {
	e := NewEngine(testRules(), nil)

	got, err := e.RedactText("call me at 555-867-5309 tonight", "messages", export.RedactionStandard, "")
	if err != nil {
		t.Fatalf("RedactText failed: %v", err)
	}
	want := "call me at [PHONE] tonight"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRedactText_KeywordWholeToken(t *testing.T) {
	e := NewEngine(testRules(), nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"matches case-insensitively", "pickup at LAKESIDE elementary today", "pickup at [SCHOOL] today"},
		{"whole token only", "Lakeside Elementary-adjacent lot", "[SCHOOL]-adjacent lot"},
		{"no partial words", "TheLakeside Elementaryish", "TheLakeside Elementaryish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.RedactText(tt.in, "messages", export.RedactionEnhanced, "")
			if err != nil {
				t.Fatalf("RedactText failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestRedactText_LevelOrdinal verifies that enhanced requests apply
// standard rules too, and standard requests skip enhanced rules.
func TestRedactText_LevelOrdinal(t *testing.T) {
	e := NewEngine(testRules(), nil)
	in := "meet at Lakeside Elementary, call 555-867-5309"

	standard, err := e.RedactText(in, "messages", export.RedactionStandard, "")
	if err != nil {
		t.Fatalf("RedactText failed: %v", err)
	}
	if standard != "meet at Lakeside Elementary, call [PHONE]" {
		t.Errorf("standard level got %q", standard)
	}

	enhanced, err := e.RedactText(in, "messages", export.RedactionEnhanced, "")
	if err != nil {
		t.Fatalf("RedactText failed: %v", err)
	}
	if enhanced != "meet at [SCHOOL], call [PHONE]" {
		t.Errorf("enhanced level got %q", enhanced)
	}
}

func TestRedactText_ScopeFilter(t *testing.T) {
	e := NewEngine(testRules(), nil)

	// email rule applies to messages/agreements, not schedule
	got, err := e.RedactText("contact parent@example.com", "schedule", export.RedactionStandard, "")
	if err != nil {
		t.Fatalf("RedactText failed: %v", err)
	}
	if got != "contact parent@example.com" {
		t.Errorf("out-of-scope rule applied: %q", got)
	}
}

func TestRedactText_JurisdictionFilter(t *testing.T) {
	e := NewEngine(testRules(), nil)
	in := "ref FL-123456"

	matched, _ := e.RedactText(in, "messages", export.RedactionStandard, "US-CA")
	if matched != "ref [CASE]" {
		t.Errorf("jurisdiction match got %q", matched)
	}

	unmatched, _ := e.RedactText(in, "messages", export.RedactionStandard, "US-NY")
	if unmatched != in {
		t.Errorf("foreign jurisdiction rule applied: %q", unmatched)
	}
}

func TestRedactText_InactiveRuleSkipped(t *testing.T) {
	e := NewEngine(testRules(), nil)

	got, _ := e.RedactText("this is inactive text", "messages", export.RedactionEnhanced, "")
	if got != "this is inactive text" {
		t.Errorf("inactive rule applied: %q", got)
	}
}

// TestRedactText_Idempotent verifies redact(redact(x)) == redact(x): the
// replacement tokens never re-match the rules that produced them.
func TestRedactText_Idempotent(t *testing.T) {
	e := NewEngine(testRules(), nil)

	inputs := []string{
		"call 555-867-5309 or email a@b.com about Lakeside Elementary",
		"already [PHONE] redacted",
		"",
		"nothing sensitive here",
	}

	for _, in := range inputs {
		once, err := e.RedactText(in, "messages", export.RedactionEnhanced, "US-CA")
		if err != nil {
			t.Fatalf("RedactText failed: %v", err)
		}
		twice, err := e.RedactText(once, "messages", export.RedactionEnhanced, "US-CA")
		if err != nil {
			t.Fatalf("RedactText failed: %v", err)
		}
		if once != twice {
			t.Errorf("not idempotent for %q:\n  once:  %q\n  twice: %q", in, once, twice)
		}
	}
}

// TestRedactText_MalformedPatternFailsClosed verifies a bad pattern errors
// instead of passing text through unredacted.
func TestRedactText_MalformedPatternFailsClosed(t *testing.T) {
	rules := []Rule{{
		Name:        "broken",
		Type:        RuleRegex,
		Pattern:     `([`,
		Replacement: "[X]",
		AppliesTo:   []string{"*"},
		Level:       export.RedactionStandard,
		IsActive:    true,
	}}
	e := NewEngine(rules, nil)

	_, err := e.RedactText("some text", "messages", export.RedactionStandard, "")
	if err == nil {
		t.Fatal("expected error for malformed pattern")
	}
	var ruleErr *export.RedactionRuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("error type = %T, want *export.RedactionRuleError", err)
	}
	if ruleErr.RuleName != "broken" {
		t.Errorf("rule name = %q, want broken", ruleErr.RuleName)
	}
}

// TestRedactText_PriorityOrder verifies higher priority rules run first and
// that name breaks ties deterministically.
func TestRedactText_PriorityOrder(t *testing.T) {
	rules := []Rule{
		{Name: "b-narrow", Type: RuleKeyword, Pattern: "secret place", Replacement: "[PLACE]",
			AppliesTo: []string{"*"}, Level: export.RedactionStandard, Priority: 10, IsActive: true},
		{Name: "a-broad", Type: RuleKeyword, Pattern: "secret", Replacement: "[REDACTED]",
			AppliesTo: []string{"*"}, Level: export.RedactionStandard, Priority: 5, IsActive: true},
	}
	e := NewEngine(rules, nil)

	got, err := e.RedactText("the secret place is off limits", "messages", export.RedactionStandard, "")
	if err != nil {
		t.Fatalf("RedactText failed: %v", err)
	}
	// Higher priority narrow rule consumed the phrase before the broad one ran.
	if got != "the [PLACE] is off limits" {
		t.Errorf("got %q", got)
	}
}

type stubDetector struct {
	spans []Span
	err   error
}

func (d stubDetector) Detect(text, entityType string) ([]Span, error) {
	return d.spans, d.err
}

func TestRedactText_EntityDetector(t *testing.T) {
	rules := []Rule{{
		Name:        "person-name",
		Type:        RuleEntityType,
		Pattern:     "PERSON",
		Replacement: "[NAME]",
		AppliesTo:   []string{"*"},
		Level:       export.RedactionEnhanced,
		IsActive:    true,
	}}

	// "Alice spoke to Bob" -> spans for Alice (0,5) and Bob (15,18)
	e := NewEngine(rules, stubDetector{spans: []Span{{0, 5}, {15, 18}}})

	got, err := e.RedactText("Alice spoke to Bob", "messages", export.RedactionEnhanced, "")
	if err != nil {
		t.Fatalf("RedactText failed: %v", err)
	}
	if got != "[NAME] spoke to [NAME]" {
		t.Errorf("got %q", got)
	}
}

func TestRedactText_EntityDetectorError(t *testing.T) {
	rules := []Rule{{
		Name:      "person-name",
		Type:      RuleEntityType,
		Pattern:   "PERSON",
		AppliesTo: []string{"*"},
		Level:     export.RedactionStandard,
		IsActive:  true,
	}}
	e := NewEngine(rules, stubDetector{err: errors.New("detector offline")})

	_, err := e.RedactText("some text", "messages", export.RedactionStandard, "")
	var ruleErr *export.RedactionRuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("error = %v, want RedactionRuleError", err)
	}
}

func TestRedactMap_AllStringLeaves(t *testing.T) {
	e := NewEngine(testRules(), nil)

	in := map[string]any{
		"summary": "call 555-867-5309",
		"count":   3,
		"nested": map[string]any{
			"note": "email a@b.com",
		},
		"list": []any{"phone 555-867-5309", 7},
	}

	got, err := e.RedactMap(in, nil, "messages", export.RedactionStandard, "")
	if err != nil {
		t.Fatalf("RedactMap failed: %v", err)
	}

	if got["summary"] != "call [PHONE]" {
		t.Errorf("summary = %q", got["summary"])
	}
	if got["count"] != 3 {
		t.Errorf("non-string leaf changed: %v", got["count"])
	}
	nested := got["nested"].(map[string]any)
	if nested["note"] != "email [EMAIL]" {
		t.Errorf("nested note = %q", nested["note"])
	}
	list := got["list"].([]any)
	if list[0] != "phone [PHONE]" {
		t.Errorf("list[0] = %q", list[0])
	}

	// Input tree untouched
	if in["summary"] != "call 555-867-5309" {
		t.Error("input map was mutated")
	}
}

func TestRedactMap_FieldSubset(t *testing.T) {
	e := NewEngine(testRules(), nil)

	in := map[string]any{
		"excerpt":  "call 555-867-5309",
		"location": "call 555-867-5309",
	}

	got, err := e.RedactMap(in, []string{"excerpt"}, "messages", export.RedactionStandard, "")
	if err != nil {
		t.Fatalf("RedactMap failed: %v", err)
	}
	if got["excerpt"] != "call [PHONE]" {
		t.Errorf("targeted field not redacted: %q", got["excerpt"])
	}
	if got["location"] != "call 555-867-5309" {
		t.Errorf("untargeted field redacted: %q", got["location"])
	}
}
