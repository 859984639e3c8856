package redact

import (
	"fmt"
	"regexp"
	"sync"

	"clearcourse-hq/exhibit/pkg/export"
)

// Engine applies an ordered, prioritized redaction rule set to free text
// and structured content trees. An Engine holds one immutable rule
// snapshot; it is safe for concurrent use across generation runs.
//
// Redaction is deterministic: output is a pure function of the input text
// and the pinned rule set. The engine never consults the clock or any
// random state. A malformed rule fails closed: the call errors and the
// section or run that invoked it aborts.
type Engine struct {
	rules    []Rule
	detector EntityDetector

	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

// NewEngine creates an engine over a rule snapshot. A nil detector is
// replaced by NoopDetector, which leaves entity_type rules inert.
func NewEngine(rules []Rule, detector EntityDetector) *Engine {
	if detector == nil {
		detector = NoopDetector{}
	}
	return &Engine{
		rules:    rules,
		detector: detector,
		compiled: make(map[string]*regexp.Regexp),
	}
}

// Rules returns the engine's rule snapshot.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// RedactText applies every matching rule to the text and returns the
// redacted result. Rules are applied in descending priority, ties broken
// by ascending rule name.
func (e *Engine) RedactText(text, scope string, level export.RedactionLevel, jurisdiction string) (string, error) {
	if text == "" {
		return text, nil
	}

	for _, rule := range selectRules(e.rules, scope, level, jurisdiction) {
		var err error
		text, err = e.applyRule(rule, text)
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

// RedactMap applies redaction to every string leaf of a content tree,
// recursing through nested maps and slices. When fields is non-empty, only
// values under those keys (at any depth) are redacted. The input tree is
// not mutated; a redacted copy is returned.
func (e *Engine) RedactMap(data map[string]any, fields []string, scope string, level export.RedactionLevel, jurisdiction string) (map[string]any, error) {
	fieldSet := map[string]bool{}
	for _, f := range fields {
		fieldSet[f] = true
	}

	out, err := e.redactValue(data, fieldSet, false, scope, level, jurisdiction)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

// redactValue walks one node of the tree. selected is true once the walk
// has passed through a targeted field key.
func (e *Engine) redactValue(v any, fieldSet map[string]bool, selected bool, scope string, level export.RedactionLevel, jurisdiction string) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			childSelected := selected || len(fieldSet) == 0 || fieldSet[k]
			red, err := e.redactValue(child, fieldSet, childSelected, scope, level, jurisdiction)
			if err != nil {
				return nil, err
			}
			out[k] = red
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			red, err := e.redactValue(child, fieldSet, selected, scope, level, jurisdiction)
			if err != nil {
				return nil, err
			}
			out[i] = red
		}
		return out, nil
	case string:
		if !selected && len(fieldSet) > 0 {
			return val, nil
		}
		return e.RedactText(val, scope, level, jurisdiction)
	default:
		return val, nil
	}
}

// applyRule applies one rule to the text.
func (e *Engine) applyRule(rule Rule, text string) (string, error) {
	switch rule.Type {
	case RuleRegex:
		re, err := e.compile(rule.Name, rule.Pattern)
		if err != nil {
			return "", err
		}
		return re.ReplaceAllLiteralString(text, rule.Replacement), nil

	case RuleKeyword:
		// Whole-token, case-insensitive
		re, err := e.compile(rule.Name, `(?i)\b`+regexp.QuoteMeta(rule.Pattern)+`\b`)
		if err != nil {
			return "", err
		}
		return re.ReplaceAllLiteralString(text, rule.Replacement), nil

	case RuleEntityType:
		spans, err := e.detector.Detect(text, rule.Pattern)
		if err != nil {
			return "", export.NewRedactionRuleError(rule.Name, err)
		}
		return replaceSpans(text, spans, rule.Replacement), nil

	default:
		return "", export.NewRedactionRuleError(rule.Name, fmt.Errorf("unknown rule type %q", rule.Type))
	}
}

// compile returns the compiled pattern, caching by source. A malformed
// pattern is a RedactionRuleError: redaction fails closed.
func (e *Engine) compile(ruleName, pattern string) (*regexp.Regexp, error) {
	e.mu.RLock()
	re, ok := e.compiled[pattern]
	e.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, export.NewRedactionRuleError(ruleName, err)
	}

	e.mu.Lock()
	e.compiled[pattern] = re
	e.mu.Unlock()
	return re, nil
}

// replaceSpans replaces the given spans with the replacement, working from
// the end of the text so earlier offsets stay valid.
func replaceSpans(text string, spans []Span, replacement string) string {
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		if s.Start < 0 || s.End > len(text) || s.Start > s.End {
			continue
		}
		text = text[:s.Start] + replacement + text[s.End:]
	}
	return text
}
