package redact

// StaticSource is a fixed rule snapshot. It satisfies the same snapshot
// contract as the watched rule directory and is used by tests and by
// deployments that define rules inline.
type StaticSource []Rule

// Snapshot returns a copy of the rule set.
func (s StaticSource) Snapshot() []Rule {
	out := make([]Rule, len(s))
	copy(out, s)
	return out
}
