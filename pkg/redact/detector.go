package redact

// Span is one detected entity occurrence within a text.
type Span struct {
	Start int // Byte offset of the first matched byte
	End   int // Byte offset one past the last matched byte
}

// EntityDetector is the plug point for external entity detection (names,
// addresses, account numbers). Detection itself is out of the engine's
// scope; implementations must be deterministic for a given input or the
// content hashes of regenerated sections will not be comparable.
type EntityDetector interface {
	// Detect returns the spans of the given entity type found in text,
	// ordered by start offset, non-overlapping.
	Detect(text, entityType string) ([]Span, error)
}

// NoopDetector is an EntityDetector that never detects anything. It is the
// default when no external detector is wired in; entity_type rules become
// inert rather than failing the run.
type NoopDetector struct{}

// Detect implements EntityDetector.
func (NoopDetector) Detect(text, entityType string) ([]Span, error) {
	return nil, nil
}
