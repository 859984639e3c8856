package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// CanonicalJSON serializes a content tree to its canonical byte form.
// Map keys are emitted in sorted order by the encoder, so two trees with
// the same contents always serialize identically regardless of how they
// were built. Content trees must contain only JSON-stable values (maps,
// slices, strings, numbers, booleans, nil).
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical serialization: %w", err)
	}
	return data, nil
}

// HashContent computes the SHA-256 hash of a section's content tree over
// its canonical serialization and returns it as a 64-character hex string.
func HashContent(contentData map[string]any) (string, error) {
	data, err := CanonicalJSON(contentData)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash computes the chain-of-custody hash over the ordered section
// content hashes, linked to the prior export's chain hash. The input is the
// concatenation of the hex section hashes in canonical section order,
// followed by priorChain (empty string when the case has no prior completed
// export).
func ChainHash(sectionHashes []string, priorChain string) string {
	var b strings.Builder
	for _, h := range sectionHashes {
		b.WriteString(h)
	}
	b.WriteString(priorChain)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// HashString is a convenience helper that returns the hex SHA-256 of a
// string. Used for stable party and child identifiers inside content trees.
func HashString(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
