// Package provenance assembles the immutable audit record produced when a
// letter is approved, and renders it as a plain-text report.
package provenance

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"cliniscribe/internal/domain"
)

// CanonicalJSON serializes v in an order-stable form: the value is round
// tripped through map[string]any with json.Number so that re-marshaling sorts
// object keys and preserves numeric text exactly. The same logical content
// always yields the same bytes regardless of struct field order.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decoding canonical form: %w", err)
	}

	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("re-marshaling canonical form: %w", err)
	}
	return out, nil
}

// ContentHash computes the SHA-256 of the record's canonical serialization,
// with the hash field itself blanked so the hash is well defined.
func ContentHash(rec *domain.ProvenanceRecord) (string, error) {
	clone := *rec
	clone.ContentHash = ""
	b, err := CanonicalJSON(&clone)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
