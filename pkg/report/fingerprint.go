package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Canonicalize returns the compact canonical JSON encoding of v: object
// keys sorted at every level, array order preserved, no insignificant
// whitespace, no HTML escaping. Numbers decoded as json.Number are written
// exactly as they appeared in the report.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Fingerprint returns the hex SHA-256 digest of the canonical form of a
// workload configuration. An empty configuration has no fingerprint and
// yields "".
func Fingerprint(cfg map[string]any) (string, error) {
	if len(cfg) == 0 {
		return "", nil
	}

	canonical, err := Canonicalize(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:]), nil
}

// cloneValue deep-copies a decoded JSON value so records never share
// mutable maps or slices with the raw report.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}

		return out
	default:
		return val
	}
}
