package compare

import (
	"fmt"

	"github.com/wI2L/jsondiff"

	"github.com/ethpandaops/txreports/pkg/report"
)

// ConfigChange is one RFC 6902 operation turning the baseline workload
// configuration into the candidate's.
type ConfigChange struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// ConfigDiff explains why two fingerprints differ. Identical configurations
// yield no changes.
func ConfigDiff(base, candidate map[string]any) ([]ConfigChange, error) {
	source, err := report.Canonicalize(nonNil(base))
	if err != nil {
		return nil, fmt.Errorf("encoding baseline config: %w", err)
	}

	target, err := report.Canonicalize(nonNil(candidate))
	if err != nil {
		return nil, fmt.Errorf("encoding candidate config: %w", err)
	}

	patch, err := jsondiff.CompareJSON(source, target)
	if err != nil {
		return nil, fmt.Errorf("diffing configs: %w", err)
	}

	changes := make([]ConfigChange, 0, len(patch))

	for _, op := range patch {
		changes = append(changes, ConfigChange{
			Op:    op.Type,
			Path:  string(op.Path),
			From:  string(op.From),
			Value: op.Value,
		})
	}

	return changes, nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}
