package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func changeKeys(changes []ConfigChange) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Op + " " + c.Path
	}

	return out
}

func TestConfigDiff(t *testing.T) {
	base := map[string]any{
		"rate":    100,
		"senders": map[string]any{"count": 4, "kind": "eoa"},
		"legacy":  true,
	}
	candidate := map[string]any{
		"rate":    200,
		"senders": map[string]any{"kind": "eoa", "count": 4},
		"gas":     21000,
	}

	changes, err := ConfigDiff(base, candidate)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"replace /rate",
		"remove /legacy",
		"add /gas",
	}, changeKeys(changes))
}

func TestConfigDiff_Identical(t *testing.T) {
	a := map[string]any{"b": 1, "a": []any{1, 2}}
	b := map[string]any{"a": []any{1, 2}, "b": 1}

	changes, err := ConfigDiff(a, b)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestConfigDiff_NilConfig(t *testing.T) {
	changes, err := ConfigDiff(nil, map[string]any{"rate": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"add /rate"}, changeKeys(changes))
}
