package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeGenMode(t *testing.T) {
	tests := []struct {
		name  string
		input any
		kind  GenModeKind
		label string
	}{
		{name: "bare string", input: "Constant", kind: GenModeUnit, label: "Constant"},
		{
			name:  "single key object",
			input: map[string]any{"Burst": map[string]any{"size": 10}},
			kind:  GenModeWrapped,
			label: "Burst",
		},
		{name: "empty string", input: "", kind: GenModeUnknown, label: UnknownGenMode},
		{name: "nil", input: nil, kind: GenModeUnknown, label: UnknownGenMode},
		{name: "empty object", input: map[string]any{}, kind: GenModeUnknown, label: UnknownGenMode},
		{
			name:  "multi key object",
			input: map[string]any{"A": 1, "B": 2},
			kind:  GenModeUnknown,
			label: UnknownGenMode,
		},
		{name: "number", input: 42.0, kind: GenModeUnknown, label: UnknownGenMode},
		{name: "list", input: []any{"Constant"}, kind: GenModeUnknown, label: UnknownGenMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode := DecodeGenMode(tt.input)
			assert.Equal(t, tt.kind, mode.Kind)
			assert.Equal(t, tt.label, mode.String())
		})
	}
}

func TestWrappedGenMode_KeepsPayload(t *testing.T) {
	mode := DecodeGenMode(map[string]any{"Ramp": map[string]any{"from": 1}})

	assert.Equal(t, map[string]any{"from": 1}, mode.Payload)
}
