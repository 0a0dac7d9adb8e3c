package report

// GenModeKind distinguishes the two encodings of a traffic generator mode.
type GenModeKind int

const (
	// GenModeUnknown is used when the value is missing or malformed.
	GenModeUnknown GenModeKind = iota
	// GenModeUnit is a bare string variant, e.g. "Constant".
	GenModeUnit
	// GenModeWrapped is a single-key object variant, e.g. {"Burst": {...}}.
	GenModeWrapped
)

// UnknownGenMode is the label used when no mode can be resolved.
const UnknownGenMode = "unknown"

// GenMode is an externally tagged traffic generator mode. Only the label
// is used for run records; the payload is kept for callers that want it.
type GenMode struct {
	Kind    GenModeKind
	Label   string
	Payload any
}

// UnitGenMode constructs a variant that carries no payload.
func UnitGenMode(label string) GenMode {
	return GenMode{Kind: GenModeUnit, Label: label}
}

// WrappedGenMode constructs a variant with a payload.
func WrappedGenMode(label string, payload any) GenMode {
	return GenMode{Kind: GenModeWrapped, Label: label, Payload: payload}
}

// DecodeGenMode decodes a gen_mode value as found in a report.
func DecodeGenMode(v any) GenMode {
	switch val := v.(type) {
	case string:
		// An empty label would group runs under a blank mode; report it
		// as unknown instead.
		if val == "" {
			return GenMode{}
		}

		return UnitGenMode(val)
	case map[string]any:
		if len(val) != 1 {
			return GenMode{}
		}

		for label, payload := range val {
			return WrappedGenMode(label, payload)
		}
	}

	return GenMode{}
}

// String returns the mode label, or "unknown".
func (g GenMode) String() string {
	if g.Kind == GenModeUnknown || g.Label == "" {
		return UnknownGenMode
	}

	return g.Label
}
