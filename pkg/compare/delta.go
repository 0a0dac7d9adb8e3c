package compare

// Delta compares a value against a baseline.
type Delta struct {
	Base     float64       `json:"base"`
	Value    float64       `json:"value"`
	Absolute float64       `json:"absolute"`
	Percent  OptionalFloat `json:"percent"`
}

// RateDelta is a Delta for rate-valued metrics; it also carries the
// difference in percentage points.
type RateDelta struct {
	Delta
	PercentagePoints float64 `json:"percentage_points"`
}

// NewDelta computes value - base and the change relative to base. The
// percentage is undefined when base is zero.
func NewDelta(base, value float64) Delta {
	d := Delta{
		Base:     base,
		Value:    value,
		Absolute: value - base,
	}

	if base != 0 {
		d.Percent = Some((value - base) * 100 / base)
	}

	return d
}

// NewRateDelta computes a Delta plus the percentage-point change.
func NewRateDelta(base, value float64) RateDelta {
	return RateDelta{
		Delta:            NewDelta(base, value),
		PercentagePoints: (value - base) * 100,
	}
}
