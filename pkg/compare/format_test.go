package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{seconds: 0, expected: "0s"},
		{seconds: 5.9, expected: "5s"},
		{seconds: 184, expected: "3m 4s"},
		{seconds: 3720, expected: "1h 2m"},
		{seconds: 90061, expected: "25h 1m"},
		{seconds: -3, expected: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.seconds))
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "12.34%", FormatPercent(0.1234))
	assert.Equal(t, NotAvailable, FormatOptionalPercent(None()))
	assert.Equal(t, "50.00%", FormatOptionalPercent(Some(0.5)))
	assert.Equal(t, "1234.50", FormatTPS(Some(1234.5)))
	assert.Equal(t, NotAvailable, FormatTPS(None()))
	assert.Equal(t, NotAvailable, FormatOptionalDuration(None()))
	assert.Equal(t, "1m 0s", FormatOptionalDuration(Some(60)))

	assert.Equal(t, "+25.0%", FormatDeltaPercent(200, 250))
	assert.Equal(t, "-15.0%", FormatDeltaPercent(1000, 850))
	assert.Equal(t, Undefined, FormatDeltaPercent(0, 10))
	assert.Equal(t, "+2.00pp", FormatDeltaPP(0.01, 0.03))
	assert.Equal(t, "-1.50pp", FormatDeltaPP(0.025, 0.01))
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 59, 0, time.FixedZone("CET", 3600))

	assert.Equal(t, "2024-03-05 13:07", FormatTime(ts))
	assert.Equal(t, "2024-03-05 13:07", FormatOptionalTime(&ts))
	assert.Equal(t, NotAvailable, FormatOptionalTime(nil))
}

func TestFormatDeltas(t *testing.T) {
	assert.Equal(t, NotAvailable, FormatTPSDelta(nil))
	assert.Equal(t, NotAvailable, FormatDropDelta(nil))

	tps := NewDelta(0, 12.5)
	assert.Equal(t, "+12.50 (—)", FormatTPSDelta(&tps))

	drop := NewRateDelta(0.03, 0.042)
	assert.Equal(t, "+1.20pp (+40.0%)", FormatDropDelta(&drop))
}
