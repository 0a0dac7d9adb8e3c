package compare

import (
	"fmt"
	"time"
)

// NotAvailable is rendered for undefined values.
const NotAvailable = "n/a"

// Undefined is rendered for a percentage change against a zero baseline.
const Undefined = "—"

// FormatDuration renders seconds as "1h 2m", "3m 4s" or "5s". Fractions of a
// second are truncated.
func FormatDuration(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}

	hours, rem := total/3600, total%3600
	mins, secs := rem/60, rem%60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// FormatPercent renders a rate (0.1234) as "12.34%".
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// FormatOptionalPercent is FormatPercent for values that may be undefined.
func FormatOptionalPercent(v OptionalFloat) string {
	if !v.Valid {
		return NotAvailable
	}

	return FormatPercent(v.Value)
}

// FormatTPS renders a throughput value with two decimals.
func FormatTPS(v OptionalFloat) string {
	if !v.Valid {
		return NotAvailable
	}

	return fmt.Sprintf("%.2f", v.Value)
}

// FormatOptionalDuration is FormatDuration for values that may be undefined.
func FormatOptionalDuration(v OptionalFloat) string {
	if !v.Valid {
		return NotAvailable
	}

	return FormatDuration(v.Value)
}

// FormatSignedPercent renders a percentage change as "+1.5%", or "—" when
// undefined.
func FormatSignedPercent(v OptionalFloat) string {
	if !v.Valid {
		return Undefined
	}

	return fmt.Sprintf("%+.1f%%", v.Value)
}

// FormatDeltaPercent renders the change from base to value as "+1.5%", or
// "—" when base is zero.
func FormatDeltaPercent(base, value float64) string {
	return FormatSignedPercent(NewDelta(base, value).Percent)
}

// FormatDeltaPP renders the change between two rates in percentage points,
// e.g. "+2.00pp".
func FormatDeltaPP(base, value float64) string {
	return fmt.Sprintf("%+.2fpp", (value-base)*100)
}

// FormatTime renders an instant in UTC as "2006-01-02 15:04".
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// FormatOptionalTime is FormatTime for a possibly missing instant.
func FormatOptionalTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}

	return FormatTime(*t)
}

// FormatTPSDelta renders a throughput delta as "+12.50 (+3.1%)".
func FormatTPSDelta(d *Delta) string {
	if d == nil {
		return NotAvailable
	}

	return fmt.Sprintf("%+.2f (%s)", d.Absolute, FormatSignedPercent(d.Percent))
}

// FormatDropDelta renders a rate delta as "+1.20pp (+40.0%)".
func FormatDropDelta(d *RateDelta) string {
	if d == nil {
		return NotAvailable
	}

	return fmt.Sprintf("%+.2fpp (%s)", d.PercentagePoints, FormatSignedPercent(d.Percent))
}
