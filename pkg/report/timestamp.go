package report

import (
	"regexp"
	"strings"
	"time"
)

// timestampPattern matches the subset of RFC3339 emitted by the load tool:
// date, time, an optional fraction of any length and an optional offset.
var timestampPattern = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2})[T ](\d{2}:\d{2}:\d{2})(\.\d+)?(Z|[+-]\d{2}:?\d{2})?$`,
)

// maxFractionDigits is the precision kept from the fractional seconds.
// Anything finer is truncated, never rounded.
const maxFractionDigits = 6

const timestampLayout = "2006-01-02T15:04:05-07:00"

// ParseTimestamp parses an RFC3339 timestamp into a UTC instant.
//
// A trailing "Z" is treated as +00:00 and fractional seconds are truncated
// to microseconds. A missing offset is accepted and means UTC; producers have
// been seen omitting it.
func ParseTimestamp(s string) (time.Time, error) {
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, &ParseError{
			Input: s,
			Msg:   "expected YYYY-MM-DDTHH:MM:SS[.fraction][Z|±HH:MM]",
		}
	}

	fraction := m[3]
	if len(fraction) > maxFractionDigits+1 {
		fraction = fraction[:maxFractionDigits+1]
	}

	offset := m[4]

	switch {
	case offset == "" || offset == "Z":
		offset = "+00:00"
	case len(offset) == 5:
		offset = offset[:3] + ":" + offset[3:]
	}

	t, err := time.Parse(timestampLayout, m[1]+"T"+m[2]+fraction+offset)
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Msg: "invalid date or time", Err: err}
	}

	return t.UTC(), nil
}
