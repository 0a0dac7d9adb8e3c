package compare

import (
	"slices"
	"time"

	"github.com/ethpandaops/txreports/pkg/report"
)

// VersionBounds holds the earliest and latest start observed for one client
// version.
type VersionBounds struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// ComputeVersionBounds collects start bounds per client version.
func ComputeVersionBounds(records []*report.RunRecord) map[string]VersionBounds {
	bounds := make(map[string]VersionBounds)

	for _, r := range records {
		v := ByClientVersion(r)

		b, ok := bounds[v]
		if !ok {
			bounds[v] = VersionBounds{Earliest: r.Start, Latest: r.Start}

			continue
		}

		if r.Start.Before(b.Earliest) {
			b.Earliest = r.Start
		}

		if r.Start.After(b.Latest) {
			b.Latest = r.Start
		}

		bounds[v] = b
	}

	return bounds
}

// FormatVersionLabel renders "version (YYYY-MM-DD)" using the earliest run
// date, or the bare version when it has no bounds.
func FormatVersionLabel(version string, bounds map[string]VersionBounds) string {
	b, ok := bounds[version]
	if !ok || b.Earliest.IsZero() {
		return version
	}

	return version + " (" + b.Earliest.UTC().Format(time.DateOnly) + ")"
}

// VersionOrder returns versions ordered by latest run, newest first.
func VersionOrder(bounds map[string]VersionBounds) []string {
	versions := SortedKeys(bounds)

	slices.SortStableFunc(versions, func(a, b string) int {
		return bounds[b].Latest.Compare(bounds[a].Latest)
	})

	return versions
}

// VersionLabels returns the display label of every version.
func VersionLabels(bounds map[string]VersionBounds) map[string]string {
	labels := make(map[string]string, len(bounds))
	for v := range bounds {
		labels[v] = FormatVersionLabel(v, bounds)
	}

	return labels
}
