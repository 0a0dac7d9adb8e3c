package compare

import (
	"slices"
	"time"

	"github.com/ethpandaops/txreports/pkg/report"
)

// VersionMatrix maps client version → workload name → summary.
type VersionMatrix map[string]map[string]Summary

// BuildVersionMatrix summarizes records per client version and workload.
func BuildVersionMatrix(records []*report.RunRecord) VersionMatrix {
	m := make(VersionMatrix)

	for version, group := range GroupBy(records, ByClientVersion) {
		m[version] = SummarizeGroups(GroupBy(group, ByWorkload))
	}

	return m
}

// Get returns the summary of one cell.
func (m VersionMatrix) Get(version, workload string) (Summary, bool) {
	s, ok := m[version][workload]

	return s, ok
}

// Workloads returns the sorted union of workloads present in any of the
// given versions.
func (m VersionMatrix) Workloads(versions []string) []string {
	seen := make(map[string]struct{})

	for _, v := range versions {
		for w := range m[v] {
			seen[w] = struct{}{}
		}
	}

	return SortedKeys(seen)
}

// SharedWorkloads keeps the workloads present in every given version.
func (m VersionMatrix) SharedWorkloads(workloads, versions []string) []string {
	out := make([]string, 0, len(workloads))

	for _, w := range workloads {
		shared := true

		for _, v := range versions {
			if _, ok := m[v][w]; !ok {
				shared = false

				break
			}
		}

		if shared {
			out = append(out, w)
		}
	}

	return out
}

// WorkloadOrder sorts workloads by their most recent run across the given
// versions, newest first. Workloads with no runs sort last.
func (m VersionMatrix) WorkloadOrder(workloads, versions []string) []string {
	latest := make(map[string]time.Time, len(workloads))

	for _, w := range workloads {
		for _, v := range versions {
			s, ok := m[v][w]
			if ok && s.LatestStart != nil && s.LatestStart.After(latest[w]) {
				latest[w] = *s.LatestStart
			}
		}
	}

	out := slices.Clone(workloads)
	slices.SortStableFunc(out, func(a, b string) int {
		return latest[b].Compare(latest[a])
	})

	return out
}

// WorkloadSummary is one workload row of a version table.
type WorkloadSummary struct {
	Workload string `json:"workload"`
	Summary
}

// VersionComparisonRow compares one workload between a reference version
// and a compared version. Deltas are reference minus compared, relative to
// the compared version; they are nil when either side has no data.
type VersionComparisonRow struct {
	Workload  string     `json:"workload"`
	Reference *Summary   `json:"reference"`
	Compared  *Summary   `json:"compared"`
	TPSDelta  *Delta     `json:"tps_delta"`
	DropDelta *RateDelta `json:"drop_delta"`
}

// VersionTable returns the summaries of version for the given workloads,
// skipping workloads it has no runs for.
func (m VersionMatrix) VersionTable(version string, workloads []string) []WorkloadSummary {
	out := make([]WorkloadSummary, 0, len(workloads))

	for _, w := range workloads {
		if s, ok := m[version][w]; ok {
			out = append(out, WorkloadSummary{Workload: w, Summary: s})
		}
	}

	return out
}

// CompareVersions builds comparison rows for the given workloads. Workloads
// absent from both versions are skipped.
func (m VersionMatrix) CompareVersions(reference, compared string, workloads []string) []VersionComparisonRow {
	out := make([]VersionComparisonRow, 0, len(workloads))

	for _, w := range workloads {
		ref, refOK := m[reference][w]
		cmp, cmpOK := m[compared][w]

		if !refOK && !cmpOK {
			continue
		}

		row := VersionComparisonRow{Workload: w}

		if refOK {
			row.Reference = &ref
		}

		if cmpOK {
			row.Compared = &cmp
		}

		if refOK && cmpOK {
			if ref.MedianAchievedTPS.Valid && cmp.MedianAchievedTPS.Valid {
				d := NewDelta(cmp.MedianAchievedTPS.Value, ref.MedianAchievedTPS.Value)
				row.TPSDelta = &d
			}

			if ref.MedianDropRate.Valid && cmp.MedianDropRate.Valid {
				d := NewRateDelta(cmp.MedianDropRate.Value, ref.MedianDropRate.Value)
				row.DropDelta = &d
			}
		}

		out = append(out, row)
	}

	return out
}

// VersionQuery selects what a version report covers. Empty fields pick
// defaults: the most recent version as reference, the next two as
// compared versions and every workload of the selected versions.
type VersionQuery struct {
	Reference  string
	Compared   []string
	Workloads  []string
	SharedOnly bool
}

// VersionComparison is the comparison of the reference against one version.
type VersionComparison struct {
	Version string                 `json:"version"`
	Label   string                 `json:"label"`
	Rows    []VersionComparisonRow `json:"rows"`
}

// VersionReport is the medians view across client versions.
type VersionReport struct {
	Versions       []string            `json:"versions"`
	Labels         map[string]string   `json:"labels"`
	Reference      string              `json:"reference"`
	ReferenceLabel string              `json:"reference_label"`
	Workloads      []string            `json:"workloads"`
	ReferenceRows  []WorkloadSummary   `json:"reference_rows"`
	Comparisons    []VersionComparison `json:"comparisons"`
}

// defaultComparedVersions is how many versions are compared against the
// reference when the query names none.
const defaultComparedVersions = 2

// BuildVersionReport computes the version medians view. With no records the
// report is empty.
func BuildVersionReport(records []*report.RunRecord, q VersionQuery) *VersionReport {
	bounds := ComputeVersionBounds(records)
	order := VersionOrder(bounds)

	rep := &VersionReport{
		Versions:      order,
		Labels:        VersionLabels(bounds),
		Workloads:     []string{},
		ReferenceRows: []WorkloadSummary{},
		Comparisons:   []VersionComparison{},
	}

	if len(order) == 0 {
		return rep
	}

	rep.Reference = q.Reference
	if rep.Reference == "" {
		rep.Reference = order[0]
	}

	rep.ReferenceLabel = FormatVersionLabel(rep.Reference, bounds)

	compared := q.Compared
	if len(compared) == 0 {
		for _, v := range order {
			if v != rep.Reference && len(compared) < defaultComparedVersions {
				compared = append(compared, v)
			}
		}
	}

	compared = slices.DeleteFunc(slices.Clone(compared), func(v string) bool {
		return v == rep.Reference
	})

	selected := append([]string{rep.Reference}, compared...)
	matrix := BuildVersionMatrix(records)

	workloads := q.Workloads
	if len(workloads) == 0 {
		workloads = matrix.Workloads(selected)
	}

	if q.SharedOnly {
		workloads = matrix.SharedWorkloads(workloads, selected)
	}

	rep.Workloads = matrix.WorkloadOrder(workloads, selected)
	rep.ReferenceRows = matrix.VersionTable(rep.Reference, rep.Workloads)

	for _, v := range compared {
		rep.Comparisons = append(rep.Comparisons, VersionComparison{
			Version: v,
			Label:   FormatVersionLabel(v, bounds),
			Rows:    matrix.CompareVersions(rep.Reference, v, rep.Workloads),
		})
	}

	return rep
}
