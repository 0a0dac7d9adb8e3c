package compare

import (
	"cmp"
	"slices"

	"github.com/ethpandaops/txreports/pkg/report"
)

// KeyFunc extracts a grouping key from a record.
type KeyFunc func(*report.RunRecord) string

// ByWorkload groups records by workload name.
func ByWorkload(r *report.RunRecord) string {
	return r.WorkloadName
}

// ByClientVersion groups records by client version label.
func ByClientVersion(r *report.RunRecord) string {
	if r.ClientVersion == "" {
		return report.DefaultClientVersion
	}

	return r.ClientVersion
}

// GroupBy partitions records by key. Each group is ordered newest first.
func GroupBy(records []*report.RunRecord, key KeyFunc) map[string][]*report.RunRecord {
	groups := make(map[string][]*report.RunRecord)

	for _, r := range records {
		k := key(r)
		groups[k] = append(groups[k], r)
	}

	for _, g := range groups {
		SortByStartDesc(g)
	}

	return groups
}

// SortedKeys returns the group keys in lexical order.
func SortedKeys[V any](groups map[string]V) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// SortByStartDesc orders records newest first, breaking ties by source.
func SortByStartDesc(records []*report.RunRecord) {
	slices.SortStableFunc(records, func(a, b *report.RunRecord) int {
		if c := b.Start.Compare(a.Start); c != 0 {
			return c
		}

		return cmp.Compare(a.Source, b.Source)
	})
}

// Filter returns the records for which keep returns true, preserving order.
func Filter(records []*report.RunRecord, keep func(*report.RunRecord) bool) []*report.RunRecord {
	out := make([]*report.RunRecord, 0, len(records))

	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}

	return out
}

// WorkloadPool returns the records that share base's workload name, the
// candidate pool for comparing base. base itself is part of the pool.
func WorkloadPool(base *report.RunRecord, records []*report.RunRecord) []*report.RunRecord {
	return Filter(records, func(r *report.RunRecord) bool {
		return r.WorkloadName == base.WorkloadName
	})
}

// FindBySource returns the record with the given source identifier.
func FindBySource(records []*report.RunRecord, source string) (*report.RunRecord, bool) {
	for _, r := range records {
		if r.Source == source {
			return r, true
		}
	}

	return nil, false
}

// StatKeys returns the sorted union of statistic names across records.
func StatKeys(records []*report.RunRecord) []string {
	seen := make(map[string]struct{})

	for _, r := range records {
		for k := range r.Stats {
			seen[k] = struct{}{}
		}
	}

	return SortedKeys(seen)
}
