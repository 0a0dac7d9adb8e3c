package compare

import (
	"fmt"

	"github.com/ethpandaops/txreports/pkg/report"
)

// MatchMode selects which pool records are eligible for comparison.
type MatchMode int

const (
	// MatchByName matches records with the baseline's workload name.
	MatchByName MatchMode = iota
	// MatchByConfig matches records with the baseline's config fingerprint.
	MatchByConfig
)

func (m MatchMode) String() string {
	switch m {
	case MatchByName:
		return "name"
	case MatchByConfig:
		return "config"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode parses "name" or "config". The empty string means name.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "name":
		return MatchByName, nil
	case "config":
		return MatchByConfig, nil
	default:
		return MatchByName, fmt.Errorf("unknown match mode %q (want name or config)", s)
	}
}

// MatchOptions controls MatchingSet.
type MatchOptions struct {
	Mode MatchMode
	// Include force-adds records by source regardless of mode.
	Include []string
	// Exclude removes records by source. Exclusion wins over Include.
	Exclude []string
	// Limit caps the result size when positive.
	Limit int
}

// MatchingSet selects the comparison set for base from pool. The baseline
// itself is never part of the set. Auto-matched records keep pool order;
// force-included records follow, also in pool order.
//
// In config mode a baseline without a fingerprint matches nothing.
func MatchingSet(base *report.RunRecord, pool []*report.RunRecord, opts MatchOptions) []*report.RunRecord {
	exclude := toSet(opts.Exclude)
	include := toSet(opts.Include)
	selected := make(map[string]struct{})

	var out []*report.RunRecord

	for _, r := range pool {
		if r.Source == base.Source {
			continue
		}

		if _, ok := exclude[r.Source]; ok {
			continue
		}

		if !autoMatch(base, r, opts.Mode) {
			continue
		}

		if _, dup := selected[r.Source]; dup {
			continue
		}

		selected[r.Source] = struct{}{}
		out = append(out, r)
	}

	for _, r := range pool {
		if _, ok := include[r.Source]; !ok || r.Source == base.Source {
			continue
		}

		if _, ok := exclude[r.Source]; ok {
			continue
		}

		if _, dup := selected[r.Source]; dup {
			continue
		}

		selected[r.Source] = struct{}{}
		out = append(out, r)
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	return out
}

func autoMatch(base, candidate *report.RunRecord, mode MatchMode) bool {
	switch mode {
	case MatchByConfig:
		return base.ConfigHash != "" && candidate.ConfigHash == base.ConfigHash
	default:
		return candidate.WorkloadName == base.WorkloadName
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}

	return set
}
