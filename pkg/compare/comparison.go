package compare

import (
	"fmt"

	"github.com/ethpandaops/txreports/pkg/report"
)

// ComparisonRow is one candidate compared against the baseline.
type ComparisonRow struct {
	Run         *report.RunRecord `json:"run"`
	AchievedTPS Delta             `json:"achieved_tps"`
	DropRate    RateDelta         `json:"drop_rate"`
	StatP50     *Delta            `json:"stat_p50,omitempty"`
	StatP90     *Delta            `json:"stat_p90,omitempty"`
	Regressions []Regression      `json:"regressions"`
	Note        string            `json:"note"`
	// ConfigDiff is set when the candidate's fingerprint differs.
	ConfigDiff []ConfigChange `json:"config_diff,omitempty"`
}

// Comparison is a baseline and its comparison set.
type Comparison struct {
	Baseline *report.RunRecord `json:"baseline"`
	Mode     string            `json:"match"`
	StatKey  string            `json:"stat,omitempty"`
	StatKeys []string          `json:"stat_keys"`
	Rows     []ComparisonRow   `json:"rows"`
}

// Compare selects the comparison set for base from pool and computes the
// deltas and regression notes of every candidate.
func Compare(
	base *report.RunRecord, pool []*report.RunRecord, opts MatchOptions, statKey string,
) (*Comparison, error) {
	matches := MatchingSet(base, pool, opts)

	c := &Comparison{
		Baseline: base,
		Mode:     opts.Mode.String(),
		StatKey:  statKey,
		StatKeys: StatKeys(append([]*report.RunRecord{base}, matches...)),
		Rows:     make([]ComparisonRow, 0, len(matches)),
	}

	for _, r := range matches {
		regs := Regressions(base, r, statKey)

		row := ComparisonRow{
			Run:         r,
			AchievedTPS: NewDelta(base.AchievedTPS, r.AchievedTPS),
			DropRate:    NewRateDelta(base.DropRate, r.DropRate),
			StatP50:     statDelta(base, r, statKey, report.StatP50),
			StatP90:     statDelta(base, r, statKey, report.StatP90),
			Regressions: regs,
			Note:        FormatRegressions(regs),
		}

		if row.Regressions == nil {
			row.Regressions = []Regression{}
		}

		if r.ConfigHash != base.ConfigHash {
			diff, err := ConfigDiff(base.WorkloadConfig, r.WorkloadConfig)
			if err != nil {
				return nil, fmt.Errorf("comparing config of %s: %w", r.Source, err)
			}

			row.ConfigDiff = diff
		}

		c.Rows = append(c.Rows, row)
	}

	return c, nil
}

func statDelta(base, candidate *report.RunRecord, key, field string) *Delta {
	if key == "" {
		return nil
	}

	b, ok1 := base.StatValue(key, field)
	v, ok2 := candidate.StatValue(key, field)

	if !ok1 || !ok2 {
		return nil
	}

	d := NewDelta(b, v)

	return &d
}
