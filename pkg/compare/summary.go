package compare

import (
	"encoding/json"
	"math"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/ethpandaops/txreports/pkg/report"
)

// OptionalFloat is a float that may be undefined. Undefined values encode
// as JSON null.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Some wraps a defined value.
func Some(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

// None is the undefined value.
func None() OptionalFloat {
	return OptionalFloat{}
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(o.Value)
}

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptionalFloat{}

		return nil
	}

	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}

	o.Valid = true

	return nil
}

// Median returns the median of xs, averaging the two middle values for an
// even count. Empty input is undefined.
func Median(xs []float64) OptionalFloat {
	if len(xs) == 0 {
		return None()
	}

	m := stats.Sample{Xs: xs}.Quantile(0.5)
	if math.IsNaN(m) {
		return None()
	}

	return Some(m)
}

// Summary aggregates one group of records.
type Summary struct {
	Runs              int           `json:"runs"`
	Workloads         int           `json:"workloads"`
	MedianAchievedTPS OptionalFloat `json:"median_achieved_tps"`
	MedianDropRate    OptionalFloat `json:"median_drop_rate"`
	MedianDuration    OptionalFloat `json:"median_duration_s"`
	LatestStart       *time.Time    `json:"latest_start"`
}

// Summarize computes the summary of a group. An empty group yields zero
// counts and undefined medians.
func Summarize(group []*report.RunRecord) Summary {
	if len(group) == 0 {
		return Summary{}
	}

	tps := make([]float64, 0, len(group))
	drop := make([]float64, 0, len(group))
	duration := make([]float64, 0, len(group))
	workloads := make(map[string]struct{})

	var latest time.Time

	for _, r := range group {
		tps = append(tps, r.AchievedTPS)
		drop = append(drop, r.DropRate)
		duration = append(duration, r.DurationSeconds)
		workloads[r.WorkloadName] = struct{}{}

		if r.Start.After(latest) {
			latest = r.Start
		}
	}

	return Summary{
		Runs:              len(group),
		Workloads:         len(workloads),
		MedianAchievedTPS: Median(tps),
		MedianDropRate:    Median(drop),
		MedianDuration:    Median(duration),
		LatestStart:       &latest,
	}
}

// SummarizeGroups summarizes every group.
func SummarizeGroups(groups map[string][]*report.RunRecord) map[string]Summary {
	out := make(map[string]Summary, len(groups))

	for k, g := range groups {
		out[k] = Summarize(g)
	}

	return out
}
