package compare

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/txreports/pkg/report"
)

// Regression thresholds.
const (
	// AchievedTPSDropPercent flags a candidate whose achieved TPS fell by at
	// least this much relative to the baseline.
	AchievedTPSDropPercent = 10.0
	// DropRateIncreasePP flags a drop rate increase of at least this many
	// percentage points.
	DropRateIncreasePP = 5.0
	// StatP90IncreasePercent flags a p90 increase of at least this much.
	StatP90IncreasePercent = 10.0
)

// RegressionKind names the metric a regression was detected on.
type RegressionKind string

const (
	RegressionAchievedTPS RegressionKind = "achieved"
	RegressionDropRate    RegressionKind = "drop"
	RegressionStatP90     RegressionKind = "stat_p90"
)

// RegressionNotePrefix starts every non-empty regression note.
const RegressionNotePrefix = "⚠️ "

// Regression is one triggered heuristic. Change is a percentage for
// throughput and p90 and percentage points for drop rate.
type Regression struct {
	Kind   RegressionKind `json:"kind"`
	Stat   string         `json:"stat,omitempty"`
	Change float64        `json:"change"`
}

func (r Regression) String() string {
	switch r.Kind {
	case RegressionAchievedTPS:
		return fmt.Sprintf("achieved %.1f%%", r.Change)
	case RegressionDropRate:
		return fmt.Sprintf("drop +%.1fpp", r.Change)
	case RegressionStatP90:
		return fmt.Sprintf("%s p90 +%.1f%%", r.Stat, r.Change)
	default:
		return string(r.Kind)
	}
}

// Regressions evaluates the regression heuristics of candidate against
// base. statKey selects the statistic whose p90 is checked; it is skipped
// when empty or when either record lacks a non-zero p90 for it.
func Regressions(base, candidate *report.RunRecord, statKey string) []Regression {
	var out []Regression

	if base.AchievedTPS > 0 {
		pct := (candidate.AchievedTPS - base.AchievedTPS) * 100 / base.AchievedTPS
		if pct <= -AchievedTPSDropPercent {
			out = append(out, Regression{Kind: RegressionAchievedTPS, Change: pct})
		}
	}

	if pp := (candidate.DropRate - base.DropRate) * 100; pp >= DropRateIncreasePP {
		out = append(out, Regression{Kind: RegressionDropRate, Change: pp})
	}

	if statKey != "" {
		baseP90, ok1 := base.StatValue(statKey, report.StatP90)
		candP90, ok2 := candidate.StatValue(statKey, report.StatP90)

		if ok1 && ok2 && baseP90 != 0 && candP90 != 0 {
			change := (candP90 - baseP90) * 100 / baseP90
			if change >= StatP90IncreasePercent {
				out = append(out, Regression{Kind: RegressionStatP90, Stat: statKey, Change: change})
			}
		}
	}

	return out
}

// RegressionNote renders the triggered heuristics as one human-readable
// note, or "" when nothing regressed.
func RegressionNote(base, candidate *report.RunRecord, statKey string) string {
	return FormatRegressions(Regressions(base, candidate, statKey))
}

// FormatRegressions joins regressions into a note.
func FormatRegressions(regs []Regression) string {
	if len(regs) == 0 {
		return ""
	}

	parts := make([]string, len(regs))
	for i, r := range regs {
		parts[i] = r.String()
	}

	return RegressionNotePrefix + strings.Join(parts, ", ")
}
