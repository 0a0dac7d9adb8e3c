package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/txreports/pkg/compare"
	"github.com/ethpandaops/txreports/pkg/report"
)

var start = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func record(source, version string, offset time.Duration, tps, drop float64) *report.RunRecord {
	return &report.RunRecord{
		Source:          "reports/" + source,
		Start:           start.Add(offset),
		End:             start.Add(offset + time.Minute),
		DurationSeconds: 60,
		WorkloadName:    "transfers",
		WorkloadConfig:  map[string]any{"rate": float64(100)},
		ConfigHash:      "0123456789abcdef",
		GenMode:         "Constant",
		ClientVersion:   version,
		TargetTPS:       100,
		TxsSent:         6000,
		TxsCommitted:    5400,
		TxsDropped:      600,
		AchievedTPS:     tps,
		DropRate:        drop,
		Stats: map[string]report.StatSummary{
			"rpc": {P50: ptr(1.5), P90: ptr(2)},
		},
	}
}

func TestRuns(t *testing.T) {
	out := Runs([]*report.RunRecord{
		record("a-report-1.json", "v1", 0, 90, 0.1),
		record("b-report-2.json", "", time.Hour, 95.5, 0.05),
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)

	assert.True(t, strings.HasPrefix(lines[0], "| Start | Workload |"))
	assert.Equal(t, "|---|---|---|---|---|---|---|---|---|---|---|---|", lines[1])
	assert.Equal(t,
		"| 2024-03-01 09:30 | transfers | Constant | v1 | 100 | 90.00 | 5400 | 600 | 10.00% | 1m 0s | `01234567` | a-report-1.json |",
		lines[2])
	assert.Contains(t, lines[3], "| "+report.DefaultClientVersion+" |")
}

func TestRuns_EscapesPipes(t *testing.T) {
	r := record("a-report-1.json", "v1", 0, 90, 0.1)
	r.WorkloadName = "a|b"

	assert.Contains(t, Runs([]*report.RunRecord{r}), `a\|b`)
}

func TestRunDetail(t *testing.T) {
	out := RunDetail(record("a-report-1.json", "v1", 0, 90, 0.1))

	assert.Contains(t, out, "# Run: a-report-1.json")
	assert.Contains(t, out, "| Drop rate | 10.00% |")
	assert.Contains(t, out, "## Stats (overall)")
	assert.Contains(t, out, "| rpc | n/a | n/a | 1.5 | 2 | n/a | n/a |")
}

func TestRunDetail_NoStats(t *testing.T) {
	r := record("a-report-1.json", "v1", 0, 90, 0.1)
	r.Stats = nil
	r.ConfigHash = ""

	out := RunDetail(r)

	assert.NotContains(t, out, "## Stats")
	assert.Contains(t, out, "| Config hash | n/a |")
}

func TestVersions(t *testing.T) {
	records := []*report.RunRecord{
		record("a-report-1.json", "v1", 0, 100, 0.1),
		record("b-report-2.json", "v2", 24*time.Hour, 120, 0.05),
	}

	out := Versions(compare.BuildVersionReport(records, compare.VersionQuery{}))

	assert.Contains(t, out, "## Reference: v2 (2024-03-02)")
	assert.Contains(t, out, "| transfers | 1 | 120.00 | 5.00% | 1m 0s | 2024-03-02 09:30 |")
	assert.Contains(t, out, "## v2 (2024-03-02) vs v1 (2024-03-01)")
	assert.Contains(t, out, "| transfers | 1 (1) | 120.00 (100.00) | +20.00 (+20.0%) | 5.00% (10.00%) | -5.00pp (-50.0%) |")
}

func TestVersions_Empty(t *testing.T) {
	assert.Equal(t, "No runs found.\n", Versions(compare.BuildVersionReport(nil, compare.VersionQuery{})))
}

func TestComparison(t *testing.T) {
	base := record("base-report-1.json", "v1", 0, 1000, 0.01)
	slow := record("slow-report-2.json", "v1", time.Hour, 850, 0.01)
	slow.WorkloadConfig = map[string]any{"rate": float64(150)}
	slow.ConfigHash = "fedcba9876543210"
	slow.Stats = map[string]report.StatSummary{"rpc": {P90: ptr(3)}}

	c, err := compare.Compare(base, []*report.RunRecord{base, slow}, compare.MatchOptions{}, "rpc")
	require.NoError(t, err)

	out := Comparison(c)

	assert.Contains(t, out, "## Baseline: 2024-03-01 09:30 | transfers | Constant | 01234567")
	assert.Contains(t, out, "| Role | Start | Version | Target TPS | Achieved TPS | Drop rate | rpc p90 | rpc p50 | File | Regression |")
	assert.Contains(t, out, "| Baseline | 2024-03-01 09:30 | v1 | 100 | 1000.00 | 1.00% | 2.000 | 1.500 | base-report-1.json |  |")
	assert.Contains(t, out, "850.00 (-15.0%)")
	assert.Contains(t, out, "1.00% (+0.00pp)")
	assert.Contains(t, out, "3.000 (+50.0%) | n/a |")
	assert.Contains(t, out, "⚠️ achieved -15.0%, rpc p90 +50.0%")
	assert.Contains(t, out, "## Config differences")
	assert.Contains(t, out, "| slow-report-2.json | replace | `/rate` | `150` |")
}

func TestComparison_NoStatKey(t *testing.T) {
	base := record("base-report-1.json", "v1", 0, 1000, 0.01)

	c, err := compare.Compare(base, []*report.RunRecord{base}, compare.MatchOptions{}, "")
	require.NoError(t, err)

	out := Comparison(c)

	assert.NotContains(t, out, "p90")
	assert.NotContains(t, out, "Config differences")
}
