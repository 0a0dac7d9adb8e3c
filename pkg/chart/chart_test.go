package chart

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/txreports/pkg/report"
)

func trendRecords() []*report.RunRecord {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	return []*report.RunRecord{
		{Source: "c", Start: start.Add(2 * time.Hour), AchievedTPS: 90, TargetTPS: 100, DropRate: 0.1},
		{Source: "a", Start: start, AchievedTPS: 100, TargetTPS: 100},
		{Source: "b", Start: start.Add(time.Hour), AchievedTPS: 95, TargetTPS: 100, DropRate: 0.05},
	}
}

func TestWriteTrend(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "achieved tps", opts: Options{}},
		{name: "achieved tps with target", opts: Options{ShowTarget: true}},
		{name: "drop rate", opts: Options{Metric: MetricDropRate, ShowTarget: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			require.NoError(t, WriteTrend(&buf, "transfers", trendRecords(), tt.opts))

			cfg, err := png.DecodeConfig(&buf)
			require.NoError(t, err)
			assert.Greater(t, cfg.Width, cfg.Height)
		})
	}
}

func TestWriteTrend_SingleRun(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteTrend(&buf, "one", trendRecords()[:1], Options{}))
	assert.NotZero(t, buf.Len())
}

func TestWriteTrend_NoData(t *testing.T) {
	var buf bytes.Buffer

	assert.ErrorIs(t, WriteTrend(&buf, "empty", nil, Options{}), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestBuildTrend_DoesNotReorderInput(t *testing.T) {
	records := trendRecords()

	_, err := buildTrend("t", records, Options{Metric: MetricAchievedTPS})
	require.NoError(t, err)

	assert.Equal(t, "c", records[0].Source)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricAchievedTPS, m)

	m, err = ParseMetric("drop_rate")
	require.NoError(t, err)
	assert.Equal(t, MetricDropRate, m)

	_, err = ParseMetric("latency")
	assert.Error(t, err)
}
