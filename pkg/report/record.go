package report

import (
	"fmt"
	"time"
)

// Stat field names accepted by StatSummary.Value.
const (
	StatMean    = "mean"
	StatP25     = "p25"
	StatP50     = "p50"
	StatP90     = "p90"
	StatP99     = "p99"
	StatSamples = "samples"
)

// StatSummary is the overall percentile bundle of one named metric. Nil
// fields were absent or non-numeric in the report.
type StatSummary struct {
	Mean    *float64 `json:"mean"`
	P25     *float64 `json:"p25"`
	P50     *float64 `json:"p50"`
	P90     *float64 `json:"p90"`
	P99     *float64 `json:"p99"`
	Samples *int64   `json:"samples"`
}

// Value returns the named field of the summary.
func (s StatSummary) Value(field string) (float64, bool) {
	var v *float64

	switch field {
	case StatMean:
		v = s.Mean
	case StatP25:
		v = s.P25
	case StatP50:
		v = s.P50
	case StatP90:
		v = s.P90
	case StatP99:
		v = s.P99
	case StatSamples:
		if s.Samples == nil {
			return 0, false
		}

		return float64(*s.Samples), true
	}

	if v == nil {
		return 0, false
	}

	return *v, true
}

// RunRecord is one normalized performance-test run. Records are immutable
// once returned by Derive and are shared between callers.
type RunRecord struct {
	Source          string                 `json:"file"`
	Start           time.Time              `json:"start"`
	End             time.Time              `json:"end"`
	DurationSeconds float64                `json:"duration_s"`
	WorkloadIndex   int                    `json:"workload_idx"`
	WorkloadName    string                 `json:"workload_name"`
	WorkloadConfig  map[string]any         `json:"workload_config"`
	ConfigHash      string                 `json:"workload_config_hash"`
	GenMode         string                 `json:"gen_mode"`
	ClientVersion   string                 `json:"client_version"`
	TargetTPS       int64                  `json:"target_tps"`
	TxsSent         int64                  `json:"txs_sent"`
	TxsCommitted    int64                  `json:"txs_committed"`
	TxsDropped      int64                  `json:"txs_dropped"`
	AchievedTPS     float64                `json:"achieved_tps"`
	DropRate        float64                `json:"drop_rate"`
	Stats           map[string]StatSummary `json:"stats"`
	StatsText       string                 `json:"stats_str,omitempty"`
}

// Stat returns the summary for a named metric.
func (r *RunRecord) Stat(key string) (StatSummary, bool) {
	s, ok := r.Stats[key]

	return s, ok
}

// StatValue returns one field of a named metric, e.g. ("rpc_latency", "p90").
func (r *RunRecord) StatValue(key, field string) (float64, bool) {
	s, ok := r.Stats[key]
	if !ok {
		return 0, false
	}

	return s.Value(field)
}

// ShortHash returns the first 8 characters of the config fingerprint.
func (r *RunRecord) ShortHash() string {
	if len(r.ConfigHash) < 8 {
		return r.ConfigHash
	}

	return r.ConfigHash[:8]
}

// Label is a compact human-readable identifier for pickers and tables.
func (r *RunRecord) Label() string {
	return fmt.Sprintf("%s | %s | %s | %s",
		r.Start.UTC().Format("2006-01-02 15:04"),
		r.WorkloadName, r.GenMode, r.ShortHash())
}
