package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultClientVersion is used when a report carries no client_version.
const DefaultClientVersion = "Unknown"

// Decode parses a report document. The document must be a single JSON
// object; numbers are kept as json.Number so integer counters survive
// intact.
func Decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Input: string(data), Msg: "malformed JSON", Err: err}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Input: string(data), Msg: "trailing data after JSON document"}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Input: string(data), Msg: "report is not a JSON object"}
	}

	return obj, nil
}

// Derive normalizes one raw report object into a RunRecord. It never
// returns a partially populated record: on any failure the result is nil and
// the error is a *RejectedError naming the source.
func Derive(raw map[string]any, source string) (rec *RunRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &RejectedError{Source: source, Cause: fmt.Errorf("unexpected failure: %v", r)}
		}
	}()

	rec, err = derive(raw, source)
	if err != nil {
		return nil, &RejectedError{Source: source, Cause: err}
	}

	return rec, nil
}

func derive(raw map[string]any, source string) (*RunRecord, error) {
	if raw == nil {
		return nil, errors.New("empty report")
	}

	start, err := requiredTimestamp(raw, "start_time")
	if err != nil {
		return nil, err
	}

	end, err := requiredTimestamp(raw, "end_time")
	if err != nil {
		return nil, err
	}

	duration := math.Max(end.Sub(start).Seconds(), 0)

	// Negative or oversized indexes are kept and simply select no group.
	workloadIdx := 0
	if v, ok := raw["workload_idx"]; ok {
		if n, err := coerceInt(v); err == nil && n >= math.MinInt && n <= math.MaxInt {
			workloadIdx = int(n)
		}
	}

	workloadName := fmt.Sprintf("workload_%d", workloadIdx)

	group := workloadGroup(raw, workloadIdx)
	if name, ok := group["name"].(string); ok && strings.TrimSpace(name) != "" {
		workloadName = name
	}

	var workloadConfig map[string]any
	if len(group) > 0 {
		workloadConfig, _ = cloneValue(group).(map[string]any)
	}

	if workloadConfig == nil {
		workloadConfig = make(map[string]any)
	}

	hash, err := Fingerprint(workloadConfig)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting workload config: %w", err)
	}

	targetTPS, err := counter(raw, "target_tps", 0)
	if err != nil {
		return nil, err
	}

	sent, err := counter(raw, "txs_sent", 0)
	if err != nil {
		return nil, err
	}

	committed, err := counter(raw, "txs_committed", 0)
	if err != nil {
		return nil, err
	}

	dropped, err := counter(raw, "txs_dropped", max(0, sent-committed))
	if err != nil {
		return nil, err
	}

	var achievedTPS float64
	if duration > 0 {
		achievedTPS = float64(committed) / duration
	}

	// Not clamped: dropped > sent is a real data-quality signal.
	var dropRate float64
	if sent > 0 {
		dropRate = float64(dropped) / float64(sent)
	}

	clientVersion := DefaultClientVersion
	if v, ok := raw["client_version"].(string); ok && v != "" {
		clientVersion = v
	}

	statsText, _ := raw["stats_str"].(string)

	return &RunRecord{
		Source:          source,
		Start:           start,
		End:             end,
		DurationSeconds: duration,
		WorkloadIndex:   workloadIdx,
		WorkloadName:    workloadName,
		WorkloadConfig:  workloadConfig,
		ConfigHash:      hash,
		GenMode:         firstGenMode(group).String(),
		ClientVersion:   clientVersion,
		TargetTPS:       targetTPS,
		TxsSent:         sent,
		TxsCommitted:    committed,
		TxsDropped:      dropped,
		AchievedTPS:     achievedTPS,
		DropRate:        dropRate,
		Stats:           decodeStats(raw["stats"]),
		StatsText:       statsText,
	}, nil
}

func requiredTimestamp(raw map[string]any, key string) (time.Time, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return time.Time{}, fmt.Errorf("missing %s", key)
	}

	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: expected string, got %T", key, v)
	}

	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}

	return t, nil
}

// workloadGroup returns config.workload_groups[idx], or nil when the report
// does not contain that group.
func workloadGroup(raw map[string]any, idx int) map[string]any {
	cfg, ok := raw["config"].(map[string]any)
	if !ok {
		return nil
	}

	groups, ok := cfg["workload_groups"].([]any)
	if !ok || idx < 0 || idx >= len(groups) {
		return nil
	}

	group, _ := groups[idx].(map[string]any)

	return group
}

func firstGenMode(group map[string]any) GenMode {
	gens, ok := group["traffic_gens"].([]any)
	if !ok || len(gens) == 0 {
		return GenMode{}
	}

	first, ok := gens[0].(map[string]any)
	if !ok {
		return GenMode{}
	}

	return DecodeGenMode(first["gen_mode"])
}

// counter reads a non-negative integer field. A missing field yields def;
// a present but non-integer value rejects the report.
func counter(raw map[string]any, key string, def int64) (int64, error) {
	v, ok := raw[key]
	if !ok {
		return def, nil
	}

	n, err := coerceInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return max(n, 0), nil
}

// coerceInt converts a decoded JSON value to an integer. Floats truncate
// toward zero and numeric strings must be integral.
func coerceInt(v any) (int64, error) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}

		f, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", val.String())
		}

		return truncateFloat(f)
	case float64:
		return truncateFloat(val)
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case bool:
		if val {
			return 1, nil
		}

		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", val)
		}

		return n, nil
	case nil:
		return 0, errors.New("expected integer, got null")
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func truncateFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("number %v out of range", f)
	}

	return int64(f), nil
}

func coerceFloat(v any) (float64, bool) {
	var (
		f   float64
		err error
	)

	switch val := v.(type) {
	case json.Number:
		f, err = val.Float64()
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return 0, false
	}

	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// decodeStats extracts the "overall" percentile bundle of every metric.
// Entries without an overall object are dropped.
func decodeStats(v any) map[string]StatSummary {
	raw, ok := v.(map[string]any)
	if !ok || len(raw) == 0 {
		return map[string]StatSummary{}
	}

	stats := make(map[string]StatSummary, len(raw))

	for key, entry := range raw {
		report, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		overall, ok := report["overall"].(map[string]any)
		if !ok {
			continue
		}

		var summary StatSummary

		summary.Mean = floatField(overall, StatMean)
		summary.P25 = floatField(overall, StatP25)
		summary.P50 = floatField(overall, StatP50)
		summary.P90 = floatField(overall, StatP90)
		summary.P99 = floatField(overall, StatP99)

		if f, ok := coerceFloat(overall[StatSamples]); ok && f >= 0 && f < math.MaxInt64 {
			n := int64(f)
			summary.Samples = &n
		}

		stats[key] = summary
	}

	return stats
}

func floatField(m map[string]any, key string) *float64 {
	f, ok := coerceFloat(m[key])
	if !ok {
		return nil
	}

	return &f
}
