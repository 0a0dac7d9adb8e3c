package compare

import (
	"time"

	"github.com/ethpandaops/txreports/pkg/report"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return t0.AddDate(0, 0, n)
}

type recordOpt func(*report.RunRecord)

func withWorkload(name string) recordOpt {
	return func(r *report.RunRecord) { r.WorkloadName = name }
}

func withVersion(v string) recordOpt {
	return func(r *report.RunRecord) { r.ClientVersion = v }
}

func withStart(t time.Time) recordOpt {
	return func(r *report.RunRecord) { r.Start = t; r.End = t.Add(time.Minute) }
}

func withTPS(tps float64) recordOpt {
	return func(r *report.RunRecord) { r.AchievedTPS = tps }
}

func withDropRate(rate float64) recordOpt {
	return func(r *report.RunRecord) { r.DropRate = rate }
}

func withDuration(s float64) recordOpt {
	return func(r *report.RunRecord) { r.DurationSeconds = s }
}

func withHash(h string) recordOpt {
	return func(r *report.RunRecord) { r.ConfigHash = h }
}

func withConfig(cfg map[string]any) recordOpt {
	return func(r *report.RunRecord) {
		r.WorkloadConfig = cfg

		hash, err := report.Fingerprint(cfg)
		if err != nil {
			panic(err)
		}

		r.ConfigHash = hash
	}
}

func withP90(key string, v float64) recordOpt {
	return func(r *report.RunRecord) {
		if r.Stats == nil {
			r.Stats = map[string]report.StatSummary{}
		}

		s := r.Stats[key]
		s.P90 = &v
		r.Stats[key] = s
	}
}

func withP50(key string, v float64) recordOpt {
	return func(r *report.RunRecord) {
		if r.Stats == nil {
			r.Stats = map[string]report.StatSummary{}
		}

		s := r.Stats[key]
		s.P50 = &v
		r.Stats[key] = s
	}
}

func newRecord(source string, opts ...recordOpt) *report.RunRecord {
	r := &report.RunRecord{
		Source:         source,
		Start:          t0,
		End:            t0.Add(time.Minute),
		WorkloadName:   "transfers",
		WorkloadConfig: map[string]any{},
		GenMode:        "Constant",
		ClientVersion:  "v1",
		Stats:          map[string]report.StatSummary{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func sources(records []*report.RunRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Source
	}

	return out
}
