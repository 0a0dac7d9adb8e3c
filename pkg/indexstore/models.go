package indexstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethpandaops/txreports/pkg/report"
)

// Snapshot describes the most recent persisted load of a reports directory.
type Snapshot struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Dir        string    `gorm:"not null;uniqueIndex" json:"dir"`
	Version    uint64    `json:"version"`
	LoadedAt   time.Time `json:"loaded_at"`
	Files      int       `json:"files"`
	Candidates int       `json:"candidates"`
	Accepted   int       `json:"accepted"`
	Rejected   int       `json:"rejected"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// Run is one persisted run record. StartedAt and EndedAt are unix
// microseconds.
type Run struct {
	ID              uint   `gorm:"primaryKey"`
	Dir             string `gorm:"not null;uniqueIndex:idx_runs_dir_source"`
	Source          string `gorm:"not null;uniqueIndex:idx_runs_dir_source"`
	StartedAt       int64  `gorm:"index"`
	EndedAt         int64
	DurationSeconds float64
	WorkloadIndex   int
	WorkloadName    string `gorm:"index"`
	ConfigHash      string `gorm:"index"`
	GenMode         string
	ClientVersion   string `gorm:"index"`
	TargetTPS       int64
	TxsSent         int64
	TxsCommitted    int64
	TxsDropped      int64
	AchievedTPS     float64
	DropRate        float64

	// Nested data serialized as JSON.
	ConfigJSON string `gorm:"type:text"`
	StatsJSON  string `gorm:"type:text"`
	StatsText  string `gorm:"type:text"`

	IndexedAt time.Time
}

// NewRun converts a record for persistence under dir.
func NewRun(dir string, r *report.RunRecord, indexedAt time.Time) (*Run, error) {
	cfg, err := json.Marshal(r.WorkloadConfig)
	if err != nil {
		return nil, fmt.Errorf("encoding workload config of %s: %w", r.Source, err)
	}

	stats, err := json.Marshal(r.Stats)
	if err != nil {
		return nil, fmt.Errorf("encoding stats of %s: %w", r.Source, err)
	}

	return &Run{
		Dir:             dir,
		Source:          r.Source,
		StartedAt:       r.Start.UnixMicro(),
		EndedAt:         r.End.UnixMicro(),
		DurationSeconds: r.DurationSeconds,
		WorkloadIndex:   r.WorkloadIndex,
		WorkloadName:    r.WorkloadName,
		ConfigHash:      r.ConfigHash,
		GenMode:         r.GenMode,
		ClientVersion:   r.ClientVersion,
		TargetTPS:       r.TargetTPS,
		TxsSent:         r.TxsSent,
		TxsCommitted:    r.TxsCommitted,
		TxsDropped:      r.TxsDropped,
		AchievedTPS:     r.AchievedTPS,
		DropRate:        r.DropRate,
		ConfigJSON:      string(cfg),
		StatsJSON:       string(stats),
		StatsText:       r.StatsText,
		IndexedAt:       indexedAt,
	}, nil
}

// Record converts a persisted run back into a run record.
func (r *Run) Record() (*report.RunRecord, error) {
	rec := &report.RunRecord{
		Source:          r.Source,
		Start:           time.UnixMicro(r.StartedAt).UTC(),
		End:             time.UnixMicro(r.EndedAt).UTC(),
		DurationSeconds: r.DurationSeconds,
		WorkloadIndex:   r.WorkloadIndex,
		WorkloadName:    r.WorkloadName,
		WorkloadConfig:  map[string]any{},
		ConfigHash:      r.ConfigHash,
		GenMode:         r.GenMode,
		ClientVersion:   r.ClientVersion,
		TargetTPS:       r.TargetTPS,
		TxsSent:         r.TxsSent,
		TxsCommitted:    r.TxsCommitted,
		TxsDropped:      r.TxsDropped,
		AchievedTPS:     r.AchievedTPS,
		DropRate:        r.DropRate,
		Stats:           map[string]report.StatSummary{},
		StatsText:       r.StatsText,
	}

	if r.ConfigJSON != "" && r.ConfigJSON != "null" {
		if err := json.Unmarshal([]byte(r.ConfigJSON), &rec.WorkloadConfig); err != nil {
			return nil, fmt.Errorf("decoding workload config of %s: %w", r.Source, err)
		}
	}

	if r.StatsJSON != "" && r.StatsJSON != "null" {
		if err := json.Unmarshal([]byte(r.StatsJSON), &rec.Stats); err != nil {
			return nil, fmt.Errorf("decoding stats of %s: %w", r.Source, err)
		}
	}

	return rec, nil
}
