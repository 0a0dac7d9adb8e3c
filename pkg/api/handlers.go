package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/txreports/pkg/chart"
	"github.com/ethpandaops/txreports/pkg/compare"
	"github.com/ethpandaops/txreports/pkg/report"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loadRecords returns the records of the served directory, writing an error
// response on failure.
func (s *server) loadRecords(w http.ResponseWriter, r *http.Request) ([]*report.RunRecord, bool) {
	records, err := s.reports.Load(r.Context(), s.dir)
	if err != nil {
		s.log.WithError(err).Error("Failed to load reports")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"loading reports: " + err.Error()})

		return nil, false
	}

	return records, true
}

// runEntry is the list view of a record; configuration and stats are only
// returned by the detail endpoint.
type runEntry struct {
	File            string    `json:"file"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_s"`
	WorkloadIndex   int       `json:"workload_idx"`
	WorkloadName    string    `json:"workload_name"`
	ConfigHash      string    `json:"workload_config_hash"`
	GenMode         string    `json:"gen_mode"`
	ClientVersion   string    `json:"client_version"`
	TargetTPS       int64     `json:"target_tps"`
	TxsSent         int64     `json:"txs_sent"`
	TxsCommitted    int64     `json:"txs_committed"`
	TxsDropped      int64     `json:"txs_dropped"`
	AchievedTPS     float64   `json:"achieved_tps"`
	DropRate        float64   `json:"drop_rate"`
	StatKeys        []string  `json:"stat_keys"`
	Label           string    `json:"label"`
}

func newRunEntry(r *report.RunRecord) runEntry {
	return runEntry{
		File:            r.Source,
		Start:           r.Start,
		End:             r.End,
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
		StatKeys:        compare.StatKeys([]*report.RunRecord{r}),
		Label:           r.Label(),
	}
}

// filterRecords applies the optional workload and version query filters.
func filterRecords(records []*report.RunRecord, r *http.Request) []*report.RunRecord {
	workload := r.URL.Query().Get("workload")
	version := r.URL.Query().Get("version")

	if workload == "" && version == "" {
		return records
	}

	return compare.Filter(records, func(rec *report.RunRecord) bool {
		if workload != "" && rec.WorkloadName != workload {
			return false
		}

		return version == "" || compare.ByClientVersion(rec) == version
	})
}

// handleRuns lists records newest first.
func (s *server) handleRuns(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadRecords(w, r)
	if !ok {
		return
	}

	records = filterRecords(records, r)

	entries := make([]runEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, newRunEntry(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(entries),
		"runs":  entries,
	})
}

// findRun resolves a file parameter by exact source or by base name.
func findRun(records []*report.RunRecord, file string) (*report.RunRecord, bool) {
	if rec, ok := compare.FindBySource(records, file); ok {
		return rec, true
	}

	for _, rec := range records {
		if path.Base(rec.Source) == file {
			return rec, true
		}
	}

	return nil, false
}

// handleRunDetail returns one record including configuration and stats.
func (s *server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{"file is required"})

		return
	}

	records, ok := s.loadRecords(w, r)
	if !ok {
		return
	}

	rec, found := findRun(records, file)
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{"run not found"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":   rec,
		"label": rec.Label(),
	})
}

// handleWorkloads returns per-workload summaries.
func (s *server) handleWorkloads(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadRecords(w, r)
	if !ok {
		return
	}

	groups := compare.GroupBy(filterRecords(records, r), compare.ByWorkload)

	out := make([]compare.WorkloadSummary, 0, len(groups))
	for _, name := range compare.SortedKeys(groups) {
		out = append(out, compare.WorkloadSummary{
			Workload: name,
			Summary:  compare.Summarize(groups[name]),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"workloads": out})
}

type versionEntry struct {
	Version string `json:"version"`
	Label   string `json:"label"`
	compare.VersionBounds
	Runs int `json:"runs"`
}

// handleVersions returns client versions ordered by latest run.
func (s *server) handleVersions(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadRecords(w, r)
	if !ok {
		return
	}

	bounds := compare.ComputeVersionBounds(records)
	groups := compare.GroupBy(records, compare.ByClientVersion)

	out := make([]versionEntry, 0, len(bounds))
	for _, v := range compare.VersionOrder(bounds) {
		out = append(out, versionEntry{
			Version:       v,
			Label:         compare.FormatVersionLabel(v, bounds),
			VersionBounds: bounds[v],
			Runs:          len(groups[v]),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"versions": out})
}

// multiValue returns every value of a repeated or comma-separated query
// parameter, skipping blanks.
func multiValue(r *http.Request, key string) []string {
	var out []string

	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

func boolParam(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}

	return strconv.ParseBool(v)
}

// handleVersionCompare returns the medians of a reference version and its
// deltas against other versions.
func (s *server) handleVersionCompare(w http.ResponseWriter, r *http.Request) {
	sharedOnly, err := boolParam(r, "shared_only")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid shared_only: " + err.Error()})

		return
	}

	records, ok := s.loadRecords(w, r)
	if !ok {
		return
	}

	q := compare.VersionQuery{
		Reference:  r.URL.Query().Get("reference"),
		Compared:   multiValue(r, "compare"),
		Workloads:  multiValue(r, "workload"),
		SharedOnly: sharedOnly,
	}

	bounds := compare.ComputeVersionBounds(records)

	for _, v := range append([]string{q.Reference}, q.Compared...) {
		if _, known := bounds[v]; v != "" && !known {
			writeJSON(w, http.StatusNotFound, errorResponse{"unknown version: " + v})

			return
		}
	}

	writeJSON(w, http.StatusOK, compare.BuildVersionReport(records, q))
}

// handleCompare compares a baseline run against its matching set.
func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	file := query.Get("file")
	if file == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{"file is required"})

		return
	}

	mode, err := compare.ParseMatchMode(query.Get("match"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	limit := 0

	if v := query.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{"invalid limit"})

			return
		}
	}

	records, ok := s.loadRecords(w, r)
	if !ok {
		return
	}

	base, found := findRun(records, file)
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{"run not found"})

		return
	}

	statKey := query.Get("stat")
	if statKey != "" && !slices.Contains(compare.StatKeys(records), statKey) {
		writeJSON(w, http.StatusBadRequest, errorResponse{"unknown stat: " + statKey})

		return
	}

	result, err := compare.Compare(base, compare.WorkloadPool(base, records), compare.MatchOptions{
		Mode:    mode,
		Include: resolveSources(records, multiValue(r, "include")),
		Exclude: resolveSources(records, multiValue(r, "exclude")),
		Limit:   limit,
	}, statKey)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, result)
}

// resolveSources maps base names to full source identifiers. Unknown names
// are kept as given.
func resolveSources(records []*report.RunRecord, files []string) []string {
	out := make([]string, 0, len(files))

	for _, f := range files {
		if rec, ok := findRun(records, f); ok {
			out = append(out, rec.Source)

			continue
		}

		out = append(out, f)
	}

	return out
}

// handleTrendChart renders the trend of one workload as PNG.
func (s *server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	workload := query.Get("workload")
	if workload == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{"workload is required"})

		return
	}

	metric, err := chart.ParseMetric(query.Get("metric"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	showTarget, err := boolParam(r, "target")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid target: " + err.Error()})

		return
	}

	records, ok := s.loadRecords(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer

	err = chart.WriteTrend(&buf, workload, filterRecords(records, r), chart.Options{
		Metric:     metric,
		ShowTarget: showTarget,
	})
	if errors.Is(err, chart.ErrNoData) {
		writeJSON(w, http.StatusNotFound, errorResponse{"no runs for workload"})

		return
	}

	if err != nil {
		s.log.WithError(err).Error("Failed to render chart")
		writeJSON(w, http.StatusInternalServerError, errorResponse{"rendering chart"})

		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	_, _ = buf.WriteTo(w)
}

// handleReload drops the cached records and loads them again.
func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.reports.Invalidate(s.dir)

	if _, ok := s.loadRecords(w, r); !ok {
		return
	}

	resp := map[string]any{"dir": s.dir}

	if snap, ok := s.reports.Snapshot(s.dir); ok {
		resp["version"] = snap.Version
		resp["loaded_at"] = snap.LoadedAt
		resp["stats"] = snap.Stats
	}

	if s.indexer != nil {
		s.indexer.Trigger()
	}

	s.log.WithField("dir", s.dir).Info("Reports reloaded")

	writeJSON(w, http.StatusOK, resp)
}
