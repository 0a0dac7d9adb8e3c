package reportstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ethpandaops/txreports/pkg/report"
	"github.com/ethpandaops/txreports/pkg/storage"
)

// defaultWorkers is the number of files parsed in parallel when no explicit
// value is configured.
const defaultWorkers = 8

// Store loads run records from report directories. Results are cached per
// directory argument until Invalidate or Clear is called; there is no
// automatic expiry.
type Store interface {
	// Load returns all accepted records under dir, newest first. A missing
	// directory yields an empty collection. Errors are only returned for
	// cancellation or when listing an existing directory fails.
	Load(ctx context.Context, dir string) ([]*report.RunRecord, error)

	// Snapshot returns the cached result for dir without loading.
	Snapshot(dir string) (*Snapshot, bool)

	// Invalidate drops the cached result for dir.
	Invalidate(dir string)

	// Clear drops every cached result.
	Clear()

	// Version is a monotonic counter bumped on each cache population and
	// each invalidation.
	Version() uint64
}

// LoadStats summarizes one directory load.
type LoadStats struct {
	Files      int           `json:"files"`
	Candidates int           `json:"candidates"`
	Accepted   int           `json:"accepted"`
	Rejected   int           `json:"rejected"`
	Duration   time.Duration `json:"duration"`
}

// Snapshot is one cached load result.
type Snapshot struct {
	Dir      string              `json:"dir"`
	Records  []*report.RunRecord `json:"-"`
	Stats    LoadStats           `json:"stats"`
	LoadedAt time.Time           `json:"loaded_at"`
	Version  uint64              `json:"version"`
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log     logrus.FieldLogger
	reader  storage.Reader
	workers int
	metrics *metrics

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Snapshot
	known   map[string]struct{}
	version uint64
	// epoch changes on every invalidation so a load that started before it
	// is not cached.
	epoch uint64
}

// New creates a Store reading files through reader. workers bounds the
// number of files read and parsed in parallel.
func New(log logrus.FieldLogger, reader storage.Reader, workers int) Store {
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &store{
		log:     log.WithField("component", "reportstore"),
		reader:  reader,
		workers: workers,
		metrics: getMetrics(),
		entries: make(map[string]*Snapshot),
		known:   make(map[string]struct{}),
	}
}

// IsReportFile reports whether a file name is a report candidate: the base
// name ends in ".json" and contains "-report-".
func IsReportFile(name string) bool {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))

	return strings.HasSuffix(base, ".json") && strings.Contains(base, "-report-")
}

func (s *store) Load(ctx context.Context, dir string) ([]*report.RunRecord, error) {
	if snap, ok := s.Snapshot(dir); ok {
		s.metrics.cacheTotal.WithLabelValues("hit").Inc()

		return slices.Clone(snap.Records), nil
	}

	s.metrics.cacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := s.group.Do(dir, func() (any, error) {
		// Another caller may have populated the entry while we waited.
		if snap, ok := s.Snapshot(dir); ok {
			return snap, nil
		}

		s.mu.RLock()
		epoch := s.epoch
		s.mu.RUnlock()

		snap, err := s.load(ctx, dir)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		s.known[dir] = struct{}{}

		if s.epoch != epoch {
			s.log.WithField("dir", dir).Debug("Cache invalidated during load, result not cached")

			return snap, nil
		}

		s.version++
		snap.Version = s.version
		s.entries[dir] = snap

		s.metrics.records.WithLabelValues(dir).Set(float64(len(snap.Records)))

		return snap, nil
	})
	if err != nil {
		return nil, err
	}

	snap, _ := v.(*Snapshot)

	return slices.Clone(snap.Records), nil
}

func (s *store) Snapshot(dir string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.entries[dir]

	return snap, ok
}

func (s *store) Invalidate(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, dir)
	s.group.Forget(dir)
	s.metrics.records.DeleteLabelValues(dir)

	s.epoch++
	s.version++

	s.log.WithField("dir", dir).Debug("Invalidated cached reports")
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for dir := range s.known {
		s.group.Forget(dir)
		s.metrics.records.DeleteLabelValues(dir)
	}

	clear(s.entries)

	s.epoch++
	s.version++

	s.log.Debug("Cleared report cache")
}

func (s *store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// fileResult is the outcome of one candidate file: either a record or the
// reason it was skipped.
type fileResult struct {
	record *report.RunRecord
	err    error
}

// load lists dir, then reads and normalizes every candidate with a bounded
// worker pool. Per-file failures are logged and counted, never returned.
func (s *store) load(ctx context.Context, dir string) (*Snapshot, error) {
	start := time.Now()
	log := s.log.WithFields(logrus.Fields{"dir": dir, "backend": s.reader.Name()})

	files, err := s.reader.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	candidates := make([]string, 0, len(files))

	for _, f := range files {
		if IsReportFile(f) {
			candidates = append(candidates, f)
		}
	}

	results := make([]fileResult, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, file := range candidates {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			rec, err := s.loadFile(gCtx, file)
			results[i] = fileResult{record: rec, err: err}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading reports: %w", err)
	}

	records := make([]*report.RunRecord, 0, len(results))
	stats := LoadStats{Files: len(files), Candidates: len(candidates)}

	for i, res := range results {
		if res.err != nil {
			stats.Rejected++

			reason := rejectionReason(res.err)
			s.metrics.rejectedTotal.WithLabelValues(reason).Inc()

			log.WithError(res.err).
				WithFields(logrus.Fields{"file": candidates[i], "reason": reason}).
				Warn("Skipping report")

			continue
		}

		records = append(records, res.record)
	}

	slices.SortStableFunc(records, func(a, b *report.RunRecord) int {
		if c := b.Start.Compare(a.Start); c != 0 {
			return c
		}

		return cmp.Compare(a.Source, b.Source)
	})

	stats.Accepted = len(records)
	stats.Duration = time.Since(start)

	s.metrics.loadedTotal.Add(float64(stats.Accepted))
	s.metrics.loadDuration.Observe(stats.Duration.Seconds())

	log.WithFields(logrus.Fields{
		"files":    stats.Files,
		"accepted": stats.Accepted,
		"rejected": stats.Rejected,
		"duration": stats.Duration.Round(time.Millisecond),
	}).Info("Loaded reports")

	return &Snapshot{
		Dir:      dir,
		Records:  records,
		Stats:    stats,
		LoadedAt: time.Now().UTC(),
	}, nil
}

func (s *store) loadFile(ctx context.Context, file string) (*report.RunRecord, error) {
	data, err := s.reader.Read(ctx, file)
	if err != nil {
		return nil, &report.IOError{Source: file, Err: err}
	}

	if data == nil {
		return nil, &report.IOError{Source: file, Err: errors.New("file disappeared")}
	}

	raw, err := report.Decode(data)
	if err != nil {
		return nil, err
	}

	return report.Derive(raw, file)
}

func rejectionReason(err error) string {
	var (
		ioErr    *report.IOError
		parseErr *report.ParseError
		rejected *report.RejectedError
	)

	switch {
	case errors.As(err, &ioErr):
		return reasonIO
	case errors.As(err, &rejected):
		return reasonInvalid
	case errors.As(err, &parseErr):
		return reasonParse
	default:
		return reasonInvalid
	}
}
