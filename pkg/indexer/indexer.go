// Package indexer periodically persists the loaded run records of a reports
// directory into the index store.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/txreports/pkg/indexstore"
	"github.com/ethpandaops/txreports/pkg/reportstore"
)

// Indexer is a background service that keeps the index store in sync with
// the report store.
type Indexer interface {
	Start(ctx context.Context) error
	Stop() error
	// Trigger requests a pass without waiting for the next tick. It never
	// blocks; triggers received while a pass is pending are coalesced.
	Trigger()
}

// Compile-time interface check.
var _ Indexer = (*indexer)(nil)

type indexer struct {
	log      logrus.FieldLogger
	reports  reportstore.Store
	index    indexstore.Store
	dirs     []string
	interval time.Duration
	trigger  chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	indexed map[string]uint64
}

// NewIndexer creates a new background indexer for dirs.
func NewIndexer(
	log logrus.FieldLogger,
	reports reportstore.Store,
	index indexstore.Store,
	dirs []string,
	interval time.Duration,
) Indexer {
	return &indexer{
		log:      log.WithField("component", "indexer"),
		reports:  reports,
		index:    index,
		dirs:     dirs,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		indexed:  make(map[string]uint64, len(dirs)),
	}
}

// Start launches a background goroutine that runs an immediate indexing
// pass and then ticks at the configured interval.
func (idx *indexer) Start(ctx context.Context) error {
	if idx.interval <= 0 {
		return fmt.Errorf("indexer interval must be positive, got %s", idx.interval)
	}

	idx.log.WithFields(logrus.Fields{
		"interval": idx.interval.String(),
		"dirs":     len(idx.dirs),
	}).Info("Starting indexer")

	idx.wg.Add(1)

	go func() {
		defer idx.wg.Done()

		idx.runPass(ctx)

		ticker := time.NewTicker(idx.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				idx.runPass(ctx)
			case <-idx.trigger:
				idx.runPass(ctx)
			case <-idx.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop signals the indexer goroutine to stop and waits for it.
func (idx *indexer) Stop() error {
	close(idx.done)
	idx.wg.Wait()

	idx.log.Info("Indexer stopped")

	return nil
}

func (idx *indexer) Trigger() {
	select {
	case idx.trigger <- struct{}{}:
	default:
	}
}

// runPass indexes every directory whose cached snapshot changed since the
// last successful pass.
func (idx *indexer) runPass(ctx context.Context) {
	start := time.Now()
	written := 0

	for _, dir := range idx.dirs {
		select {
		case <-ctx.Done():
			return
		case <-idx.done:
			return
		default:
		}

		ok, err := idx.indexDir(ctx, dir)
		if err != nil {
			idx.log.WithError(err).
				WithField("dir", dir).
				Warn("Indexing failed for directory")

			continue
		}

		if ok {
			written++
		}
	}

	idx.log.WithFields(logrus.Fields{
		"duration": time.Since(start).Round(time.Millisecond),
		"written":  written,
	}).Debug("Indexing pass completed")
}

// indexDir persists the current snapshot of dir. It reports whether
// anything was written.
func (idx *indexer) indexDir(ctx context.Context, dir string) (bool, error) {
	records, err := idx.reports.Load(ctx, dir)
	if err != nil {
		return false, fmt.Errorf("loading reports: %w", err)
	}

	snap, ok := idx.reports.Snapshot(dir)
	if !ok {
		// Invalidated between Load and Snapshot; the next pass picks it up.
		return false, nil
	}

	idx.mu.Lock()
	last, seen := idx.indexed[dir]
	idx.mu.Unlock()

	if seen && last == snap.Version {
		return false, nil
	}

	now := time.Now().UTC()
	runs := make([]*indexstore.Run, 0, len(records))

	for _, r := range records {
		run, err := indexstore.NewRun(dir, r, now)
		if err != nil {
			return false, err
		}

		runs = append(runs, run)
	}

	if err := idx.index.ReplaceSnapshot(ctx, &indexstore.Snapshot{
		Dir:        dir,
		Version:    snap.Version,
		LoadedAt:   snap.LoadedAt,
		Files:      snap.Stats.Files,
		Candidates: snap.Stats.Candidates,
		Accepted:   snap.Stats.Accepted,
		Rejected:   snap.Stats.Rejected,
		IndexedAt:  now,
	}, runs); err != nil {
		return false, fmt.Errorf("persisting snapshot: %w", err)
	}

	idx.mu.Lock()
	idx.indexed[dir] = snap.Version
	idx.mu.Unlock()

	idx.log.WithFields(logrus.Fields{
		"dir":     dir,
		"runs":    len(runs),
		"version": snap.Version,
	}).Info("Indexed snapshot")

	return true, nil
}
