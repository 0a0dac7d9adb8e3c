package reportstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/txreports/pkg/report"
	"github.com/ethpandaops/txreports/pkg/storage"
)

func reportJSON(start, end string, sent, committed int) string {
	return fmt.Sprintf(`{
		"start_time": %q,
		"end_time": %q,
		"workload_idx": 0,
		"client_version": "v1.0.0",
		"txs_sent": %d,
		"txs_committed": %d,
		"config": {"workload_groups": [{"name": "transfers", "traffic_gens": [{"gen_mode": "Constant"}]}]}
	}`, start, end, sent, committed)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func newTestStore(reader storage.Reader) Store {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	return New(log, reader, 2)
}

// countingReader wraps a Reader and counts calls.
type countingReader struct {
	storage.Reader
	lists atomic.Int64
	reads atomic.Int64
}

func (r *countingReader) List(ctx context.Context, root string) ([]string, error) {
	r.lists.Add(1)

	return r.Reader.List(ctx, root)
}

func (r *countingReader) Read(ctx context.Context, path string) ([]byte, error) {
	r.reads.Add(1)

	return r.Reader.Read(ctx, path)
}

func TestIsReportFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{name: "run-report-1.json", expected: true},
		{name: "dir/sub/a-report-b.json", expected: true},
		{name: "-report-.json", expected: true},
		{name: "report.json", expected: false},
		{name: "run-report-1.json.bak", expected: false},
		{name: "run-report-1.JSON", expected: false},
		{name: "x-report-dir/data.json", expected: false},
		{name: "runreport.json", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsReportFile(tt.name))
		})
	}
}

func TestStore_LoadOrdersNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-report-1.json", reportJSON("2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z", 10, 10))
	writeFile(t, dir, "nested/b-report-2.json", reportJSON("2024-01-03T00:00:00Z", "2024-01-03T00:01:00Z", 10, 10))
	writeFile(t, dir, "c-report-3.json", reportJSON("2024-01-02T00:00:00Z", "2024-01-02T00:01:00Z", 10, 10))
	writeFile(t, dir, "summary.json", `{"not":"a report"}`)

	s := newTestStore(storage.NewLocalReader())

	records, err := s.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, filepath.Join(dir, "nested", "b-report-2.json"), records[0].Source)
	assert.Equal(t, filepath.Join(dir, "c-report-3.json"), records[1].Source)
	assert.Equal(t, filepath.Join(dir, "a-report-1.json"), records[2].Source)

	snap, ok := s.Snapshot(dir)
	require.True(t, ok)
	assert.Equal(t, 4, snap.Stats.Files)
	assert.Equal(t, 3, snap.Stats.Candidates)
	assert.Equal(t, 3, snap.Stats.Accepted)
	assert.Zero(t, snap.Stats.Rejected)
}

func TestStore_RejectionIsolation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good-report-1.json", reportJSON("2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z", 100, 80))
	writeFile(t, dir, "bad-report-2.json", `{"end_time": "2024-01-01T00:01:00Z", "txs_sent": 1}`)
	writeFile(t, dir, "broken-report-3.json", `{"start_time": `)
	writeFile(t, dir, "list-report-4.json", `[1, 2, 3]`)

	s := newTestStore(storage.NewLocalReader())

	records, err := s.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, filepath.Join(dir, "good-report-1.json"), records[0].Source)
	assert.Equal(t, int64(20), records[0].TxsDropped)

	snap, ok := s.Snapshot(dir)
	require.True(t, ok)
	assert.Equal(t, 3, snap.Stats.Rejected)
}

func TestStore_MissingDirectory(t *testing.T) {
	s := newTestStore(storage.NewLocalReader())

	records, err := s.Load(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, records)

	file := writeFile(t, t.TempDir(), "x-report-1.json", "{}")

	records, err = s.Load(context.Background(), file)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_CacheHitDoesNotReread(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-report-1.json", reportJSON("2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z", 10, 10))

	reader := &countingReader{Reader: storage.NewLocalReader()}
	s := newTestStore(reader)
	ctx := context.Background()

	first, err := s.Load(ctx, dir)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// New files are not visible until the cache is invalidated.
	writeFile(t, dir, "b-report-2.json", reportJSON("2024-01-02T00:00:00Z", "2024-01-02T00:01:00Z", 10, 10))

	second, err := s.Load(ctx, dir)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Same(t, first[0], second[0])
	assert.Equal(t, int64(1), reader.lists.Load())
	assert.Equal(t, int64(1), reader.reads.Load())

	s.Invalidate(dir)

	third, err := s.Load(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, int64(2), reader.lists.Load())
}

func TestStore_ReturnedSliceIsACopy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-report-1.json", reportJSON("2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z", 10, 10))
	writeFile(t, dir, "b-report-2.json", reportJSON("2024-01-02T00:00:00Z", "2024-01-02T00:01:00Z", 10, 10))

	s := newTestStore(storage.NewLocalReader())

	records, err := s.Load(context.Background(), dir)
	require.NoError(t, err)

	records[0], records[1] = records[1], records[0]

	again, err := s.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b-report-2.json"), again[0].Source)
}

func TestStore_ClearAndVersion(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeFile(t, dirA, "a-report-1.json", reportJSON("2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z", 10, 10))

	s := newTestStore(storage.NewLocalReader())
	ctx := context.Background()

	assert.Zero(t, s.Version())

	_, err := s.Load(ctx, dirA)
	require.NoError(t, err)

	_, err = s.Load(ctx, dirB)
	require.NoError(t, err)

	v := s.Version()
	assert.Equal(t, uint64(2), v)

	snap, ok := s.Snapshot(dirB)
	require.True(t, ok)
	assert.Equal(t, uint64(2), snap.Version)

	s.Clear()
	assert.Greater(t, s.Version(), v)

	_, ok = s.Snapshot(dirA)
	assert.False(t, ok)

	_, ok = s.Snapshot(dirB)
	assert.False(t, ok)
}

func TestStore_ConcurrentLoadsShareOnePass(t *testing.T) {
	dir := t.TempDir()
	for i := range 10 {
		writeFile(t, dir, fmt.Sprintf("r-report-%d.json", i),
			reportJSON("2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z", 10, 10))
	}

	reader := &countingReader{Reader: storage.NewLocalReader()}
	s := newTestStore(reader)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			records, err := s.Load(context.Background(), dir)
			assert.NoError(t, err)
			assert.Len(t, records, 10)
		}()
	}

	wg.Wait()

	// Callers that arrive after population hit the cache; those that
	// overlap join the same load.
	assert.Equal(t, int64(1), reader.lists.Load())
	assert.Equal(t, int64(10), reader.reads.Load())
}

// failingReader fails reads for one file.
type failingReader struct {
	storage.Reader
	fail string
}

func (r *failingReader) Read(ctx context.Context, path string) ([]byte, error) {
	if filepath.Base(path) == r.fail {
		return nil, errors.New("permission denied")
	}

	return r.Reader.Read(ctx, path)
}

func TestStore_ReadFailureSkipsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok-report-1.json", reportJSON("2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z", 10, 10))
	writeFile(t, dir, "locked-report-2.json", reportJSON("2024-01-02T00:00:00Z", "2024-01-02T00:01:00Z", 10, 10))

	s := newTestStore(&failingReader{Reader: storage.NewLocalReader(), fail: "locked-report-2.json"})

	records, err := s.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, filepath.Join(dir, "ok-report-1.json"), records[0].Source)
}

func TestStore_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-report-1.json", reportJSON("2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z", 10, 10))

	s := newTestStore(storage.NewLocalReader())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx, dir)
	require.Error(t, err)

	_, ok := s.Snapshot(dir)
	assert.False(t, ok)
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, reasonIO, rejectionReason(&report.IOError{Source: "x", Err: errors.New("boom")}))
	assert.Equal(t, reasonParse, rejectionReason(&report.ParseError{Input: "{", Msg: "malformed JSON"}))
	assert.Equal(t, reasonInvalid, rejectionReason(&report.RejectedError{
		Source: "x",
		Cause:  &report.ParseError{Input: "nope", Msg: "bad timestamp"},
	}))
}
