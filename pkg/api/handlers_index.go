package api

import (
	"net/http"

	"github.com/ethpandaops/txreports/pkg/indexstore"
)

// handleIndex returns the persisted snapshot of the served directory.
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.indexStore.GetSnapshot(r.Context(), s.dir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"getting snapshot: " + err.Error()})

		return
	}

	if snap == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{"not indexed yet"})

		return
	}

	runs, err := s.indexStore.ListRuns(r.Context(), s.dir, indexstore.RunFilter{
		WorkloadName:  r.URL.Query().Get("workload"),
		ClientVersion: r.URL.Query().Get("version"),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"listing runs: " + err.Error()})

		return
	}

	entries := make([]runEntry, 0, len(runs))

	for i := range runs {
		rec, err := runs[i].Record()
		if err != nil {
			s.log.WithError(err).
				WithField("file", runs[i].Source).
				Warn("Skipping undecodable indexed run")

			continue
		}

		entries = append(entries, newRunEntry(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": snap,
		"count":    len(entries),
		"runs":     entries,
	})
}
