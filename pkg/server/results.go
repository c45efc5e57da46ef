package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chargecost/chargecost/pkg/log"
	"github.com/chargecost/chargecost/pkg/storage"
	"github.com/chargecost/chargecost/pkg/types"
)

// runMeta is a run without its result and filtered rows. The row endpoints
// serve those separately so clients listing runs don't pull whole payloads.
type runMeta struct {
	ID            string    `json:"id"`
	Started       time.Time `json:"started"`
	Finished      time.Time `json:"finished"`
	RecordCount   int       `json:"recordCount"`
	ResultCount   int       `json:"resultCount"`
	FilteredCount int       `json:"filteredCount"`
}

func metaOf(run types.Run) runMeta {
	return runMeta{
		ID:            run.ID,
		Started:       run.Started,
		Finished:      run.Finished,
		RecordCount:   run.RecordCount,
		ResultCount:   run.ResultCount,
		FilteredCount: run.FilteredCount,
	}
}

// runForRequest loads the run named by the request's run parameter, or the
// latest run when the parameter is absent. It writes the error response
// itself and reports whether the caller can proceed.
func (s *Server) runForRequest(w http.ResponseWriter, r *http.Request) (types.Run, bool) {
	ctx := r.Context()

	var run types.Run
	var err error
	if id := r.URL.Query().Get("run"); id != "" {
		run, err = s.storage.GetRun(ctx, id)
	} else {
		run, err = s.storage.GetLatestRun(ctx)
	}
	if errors.Is(err, storage.ErrRunNotFound) {
		writeJSONError(w, "run not found", http.StatusNotFound)
		return types.Run{}, false
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get run", slog.Any("error", err))
		writeJSONError(w, "failed to get run", http.StatusInternalServerError)
		return types.Run{}, false
	}
	return run, true
}

// setRunCacheControl caches responses for a named run for a day since a
// finished run never changes; the latest run changes on refresh so it is
// cached briefly.
func setRunCacheControl(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("run") != "" {
		w.Header().Set("Cache-Control", "private, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=60")
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runForRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	setRunCacheControl(w, r)
	if err := json.NewEncoder(w).Encode(metaOf(run)); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.storage.ListRuns(ctx, limit)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list runs", slog.Any("error", err))
		writeJSONError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	metas := make([]runMeta, 0, len(runs))
	for _, run := range runs {
		metas = append(metas, metaOf(run))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, max-age=60")
	if err := json.NewEncoder(w).Encode(metas); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runForRequest(w, r)
	if !ok {
		return
	}
	results := run.Results
	if results == nil {
		results = []types.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	setRunCacheControl(w, r)
	if err := json.NewEncoder(w).Encode(results); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleGetFiltered(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runForRequest(w, r)
	if !ok {
		return
	}
	filtered := run.Filtered
	if filtered == nil {
		filtered = []types.FilteredRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	setRunCacheControl(w, r)
	if err := json.NewEncoder(w).Encode(filtered); err != nil {
		panic(http.ErrAbortHandler)
	}
}
