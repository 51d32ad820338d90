package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"barstock/internal"
	"barstock/internal/catalog"
)

type drinksResponse struct {
	Rows     []internal.NormalizedRow `json:"rows"`
	Count    int                      `json:"count"`
	Total    int                      `json:"total"`
	Query    string                   `json:"query,omitempty"`
	Empty    bool                     `json:"empty"`
	Loaded   bool                     `json:"loaded"`
	RunID    string                   `json:"runId,omitempty"`
	LoadedAt *time.Time               `json:"loadedAt,omitempty"`
}

type headersResponse struct {
	Headers  []internal.HeaderResolution `json:"headers"`
	Warnings []internal.ParseWarning     `json:"warnings"`
	RunID    string                      `json:"runId,omitempty"`
}

type refreshResponse struct {
	Run      internal.RunRecord `json:"run"`
	Count    int                `json:"count"`
	Skipped  int                `json:"skipped"`
	Warnings int                `json:"warnings"`
	Empty    bool               `json:"empty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	c := s.backend.Catalog()
	snap := c.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": snap.Loaded(),
		"rows":   len(snap.Rows),
		"search": c.SearchFields(),
	})
}

func (s *Server) handleListDrinks(w http.ResponseWriter, r *http.Request) {
	snap := s.backend.Catalog().Snapshot()
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	resp := drinksResponse{
		Query:  query,
		Total:  len(snap.Rows),
		Empty:  snap.Empty,
		Loaded: snap.Loaded(),
		RunID:  snap.RunID,
	}
	if !snap.LoadedAt.IsZero() {
		resp.LoadedAt = &snap.LoadedAt
	}
	if query == "" {
		resp.Rows = snap.ListAll()
	} else {
		resp.Rows = snap.Search(query)
	}
	resp.Count = len(resp.Rows)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDrink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondMessage(w, http.StatusBadRequest, "drink id must be a positive integer")
		return
	}
	row, ok := s.backend.Catalog().Get(id)
	if !ok {
		respondMessage(w, http.StatusNotFound, "drink not found")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleHeaders(w http.ResponseWriter, r *http.Request) {
	snap := s.backend.Catalog().Snapshot()
	resp := headersResponse{
		Headers:  snap.Headers,
		Warnings: snap.Warnings,
		RunID:    snap.RunID,
	}
	if resp.Headers == nil {
		resp.Headers = []internal.HeaderResolution{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []internal.ParseWarning{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			respondMessage(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	runs, err := s.backend.Runs(limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, ran, err := s.gate.Do(r.Context(), s.backend.Refresh)
	if !ran {
		respondMessage(w, http.StatusConflict, "a refresh is already running")
		return
	}
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Run:      res.Run,
		Count:    len(res.Rows),
		Skipped:  res.Skipped,
		Warnings: res.Warnings,
		Empty:    res.Empty,
	})
}

// statusFor maps refresh failures: the sheet being unreachable or malformed is
// an upstream problem, anything else is ours.
func statusFor(err error) int {
	switch {
	case internal.IsFetchError(err):
		return http.StatusBadGateway
	case internal.IsParseError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var _ Backend = (*catalog.SyncService)(nil)
