package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"labnote/internal/api"
	"labnote/internal/labnote"
	"labnote/internal/labstore"
)

func (s *apiServer) decodeNote(w http.ResponseWriter, r *http.Request) (api.NoteRequest, bool) {
	var req api.NoteRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, r, http.StatusBadRequest, "no text provided", nil)
		return req, false
	}
	return req, true
}

func (s *apiServer) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeNote(w, r)
	if !ok {
		return
	}
	parsed := s.service.ParseOnly(req.Text)
	if id := strings.TrimSpace(req.ExperimentID); id != "" {
		parsed.ExperimentID = id
	}
	s.writeJSON(w, r, http.StatusOK, api.ParseResponse{
		StructuredData: parsed,
		Message:        "text parsed",
	})
}

func (s *apiServer) handleNotes(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeNote(w, r)
	if !ok {
		return
	}
	result := s.service.Process(r.Context(), req.Text, api.ProcessOptions{ExperimentID: req.ExperimentID})
	status := http.StatusCreated
	if !result.StoredSuccessfully {
		status = http.StatusOK
	}
	s.writeJSON(w, r, status, result)
}

func (s *apiServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.limitParam(w, r)
	if !ok {
		return
	}
	records, err := s.service.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to list records", err)
		return
	}
	if records == nil {
		records = []labnote.Summary{}
	}
	s.writeJSON(w, r, http.StatusOK, api.RecordListResponse{Records: records, Count: len(records)})
}

func (s *apiServer) handleRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load record", err)
		return
	}
	if rec == nil {
		s.writeError(w, r, http.StatusNotFound, "record not found", nil)
		return
	}
	s.writeJSON(w, r, http.StatusOK, api.RecordResponse{Record: *rec})
}

func (s *apiServer) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.service.Delete(r.Context(), id)
	switch {
	case errors.Is(err, labstore.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "record not found", nil)
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, "failed to delete record", err)
	default:
		s.writeJSON(w, r, http.StatusOK, api.DeleteResponse{ExperimentID: id, Deleted: true})
	}
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, r, http.StatusBadRequest, "search query is required", nil)
		return
	}
	limit, ok := s.limitParam(w, r)
	if !ok {
		return
	}
	results, err := s.service.Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "search failed", err)
		return
	}
	if results == nil {
		results = []labnote.ScoredRecord{}
	}
	s.writeJSON(w, r, http.StatusOK, api.SearchResponse{Query: query, Results: results, Count: len(results)})
}

func (s *apiServer) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	minValue, err := floatParam(values.Get("min"), values.Get("min_value"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid min bound", err)
		return
	}
	maxValue, err := floatParam(values.Get("max"), values.Get("max_value"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid max bound", err)
		return
	}
	limit, ok := s.limitParam(w, r)
	if !ok {
		return
	}
	filter := labnote.MeasurementFilter{
		Type:  strings.TrimSpace(values.Get("type")),
		Min:   minValue,
		Max:   maxValue,
		Limit: limit,
	}
	results, err := s.service.Measurements(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "measurement search failed", err)
		return
	}
	if results == nil {
		results = []labnote.MeasurementHit{}
	}
	s.writeJSON(w, r, http.StatusOK, api.MeasurementResponse{
		Results: results,
		Filters: api.MeasurementFilters{Type: filter.Type, MinValue: minValue, MaxValue: maxValue},
		Count:   len(results),
	})
}

func (s *apiServer) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit, ok := s.limitParam(w, r)
	if !ok {
		return
	}
	suggestions, err := s.service.Suggest(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "search suggestions failed", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, api.SuggestionsResponse{Query: query, Suggestions: suggestions})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.service.Health(r.Context())
	status := http.StatusOK
	if !health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, status, health)
}

// limitParam parses ?limit=. Zero means the store default.
func (s *apiServer) limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		s.writeError(w, r, http.StatusBadRequest, "invalid limit", fmt.Errorf("limit %q must be a non-negative integer", raw))
		return 0, false
	}
	return limit, true
}

// floatParam parses the first non-empty candidate. Empty input is an open bound.
func floatParam(candidates ...string) (*float64, error) {
	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return &value, nil
	}
	return nil, nil
}
