package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"labnote/internal/api"
	"labnote/internal/metrics"
	"labnote/internal/parser"
	"labnote/internal/testsupport"
)

func newTestHandler(t *testing.T) (http.Handler, *api.Service) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	m := metrics.New()
	svc := api.NewService(parser.New(), store, api.WithMetrics(m))
	srv := newAPIServer(cfg.API.Bind, svc, m, nil)
	return srv.routes(), svc
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func noteBody(t *testing.T, text, id string) string {
	t.Helper()
	data, err := json.Marshal(api.NoteRequest{Text: text, ExperimentID: id})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestNotesStoresAndRecordsRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	w := serve(t, h, http.MethodPost, "/api/notes", noteBody(t, testsupport.SampleNote, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	result := decode[api.Result](t, w)
	if !result.StoredSuccessfully || result.ExperimentID != "EXP-2025-001" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	w = serve(t, h, http.MethodGet, "/api/records/EXP-2025-001", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rec := decode[api.RecordResponse](t, w)
	if rec.Record.Researcher != "Dr. Ada Moreau" {
		t.Fatalf("unexpected researcher %q", rec.Record.Researcher)
	}

	w = serve(t, h, http.MethodGet, "/api/records?limit=5", "")
	list := decode[api.RecordListResponse](t, w)
	if list.Count != 1 || len(list.Records) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestParseDoesNotStore(t *testing.T) {
	h, svc := newTestHandler(t)

	w := serve(t, h, http.MethodPost, "/api/parse", noteBody(t, testsupport.SampleNote, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[api.ParseResponse](t, w)
	if resp.StructuredData.Title != "Protein Crystallization Study" {
		t.Fatalf("unexpected title %q", resp.StructuredData.Title)
	}
	rec, err := svc.Get(context.Background(), "EXP-2025-001")
	if err != nil || rec != nil {
		t.Fatalf("parse should not store: rec=%v err=%v", rec, err)
	}
}

func TestBadRequests(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"empty text", http.MethodPost, "/api/notes", `{"text":"   "}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/parse", `{"text":`, http.StatusBadRequest},
		{"missing query", http.MethodGet, "/api/search", "", http.StatusBadRequest},
		{"non-numeric min", http.MethodGet, "/api/measurements?min=warm", "", http.StatusBadRequest},
		{"non-numeric max", http.MethodGet, "/api/measurements?max_value=x", "", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/records?limit=many", "", http.StatusBadRequest},
		{"missing record", http.MethodGet, "/api/records/EXP-none", "", http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/records/EXP-none", "", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(t, h, tc.method, tc.target, tc.body)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
			resp := decode[api.ErrorResponse](t, w)
			if resp.Error == "" {
				t.Fatalf("expected error message, got %s", w.Body.String())
			}
		})
	}
}

func TestSearchMeasurementsAndSuggestions(t *testing.T) {
	h, _ := newTestHandler(t)
	serve(t, h, http.MethodPost, "/api/notes", noteBody(t, testsupport.SampleNote, ""))

	w := serve(t, h, http.MethodGet, "/api/search?q=crystal", "")
	search := decode[api.SearchResponse](t, w)
	if search.Count != 1 || search.Results[0].Score == 0 {
		t.Fatalf("unexpected search response: %+v", search)
	}

	w = serve(t, h, http.MethodGet, "/api/measurements?type=temperature&min=30&max=40", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	meas := decode[api.MeasurementResponse](t, w)
	if meas.Count != 1 || meas.Results[0].Value != 37 {
		t.Fatalf("unexpected measurement response: %+v", meas)
	}

	w = serve(t, h, http.MethodGet, "/api/measurements?min=10&max=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("inverted range should be an empty result, got %d", w.Code)
	}
	if meas = decode[api.MeasurementResponse](t, w); meas.Count != 0 {
		t.Fatalf("expected no hits for inverted range: %+v", meas)
	}

	w = serve(t, h, http.MethodGet, "/api/suggestions?q=Dr", "")
	sugg := decode[api.SuggestionsResponse](t, w)
	if len(sugg.Suggestions.Researchers) != 1 {
		t.Fatalf("unexpected suggestions: %+v", sugg)
	}

	w = serve(t, h, http.MethodGet, "/api/suggestions?q=D", "")
	sugg = decode[api.SuggestionsResponse](t, w)
	if sugg.Suggestions.Researchers == nil || len(sugg.Suggestions.Researchers) != 0 {
		t.Fatalf("short query should return empty lists: %+v", sugg)
	}
}

func TestDeleteRecord(t *testing.T) {
	h, _ := newTestHandler(t)
	serve(t, h, http.MethodPost, "/api/notes", noteBody(t, testsupport.SampleNote, "EXP-del"))

	w := serve(t, h, http.MethodDelete, "/api/records/EXP-del", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = serve(t, h, http.MethodGet, "/api/records/EXP-del", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestHandler(t)
	serve(t, h, http.MethodPost, "/api/notes", noteBody(t, testsupport.SampleNote, ""))

	w := serve(t, h, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected healthy store, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(t, h, http.MethodGet, "/metrics", "")
	body := w.Body.String()
	for _, want := range []string{
		`labnote_http_requests_total{code="201",route="/api/notes"} 1`,
		`labnote_records_processed_total{stored="true"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q, want req-123", got)
	}
}
