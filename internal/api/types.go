package api

import (
	"context"

	"labnote/internal/labnote"
	"labnote/internal/labstore"
	"labnote/internal/parser"
)

// RecordStore is the persistence surface the service needs.
type RecordStore interface {
	Upsert(ctx context.Context, rec labnote.Record) error
	Get(ctx context.Context, experimentID string) (*labnote.Record, error)
	List(ctx context.Context, limit int) ([]labnote.Summary, error)
	Search(ctx context.Context, query string, limit int) ([]labnote.ScoredRecord, error)
	SearchMeasurements(ctx context.Context, filter labnote.MeasurementFilter) ([]labnote.MeasurementHit, error)
	Suggest(ctx context.Context, partial string, limit int) (labnote.Suggestions, error)
	Delete(ctx context.Context, experimentID string) (bool, error)
	Health(ctx context.Context) labstore.Health
}

// ProcessOptions adjusts how a note is processed.
type ProcessOptions struct {
	// ExperimentID replaces the extracted or synthesized id when set.
	ExperimentID string
}

// Parsed is a structured note plus its line categorization.
type Parsed struct {
	labnote.Record
	CategorizedSections parser.Categories `json:"categorized_sections"`
}

// Result is the outcome of Process.
type Result struct {
	Parsed
	StoredSuccessfully bool   `json:"stored_successfully"`
	StoreError         string `json:"store_error,omitempty"`
}

// NoteRequest is the body accepted by the parse and notes endpoints.
type NoteRequest struct {
	Text         string `json:"text"`
	ExperimentID string `json:"experiment_id,omitempty"`
}

// ParseResponse wraps a parse-only result.
type ParseResponse struct {
	StructuredData Parsed `json:"structured_data"`
	Message        string `json:"message"`
}

// RecordListResponse lists record summaries.
type RecordListResponse struct {
	Records []labnote.Summary `json:"records"`
	Count   int               `json:"count"`
}

// RecordResponse carries a single stored record.
type RecordResponse struct {
	Record labnote.Record `json:"record"`
}

// SearchResponse carries ranked search hits.
type SearchResponse struct {
	Query   string                 `json:"query"`
	Results []labnote.ScoredRecord `json:"results"`
	Count   int                    `json:"count"`
}

// MeasurementFilters echoes the filters applied to a measurement search.
type MeasurementFilters struct {
	Type     string   `json:"type,omitempty"`
	MinValue *float64 `json:"min_value"`
	MaxValue *float64 `json:"max_value"`
}

// MeasurementResponse carries measurement search hits.
type MeasurementResponse struct {
	Results []labnote.MeasurementHit `json:"results"`
	Filters MeasurementFilters       `json:"filters"`
	Count   int                      `json:"count"`
}

// SuggestionsResponse carries autocomplete candidates.
type SuggestionsResponse struct {
	Query       string              `json:"query"`
	Suggestions labnote.Suggestions `json:"suggestions"`
}

// DeleteResponse confirms a removed record.
type DeleteResponse struct {
	ExperimentID string `json:"experiment_id"`
	Deleted      bool   `json:"deleted"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
