package api_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"labnote/internal/api"
	"labnote/internal/labnote"
	"labnote/internal/labstore"
	"labnote/internal/metrics"
	"labnote/internal/parser"
	"labnote/internal/testsupport"
)

func newService(t *testing.T) (*api.Service, *metrics.Metrics) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	m := metrics.New()
	return api.NewService(parser.New(), store, api.WithMetrics(m)), m
}

func TestProcessStoresRecord(t *testing.T) {
	svc, m := newService(t)
	ctx := context.Background()

	result := svc.Process(ctx, testsupport.SampleNote, api.ProcessOptions{})
	if !result.StoredSuccessfully {
		t.Fatalf("expected stored result, got error %q", result.StoreError)
	}
	if result.ExperimentID != "EXP-2025-001" {
		t.Fatalf("experiment id = %q", result.ExperimentID)
	}
	if len(result.CategorizedSections) == 0 {
		t.Fatal("expected categorized lines")
	}

	stored, err := svc.Get(ctx, "EXP-2025-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored == nil || stored.Title != "Protein Crystallization Study" {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
	if len(stored.Measurements) != len(result.Measurements) {
		t.Fatalf("stored %d measurements, parsed %d", len(stored.Measurements), len(result.Measurements))
	}

	expected := `
# HELP labnote_records_processed_total Notes parsed, labelled by whether the record was stored.
# TYPE labnote_records_processed_total counter
labnote_records_processed_total{stored="true"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "labnote_records_processed_total"); err != nil {
		t.Fatalf("processed counter: %v", err)
	}
}

func TestProcessOverridesExperimentID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	result := svc.Process(ctx, testsupport.SampleNote, api.ProcessOptions{ExperimentID: "  EXP-override  "})
	if result.ExperimentID != "EXP-override" {
		t.Fatalf("experiment id = %q", result.ExperimentID)
	}
	if rec, err := svc.Get(ctx, "EXP-2025-001"); err != nil || rec != nil {
		t.Fatalf("extracted id should not be stored: rec=%v err=%v", rec, err)
	}
	if rec, err := svc.Get(ctx, "EXP-override"); err != nil || rec == nil {
		t.Fatalf("override id missing: rec=%v err=%v", rec, err)
	}
}

type failingStore struct {
	api.RecordStore
}

func (failingStore) Upsert(context.Context, labnote.Record) error {
	return errors.New("disk full")
}

func TestProcessReportsStorageFailure(t *testing.T) {
	svc := api.NewService(nil, failingStore{})

	result := svc.Process(context.Background(), testsupport.SampleNote, api.ProcessOptions{})
	if result.StoredSuccessfully {
		t.Fatal("expected storage failure")
	}
	if result.StoreError != "disk full" {
		t.Fatalf("store error = %q", result.StoreError)
	}
	if result.Title != "Protein Crystallization Study" {
		t.Fatalf("parsed record should still be returned, got title %q", result.Title)
	}
}

func TestProcessWithoutStore(t *testing.T) {
	svc := api.NewService(nil, nil)
	result := svc.Process(context.Background(), "Title: Loose note", api.ProcessOptions{})
	if result.StoredSuccessfully || result.StoreError == "" {
		t.Fatalf("expected store error, got %+v", result)
	}
	if _, err := svc.List(context.Background(), 10); !errors.Is(err, api.ErrNoStore) {
		t.Fatalf("List error = %v, want ErrNoStore", err)
	}
}

func TestParseOnlyDoesNotStore(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	parsed := svc.ParseOnly(testsupport.SampleNote)
	if parsed.ExperimentID != "EXP-2025-001" {
		t.Fatalf("experiment id = %q", parsed.ExperimentID)
	}
	summaries, err := svc.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected empty store, got %d records", len(summaries))
	}
}

func TestDeleteMissingReturnsNotFound(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.Delete(ctx, "EXP-none"); !errors.Is(err, labstore.ErrNotFound) {
		t.Fatalf("Delete error = %v, want ErrNotFound", err)
	}

	svc.Process(ctx, testsupport.SampleNote, api.ProcessOptions{})
	if err := svc.Delete(ctx, "EXP-2025-001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec, err := svc.Get(ctx, "EXP-2025-001"); err != nil || rec != nil {
		t.Fatalf("record still present: rec=%v err=%v", rec, err)
	}
}

func TestMeasurementsInvertedRangeIsEmpty(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.Process(ctx, testsupport.SampleNote, api.ProcessOptions{})

	lo, hi := 100.0, 1.0
	hits, err := svc.Measurements(ctx, labnote.MeasurementFilter{Min: &lo, Max: &hi})
	if err != nil {
		t.Fatalf("Measurements: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits for inverted range, got %d", len(hits))
	}
}

func TestSearchAndSuggestDelegate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.Process(ctx, testsupport.SampleNote, api.ProcessOptions{})

	hits, err := svc.Search(ctx, "crystal", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ExperimentID != "EXP-2025-001" {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	sugg, err := svc.Suggest(ctx, "EXP", 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(sugg.ExperimentIDs) != 1 {
		t.Fatalf("unexpected suggestions: %+v", sugg)
	}

	if health := svc.Health(ctx); !health.Healthy() {
		t.Fatalf("unhealthy store: %+v", health)
	}
}
