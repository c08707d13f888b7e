package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"labnote/internal/metrics"
)

func TestObserveStoreCountsFailures(t *testing.T) {
	m := metrics.New()
	m.ObserveStore("upsert", time.Now(), nil)
	m.ObserveStore("upsert", time.Now(), errors.New("boom"))

	count, err := testutil.GatherAndCount(m.Registry(), "labnote_store_operation_failures_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("failure series = %d, want 1", count)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := metrics.New()
	m.RecordProcessed(true, []string{"temperature", "pH"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{
		`labnote_records_processed_total{stored="true"} 1`,
		`labnote_measurements_extracted_total{type="pH"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveStore("get", time.Now(), errors.New("x"))
	m.RecordProcessed(false, nil)
	m.HTTPRequest("/api/health", 200)
}
