package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"labnote/internal/parser"
)

func TestCategorize(t *testing.T) {
	text := "Mixed and heated the buffer\nCrystals appeared and were visible\nRecorded pH and temperature\n\nunrelated line"

	got := newParser().Categorize(text)
	want := parser.Categories{
		parser.CategoryMethods:      {"mixed and heated the buffer"},
		parser.CategoryResults:      {},
		parser.CategoryObservations: {"crystals appeared and were visible"},
		parser.CategoryMaterials:    {},
		parser.CategoryData:         {"recorded ph and temperature"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestCategorizeTieGoesToEarlierCategory(t *testing.T) {
	got := newParser().Categorize("prepared solution")
	if len(got[parser.CategoryMethods]) != 1 || len(got[parser.CategoryMaterials]) != 0 {
		t.Fatalf("expected methods to win the tie, got %v", got)
	}
}

func TestCategorizeMatchesPHAsWord(t *testing.T) {
	got := newParser().Categorize("Phosphate buffer graph\nAdjusted pH to 7")
	want := []string{"adjusted ph to 7"}
	if diff := cmp.Diff(want, got[parser.CategoryData]); diff != "" {
		t.Fatalf("data lines mismatch (-want +got):\n%s", diff)
	}
}
