package parser_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"labnote/internal/labnote"
	"labnote/internal/parser"
)

var fixedNow = time.Date(2025, 8, 3, 14, 5, 9, 0, time.UTC)

func newParser(opts ...parser.Option) *parser.Parser {
	opts = append([]parser.Option{parser.WithClock(func() time.Time { return fixedNow })}, opts...)
	return parser.New(opts...)
}

const sampleNote = `
Experiment ID: EXP-2025-001
Date: 2025-08-03
Researcher: Dr. Jane Smith
Title: Protein Crystallization Study

Materials:
- Protein solution (10mg/mL)
- Buffer solution pH 7.4
- Crystallization plates

Methods:
Mixed 10ml of Solution A with 5ml of Solution B.
Heated to 50°C for 30min.
Added 0.1M NaCl solution dropwise.

Results:
Observed color change to blue after 15min.
pH level measured at 7.2.
Crystal formation visible after 2hr.

Observations:
Slight precipitation noted after 20min.
Temperature remained stable throughout.
No contamination observed.
`

func TestExtractEmptyText(t *testing.T) {
	record := newParser().Extract("")

	if record.ExperimentID != "EXP_20250803_140509" {
		t.Fatalf("expected synthesized id, got %q", record.ExperimentID)
	}
	if record.Date != "" || record.Researcher != "" || record.Title != "" {
		t.Fatalf("expected empty fields, got %#v", record)
	}
	if len(record.Sections) != 0 {
		t.Fatalf("expected empty section map, got %v", record.Sections)
	}
	if record.Sections == nil {
		t.Fatal("expected non-nil section map")
	}
	if record.Methods != "" || record.Results != "" || record.Observations != "" {
		t.Fatalf("expected empty top-level sections, got %#v", record)
	}
}

func TestExtractSampleNote(t *testing.T) {
	record := newParser().Parse(sampleNote)

	if record.ExperimentID != "EXP-2025-001" {
		t.Fatalf("experiment id = %q", record.ExperimentID)
	}
	if record.Date != "2025-08-03" {
		t.Fatalf("date = %q", record.Date)
	}
	if record.Researcher != "Dr. Jane Smith" {
		t.Fatalf("researcher = %q", record.Researcher)
	}
	if record.Title != "Protein Crystallization Study" {
		t.Fatalf("title = %q", record.Title)
	}
	if record.RawText != sampleNote {
		t.Fatal("expected raw text to be kept verbatim")
	}

	wantSections := map[labnote.Section]string{
		labnote.SectionMaterials: "- Protein solution (10mg/mL)\n- Buffer solution pH 7.4\n- Crystallization plates",
		labnote.SectionMethods: "Mixed 10ml of Solution A with 5ml of Solution B.\n" +
			"Heated to 50°C for 30min.\n" +
			"Added 0.1M NaCl solution dropwise.",
		labnote.SectionResults: "Observed color change to blue after 15min.\n" +
			"pH level measured at 7.2.\n" +
			"Crystal formation visible after 2hr.",
		labnote.SectionObservations: "Slight precipitation noted after 20min.\n" +
			"Temperature remained stable throughout.\n" +
			"No contamination observed.",
	}
	if diff := cmp.Diff(wantSections, record.Sections); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
	if record.Methods != wantSections[labnote.SectionMethods] {
		t.Fatalf("top-level methods not mirrored: %q", record.Methods)
	}
	if record.Observations != wantSections[labnote.SectionObservations] {
		t.Fatalf("top-level observations not mirrored: %q", record.Observations)
	}
}

func TestExperimentIDPatternPriority(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"first declared pattern wins", "Exp ID: EXP-2\nExperiment ID: EXP-1", "EXP-1"},
		{"same order in text", "Experiment ID: EXP-1\nExp ID: EXP-2", "EXP-1"},
		{"exp label", "Exp #: A-17", "A-17"},
		{"bare id label", "Sample ID: S-9", "S-9"},
		{"lowercase accepted", "experiment id: abc-1", "abc-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := newParser().Extract(tc.text).ExperimentID
			if got != tc.want {
				t.Fatalf("experiment id = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFieldPatterns(t *testing.T) {
	cases := []struct {
		name string
		text string
		get  func(labnote.Record) string
		want string
	}{
		{"iso date", "Date: 2024-02-29", func(r labnote.Record) string { return r.Date }, "2024-02-29"},
		{"slash date", "Date: 3/14/2024", func(r labnote.Record) string { return r.Date }, "3/14/2024"},
		{"bare date", "run on 12-1-24 in lab", func(r labnote.Record) string { return r.Date }, "12-1-24"},
		{"researcher on next line", "Researcher:\nAda Lovelace\n", func(r labnote.Record) string { return r.Researcher }, "Ada Lovelace"},
		{"author fallback", "Author: M. Curie\nTitle: X", func(r labnote.Record) string { return r.Researcher }, "M. Curie"},
		{"name fallback", "Name: Rosalind Franklin", func(r labnote.Record) string { return r.Researcher }, "Rosalind Franklin"},
		{"title label", "Title: Buffer prep, round 2\nMethods:", func(r labnote.Record) string { return r.Title }, "Buffer prep, round 2"},
		{"subject fallback", "Subject: Enzyme kinetics", func(r labnote.Record) string { return r.Title }, "Enzyme kinetics"},
		{"no title", "nothing here", func(r labnote.Record) string { return r.Title }, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.get(newParser().Extract(tc.text))
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSectionOrdering(t *testing.T) {
	record := newParser().Extract("Methods:\nDid X\nResults:\nSaw Y\n")

	if got := record.Section(labnote.SectionMethods); got != "Did X" {
		t.Fatalf("methods = %q", got)
	}
	if got := record.Section(labnote.SectionResults); got != "Saw Y" {
		t.Fatalf("results = %q", got)
	}
	if len(record.Sections) != 2 {
		t.Fatalf("expected two sections, got %v", record.Sections)
	}
}

func TestSectionHeaderRemainderSeedsBody(t *testing.T) {
	record := newParser().Extract("Results: yield was 80%\nsecond line\nConclusion:\n")

	if got := record.Results; got != "yield was 80%\nsecond line" {
		t.Fatalf("results = %q", got)
	}
	if _, ok := record.Sections[labnote.SectionConclusion]; ok {
		t.Fatal("expected empty conclusion to be absent")
	}
}

func TestSectionKeywordOverlapPrefersEarlierSection(t *testing.T) {
	record := newParser().Extract("Procedure:\nstir gently\nSteps:\n1. rinse")

	if record.Methods != "stir gently" {
		t.Fatalf("expected procedure header to open methods, got %q", record.Methods)
	}
	if got := record.Section(labnote.SectionProcedure); got != "1. rinse" {
		t.Fatalf("procedure = %q", got)
	}
}

func TestPreambleDroppedByDefault(t *testing.T) {
	text := "loose line before headers\nMethods:\nbody"

	record := newParser().Extract(text)
	if record.Preamble != "" {
		t.Fatalf("expected preamble to be dropped, got %q", record.Preamble)
	}
	if strings.Contains(record.Methods, "loose") {
		t.Fatalf("pre-header text leaked into methods: %q", record.Methods)
	}

	kept := newParser(parser.WithPreamble(true)).Extract(text)
	if kept.Preamble != "loose line before headers" {
		t.Fatalf("preamble = %q", kept.Preamble)
	}
	if len(kept.Sections) != 1 {
		t.Fatalf("preamble must not become a section: %v", kept.Sections)
	}
}

func TestRepeatedSectionKeepsLastBody(t *testing.T) {
	record := newParser().Extract("Notes: first\nResults: r\nNotes: second")
	if record.Observations != "second" {
		t.Fatalf("observations = %q", record.Observations)
	}
}
