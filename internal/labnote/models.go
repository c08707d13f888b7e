package labnote

import (
	"strings"
	"time"
)

// Section names one of the fixed lab-note section buckets.
type Section string

const (
	SectionMethods      Section = "methods"
	SectionResults      Section = "results"
	SectionObservations Section = "observations"
	SectionMaterials    Section = "materials"
	SectionProcedure    Section = "procedure"
	SectionDiscussion   Section = "discussion"
	SectionConclusion   Section = "conclusion"
)

// allSections is the declaration order. Header matching walks it front to
// back, so earlier sections win when keywords overlap.
var allSections = []Section{
	SectionMethods,
	SectionResults,
	SectionObservations,
	SectionMaterials,
	SectionProcedure,
	SectionDiscussion,
	SectionConclusion,
}

var sectionSet = func() map[Section]struct{} {
	set := make(map[Section]struct{}, len(allSections))
	for _, s := range allSections {
		set[s] = struct{}{}
	}
	return set
}()

// Sections returns the section names in declaration order.
func Sections() []Section {
	out := make([]Section, len(allSections))
	copy(out, allSections)
	return out
}

// ParseSection converts a raw name into a known section.
func ParseSection(value string) (Section, bool) {
	s := Section(strings.ToLower(strings.TrimSpace(value)))
	_, ok := sectionSet[s]
	return s, ok
}

// Measurement types emitted by the extractor.
const (
	TypeTemperature   = "temperature"
	TypePH            = "pH"
	TypeVolume        = "volume"
	TypeMass          = "mass"
	TypeTime          = "time"
	TypeConcentration = "concentration"
	TypePercentage    = "percentage"
)

// Measurement is one numeric fact pulled out of free text.
type Measurement struct {
	Type    string  `json:"type"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	RawText string  `json:"raw_text"`
}

// Record is the structured representation of one lab note.
type Record struct {
	ExperimentID string             `json:"experiment_id"`
	Date         string             `json:"date"`
	Researcher   string             `json:"researcher"`
	Title        string             `json:"title"`
	Methods      string             `json:"methods"`
	Results      string             `json:"results"`
	Observations string             `json:"observations"`
	RawText      string             `json:"raw_text"`
	Measurements []Measurement      `json:"measurements"`
	Sections     map[Section]string `json:"sections"`
	// Preamble holds text seen before the first section header. It is only
	// populated when the parser is configured to keep it.
	Preamble  string    `json:"preamble,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Section returns the body of a section, or "" when absent.
func (r *Record) Section(name Section) string {
	if r == nil || r.Sections == nil {
		return ""
	}
	return r.Sections[name]
}

// SetSection stores a section body and keeps the top-level mirrors in sync.
// Empty bodies remove the section.
func (r *Record) SetSection(name Section, body string) {
	if r.Sections == nil {
		r.Sections = make(map[Section]string)
	}
	if body == "" {
		delete(r.Sections, name)
	} else {
		r.Sections[name] = body
	}
	switch name {
	case SectionMethods:
		r.Methods = body
	case SectionResults:
		r.Results = body
	case SectionObservations:
		r.Observations = body
	}
}

// Summary is the list view of a record.
type Summary struct {
	ExperimentID string    `json:"experiment_id"`
	Date         string    `json:"date"`
	Researcher   string    `json:"researcher"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScoredRecord is a search hit with its relevance score.
type ScoredRecord struct {
	Summary
	Methods      string `json:"methods"`
	Results      string `json:"results"`
	Observations string `json:"observations"`
	RawText      string `json:"raw_text"`
	Score        int    `json:"relevance_score"`
}

// MeasurementHit is a stored measurement joined with its parent record.
type MeasurementHit struct {
	ExperimentID string    `json:"experiment_id"`
	Type         string    `json:"measurement_type"`
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	RawText      string    `json:"raw_text"`
	Title        string    `json:"title"`
	Researcher   string    `json:"researcher"`
	Date         string    `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}

// MeasurementFilter narrows a measurement search. Nil bounds are open.
type MeasurementFilter struct {
	Type  string
	Min   *float64
	Max   *float64
	Limit int
}

// Suggestions groups autocomplete candidates by category.
type Suggestions struct {
	ExperimentIDs    []string `json:"experiment_ids"`
	Researchers      []string `json:"researchers"`
	Titles           []string `json:"titles"`
	MeasurementTypes []string `json:"measurement_types"`
}

// EmptySuggestions returns a value with every category non-nil and empty.
func EmptySuggestions() Suggestions {
	return Suggestions{
		ExperimentIDs:    []string{},
		Researchers:      []string{},
		Titles:           []string{},
		MeasurementTypes: []string{},
	}
}
