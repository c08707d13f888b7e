package parser

import (
	"regexp"
	"strings"
)

// fieldPattern is one candidate rule for a metadata field. The first capture
// group holds the value.
type fieldPattern struct {
	name  string
	regex *regexp.Regexp
}

// RE2 has no lookahead, so "value up to the end of the line" is written as a
// lazy capture followed by a multi-line $.
const (
	personCapture = `((?:Dr\.?\s*)?[\p{L}\p{N}_\s.]+?)`
	lineCapture   = `(.*?)`
)

var (
	experimentIDPatterns = []fieldPattern{
		{name: "experiment_label", regex: regexp.MustCompile(`(?i)Experiment\s*(?:ID|#)?:?\s*([A-Z0-9-]+)`)},
		{name: "exp_label", regex: regexp.MustCompile(`(?i)Exp\s*(?:ID|#)?:?\s*([A-Z0-9-]+)`)},
		{name: "id_label", regex: regexp.MustCompile(`(?i)ID:?\s*([A-Z0-9-]+)`)},
	}

	datePatterns = []fieldPattern{
		{name: "date_iso", regex: regexp.MustCompile(`(?i)Date:?\s*(\d{4}-\d{2}-\d{2})`)},
		{name: "date_numeric", regex: regexp.MustCompile(`(?i)Date:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)},
		{name: "bare_numeric", regex: regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)},
	}

	researcherPatterns = []fieldPattern{
		{name: "researcher_label", regex: regexp.MustCompile(`(?im)Researcher:?\s*` + personCapture + `$`)},
		{name: "author_label", regex: regexp.MustCompile(`(?im)(?:By|Author):?\s*` + personCapture + `$`)},
		{name: "name_label", regex: regexp.MustCompile(`(?im)Name:?\s*` + personCapture + `$`)},
	}

	titlePatterns = []fieldPattern{
		{name: "title_label", regex: regexp.MustCompile(`(?im)Title:?\s*` + lineCapture + `$`)},
		{name: "experiment_label", regex: regexp.MustCompile(`(?im)Experiment:?\s*` + lineCapture + `$`)},
		{name: "subject_label", regex: regexp.MustCompile(`(?im)Subject:?\s*` + lineCapture + `$`)},
	}
)

type fieldValues struct {
	experimentID string
	date         string
	researcher   string
	title        string
}

func extractFields(text string) fieldValues {
	return fieldValues{
		experimentID: firstMatch(experimentIDPatterns, text),
		date:         firstMatch(datePatterns, text),
		researcher:   firstMatch(researcherPatterns, text),
		title:        firstMatch(titlePatterns, text),
	}
}

// firstMatch returns the trimmed first capture of the first pattern that
// matches anywhere in text. A matching pattern wins even when its capture is
// empty; later patterns are not consulted.
func firstMatch(patterns []fieldPattern, text string) string {
	for _, p := range patterns {
		m := p.regex.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return strings.TrimSpace(m[1])
	}
	return ""
}
