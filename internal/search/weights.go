package search

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Field names a searchable record field.
type Field string

const (
	FieldExperimentID Field = "experiment_id"
	FieldTitle        Field = "title"
	FieldResearcher   Field = "researcher"
	FieldMethods      Field = "methods"
	FieldResults      Field = "results"
	FieldObservations Field = "observations"
	FieldRawText      Field = "raw_text"
)

// Weight pairs a field with its contribution to the relevance score.
type Weight struct {
	Field  Field
	Weight int
}

var weights = []Weight{
	{FieldExperimentID, 10},
	{FieldTitle, 8},
	{FieldResearcher, 6},
	{FieldMethods, 4},
	{FieldResults, 4},
	{FieldObservations, 3},
	{FieldRawText, 1},
}

// Weights returns the scoring table in declaration order.
func Weights() []Weight {
	out := make([]Weight, len(weights))
	copy(out, weights)
	return out
}

// Fields returns the searchable fields in declaration order.
func Fields() []Field {
	out := make([]Field, len(weights))
	for i, w := range weights {
		out[i] = w.Field
	}
	return out
}

// MaxScore is the score of a record matching in every field.
func MaxScore() int {
	total := 0
	for _, w := range weights {
		total += w.Weight
	}
	return total
}

// Fold normalizes text for case-insensitive comparison. A Caser keeps state,
// so one is built per call.
func Fold(text string) string {
	return cases.Fold().String(text)
}

// Document is the searchable view of one record.
type Document map[Field]string

// Score computes the relevance of doc for query. Blank queries score zero.
func Score(doc Document, query string) int {
	needle := Fold(strings.TrimSpace(query))
	if needle == "" {
		return 0
	}
	score := 0
	for _, w := range weights {
		if strings.Contains(Fold(doc[w.Field]), needle) {
			score += w.Weight
		}
	}
	return score
}

// Column returns the index column holding the folded copy of field.
func Column(field Field) string {
	return string(field) + "_folded"
}

// ScoreExpr renders the scoring table as a SQL expression over the folded
// index columns. contains renders a "column contains the bound parameter"
// predicate for the target dialect; the expression consumes one parameter per
// field, all bound to the folded query.
func ScoreExpr(contains func(column string) string) (string, int) {
	var b strings.Builder
	b.WriteByte('(')
	for i, w := range weights {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString("CASE WHEN ")
		b.WriteString(contains(Column(w.Field)))
		b.WriteString(" THEN ")
		b.WriteString(strconv.Itoa(w.Weight))
		b.WriteString(" ELSE 0 END")
	}
	b.WriteByte(')')
	return b.String(), len(weights)
}
