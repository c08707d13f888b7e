package labstore

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"labnote/internal/labnote"
	"labnote/internal/search"
)

// List returns record summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) (out []labnote.Summary, err error) {
	ctx, finish := s.begin(ctx, "list", "")
	defer func() { err = finish(err) }()

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT experiment_id, date, researcher, title, sealing, created_at
        FROM experiments ORDER BY created_at DESC, id DESC LIMIT ?`), normalizeLimit(limit, DefaultLimit))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out = []labnote.Summary{}
	for rows.Next() {
		var (
			sum        labnote.Summary
			meta       string
			createdRaw string
		)
		if err := rows.Scan(&sum.ExperimentID, &sum.Date, &sum.Researcher, &sum.Title, &meta, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Researcher = s.openValues(ctx, sum.ExperimentID, map[string]string{"researcher": sum.Researcher}, meta)["researcher"]
		sum.CreatedAt = parseTime(createdRaw)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Search ranks records by weighted field matches against query. Records that
// match no field are excluded; a blank query returns no results.
func (s *Store) Search(ctx context.Context, query string, limit int) (out []labnote.ScoredRecord, err error) {
	ctx, finish := s.begin(ctx, "search", "")
	defer func() { err = finish(err) }()

	out = []labnote.ScoredRecord{}
	needle := search.Fold(strings.TrimSpace(query))
	if needle == "" {
		return out, nil
	}

	expr, params := search.ScoreExpr(s.dialect.contains)
	args := make([]any, 0, params+1)
	for i := 0; i < params; i++ {
		args = append(args, needle)
	}
	args = append(args, normalizeLimit(limit, DefaultLimit))

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT e.experiment_id, e.date, e.researcher, e.title,
            e.methods, e.results, e.observations, e.raw_text, e.sealing, e.created_at, ranked.score
        FROM (SELECT experiment_id, `+expr+` AS score FROM experiment_search) ranked
        JOIN experiments e ON e.experiment_id = ranked.experiment_id
        WHERE ranked.score > 0
        ORDER BY ranked.score DESC, e.created_at DESC, e.id DESC
        LIMIT ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hit        labnote.ScoredRecord
			meta       string
			createdRaw string
		)
		if err := rows.Scan(
			&hit.ExperimentID, &hit.Date, &hit.Researcher, &hit.Title,
			&hit.Methods, &hit.Results, &hit.Observations, &hit.RawText,
			&meta, &createdRaw, &hit.Score,
		); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		values := s.openValues(ctx, hit.ExperimentID, map[string]string{
			"researcher":   hit.Researcher,
			"methods":      hit.Methods,
			"results":      hit.Results,
			"observations": hit.Observations,
			"raw_text":     hit.RawText,
		}, meta)
		hit.Researcher = values["researcher"]
		hit.Methods = values["methods"]
		hit.Results = values["results"]
		hit.Observations = values["observations"]
		hit.RawText = values["raw_text"]
		hit.CreatedAt = parseTime(createdRaw)
		out = append(out, hit)
	}
	return out, rows.Err()
}

// SearchMeasurements returns stored measurements matching filter, joined with
// their parent record, newest first. Type matching is a case-insensitive
// substring test; bounds are inclusive.
func (s *Store) SearchMeasurements(ctx context.Context, filter labnote.MeasurementFilter) (out []labnote.MeasurementHit, err error) {
	ctx, finish := s.begin(ctx, "search_measurements", "")
	defer func() { err = finish(err) }()

	var (
		where []string
		args  []any
	)
	if kind := strings.ToLower(strings.TrimSpace(filter.Type)); kind != "" {
		where = append(where, s.dialect.contains("lower(m.measurement_type)"))
		args = append(args, kind)
	}
	if filter.Min != nil {
		where = append(where, "m.value >= ?")
		args = append(args, *filter.Min)
	}
	if filter.Max != nil {
		where = append(where, "m.value <= ?")
		args = append(args, *filter.Max)
	}
	query := `SELECT m.experiment_id, m.measurement_type, m.value, m.unit, m.raw_text,
            e.title, e.researcher, e.date, e.sealing, m.created_at
        FROM measurements m
        JOIN experiments e ON e.experiment_id = m.experiment_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY m.created_at DESC, m.id DESC LIMIT ?`
	args = append(args, normalizeLimit(filter.Limit, DefaultLimit))

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("search measurements: %w", err)
	}
	defer rows.Close()

	out = []labnote.MeasurementHit{}
	for rows.Next() {
		var (
			hit        labnote.MeasurementHit
			meta       string
			createdRaw string
		)
		if err := rows.Scan(
			&hit.ExperimentID, &hit.Type, &hit.Value, &hit.Unit, &hit.RawText,
			&hit.Title, &hit.Researcher, &hit.Date, &meta, &createdRaw,
		); err != nil {
			return nil, fmt.Errorf("scan measurement hit: %w", err)
		}
		hit.Researcher = s.openValues(ctx, hit.ExperimentID, map[string]string{"researcher": hit.Researcher}, meta)["researcher"]
		hit.CreatedAt = parseTime(createdRaw)
		out = append(out, hit)
	}
	return out, rows.Err()
}

// Suggest returns autocomplete candidates containing partial. Partials shorter
// than MinSuggestLength runes yield empty lists. Researcher suggestions are
// empty while sealing is enabled.
func (s *Store) Suggest(ctx context.Context, partial string, limit int) (out labnote.Suggestions, err error) {
	ctx, finish := s.begin(ctx, "suggest", "")
	defer func() { err = finish(err) }()

	out = labnote.EmptySuggestions()
	partial = strings.TrimSpace(partial)
	if utf8.RuneCountInString(partial) < MinSuggestLength {
		return out, nil
	}
	needle := search.Fold(partial)
	limit = normalizeLimit(limit, DefaultSuggestLimit)

	lookups := []struct {
		dst   *[]string
		query string
		skip  bool
	}{
		{
			dst: &out.ExperimentIDs,
			query: `SELECT experiment_id FROM experiment_search WHERE ` + s.dialect.contains(search.Column(search.FieldExperimentID)) +
				` ORDER BY ` + s.dialect.orderText("experiment_id") + ` LIMIT ?`,
		},
		{
			dst:   &out.Researchers,
			query: s.distinctRecordColumn("researcher", search.FieldResearcher),
			skip:  s.sealer.Enabled(),
		},
		{
			dst:   &out.Titles,
			query: s.distinctRecordColumn("title", search.FieldTitle),
		},
		{
			dst: &out.MeasurementTypes,
			query: `SELECT measurement_type FROM measurements WHERE ` + s.dialect.contains("lower(measurement_type)") +
				` GROUP BY measurement_type ORDER BY ` + s.dialect.orderText("measurement_type") + ` LIMIT ?`,
		},
	}
	for _, lookup := range lookups {
		if lookup.skip {
			continue
		}
		values, err := s.queryStrings(ctx, lookup.query, needle, limit)
		if err != nil {
			return labnote.EmptySuggestions(), err
		}
		*lookup.dst = values
	}
	return out, nil
}

func (s *Store) distinctRecordColumn(column string, field search.Field) string {
	return `SELECT e.` + column + ` FROM experiments e
        JOIN experiment_search x ON x.experiment_id = e.experiment_id
        WHERE e.` + column + ` <> '' AND ` + s.dialect.contains("x."+search.Column(field)) + `
        GROUP BY e.` + column + `
        ORDER BY ` + s.dialect.orderText("e."+column) + ` LIMIT ?`
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, value)
	}
	return out, rows.Err()
}
