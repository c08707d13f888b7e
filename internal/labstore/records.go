package labstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"labnote/internal/labnote"
	"labnote/internal/logging"
	"labnote/internal/sealing"
	"labnote/internal/search"
)

const recordColumns = "experiment_id, date, researcher, title, methods, results, observations, raw_text, preamble, sealing, created_at, updated_at"

// Upsert stores rec under its experiment id. An existing record keeps its
// created_at; everything else is replaced. Section and measurement rows are
// replaced too unless the store was configured to append them.
func (s *Store) Upsert(ctx context.Context, rec labnote.Record) (err error) {
	id := rec.ExperimentID
	ctx, finish := s.begin(ctx, "upsert", id)
	defer func() { err = finish(err) }()

	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}

	unlock, err := s.writers.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	sealed, meta, err := s.sealer.Seal(sensitiveValues(rec))
	if err != nil {
		return fmt.Errorf("seal record: %w", err)
	}
	sections, err := s.sealSections(rec)
	if err != nil {
		return err
	}
	now := formatTime(s.now())

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO experiments (`+recordColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (experiment_id) DO UPDATE SET
                date = excluded.date,
                researcher = excluded.researcher,
                title = excluded.title,
                methods = excluded.methods,
                results = excluded.results,
                observations = excluded.observations,
                raw_text = excluded.raw_text,
                preamble = excluded.preamble,
                sealing = excluded.sealing,
                updated_at = excluded.updated_at`),
			id,
			rec.Date,
			sealed["researcher"],
			rec.Title,
			sealed["methods"],
			sealed["results"],
			sealed["observations"],
			sealed["raw_text"],
			sealed["preamble"],
			meta.String(),
			now,
			now,
		); err != nil {
			return fmt.Errorf("upsert experiment: %w", err)
		}

		if !s.appendRows {
			for _, table := range []string{"experiment_sections", "measurements"} {
				if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE experiment_id = ?`), id); err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}
		}

		for _, section := range sections {
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO experiment_sections
                (experiment_id, section_name, content, sealing, created_at) VALUES (?, ?, ?, ?, ?)`),
				id, string(section.name), section.content, section.meta, now,
			); err != nil {
				return fmt.Errorf("insert section %s: %w", section.name, err)
			}
		}

		for _, m := range rec.Measurements {
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO measurements
                (experiment_id, measurement_type, value, unit, raw_text, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
				id, m.Type, m.Value, m.Unit, m.RawText, now,
			); err != nil {
				return fmt.Errorf("insert measurement: %w", err)
			}
		}

		return s.writeSearchRow(ctx, tx, rec)
	})
}

func (s *Store) writeSearchRow(ctx context.Context, tx *sql.Tx, rec labnote.Record) error {
	doc := search.Document{
		search.FieldExperimentID: rec.ExperimentID,
		search.FieldTitle:        rec.Title,
	}
	if !s.sealer.Enabled() {
		doc[search.FieldResearcher] = rec.Researcher
		doc[search.FieldMethods] = rec.Methods
		doc[search.FieldResults] = rec.Results
		doc[search.FieldObservations] = rec.Observations
		doc[search.FieldRawText] = rec.RawText
	}

	fields := search.Fields()
	columns := make([]string, 0, len(fields)+1)
	updates := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	columns = append(columns, "experiment_id")
	args = append(args, rec.ExperimentID)
	for _, field := range fields {
		col := search.Column(field)
		columns = append(columns, col)
		updates = append(updates, col+" = excluded."+col)
		args = append(args, search.Fold(doc[field]))
	}

	query := `INSERT INTO experiment_search (` + strings.Join(columns, ", ") + `)
        VALUES (` + placeholders(len(columns)) + `)
        ON CONFLICT (experiment_id) DO UPDATE SET ` + strings.Join(updates, ", ")
	if _, err := tx.ExecContext(ctx, s.q(query), args...); err != nil {
		return fmt.Errorf("index experiment: %w", err)
	}
	return nil
}

// Get loads a record by experiment id. It returns nil, nil when absent.
func (s *Store) Get(ctx context.Context, experimentID string) (rec *labnote.Record, err error) {
	ctx, finish := s.begin(ctx, "get", experimentID)
	defer func() { err = finish(err) }()

	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+recordColumns+` FROM experiments WHERE experiment_id = ?`), experimentID)
	rec, err = s.scanRecord(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	if err := s.loadSections(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.loadMeasurements(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a record with its sections, measurements and index row.
// It reports whether a record existed.
func (s *Store) Delete(ctx context.Context, experimentID string) (deleted bool, err error) {
	ctx, finish := s.begin(ctx, "delete", experimentID)
	defer func() { err = finish(err) }()

	unlock, err := s.writers.lock(ctx, experimentID)
	if err != nil {
		return false, err
	}
	defer unlock()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"experiment_search", "experiment_sections", "measurements"} {
			if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE experiment_id = ?`), experimentID); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM experiments WHERE experiment_id = ?`), experimentID)
		if err != nil {
			return fmt.Errorf("delete experiment: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (s *Store) scanRecord(ctx context.Context, scanner interface{ Scan(dest ...any) error }) (*labnote.Record, error) {
	var (
		rec        labnote.Record
		meta       string
		createdRaw string
		updatedRaw string
		values     = map[string]string{}
		researcher string
		methods    string
		results    string
		obs        string
		rawText    string
		preamble   string
	)
	if err := scanner.Scan(
		&rec.ExperimentID,
		&rec.Date,
		&researcher,
		&rec.Title,
		&methods,
		&results,
		&obs,
		&rawText,
		&preamble,
		&meta,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	values["researcher"] = researcher
	values["methods"] = methods
	values["results"] = results
	values["observations"] = obs
	values["raw_text"] = rawText
	values["preamble"] = preamble
	values = s.openValues(ctx, rec.ExperimentID, values, meta)

	rec.Researcher = values["researcher"]
	rec.Methods = values["methods"]
	rec.Results = values["results"]
	rec.Observations = values["observations"]
	rec.RawText = values["raw_text"]
	rec.Preamble = values["preamble"]
	rec.CreatedAt = parseTime(createdRaw)
	rec.UpdatedAt = parseTime(updatedRaw)
	rec.Sections = map[labnote.Section]string{}
	rec.Measurements = []labnote.Measurement{}
	return &rec, nil
}

// loadSections reads section rows in insertion order, so the newest row for a
// name wins when rows were appended.
func (s *Store) loadSections(ctx context.Context, rec *labnote.Record) error {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT section_name, content, sealing FROM experiment_sections
        WHERE experiment_id = ? ORDER BY id`), rec.ExperimentID)
	if err != nil {
		return fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, content, meta string
		if err := rows.Scan(&name, &content, &meta); err != nil {
			return fmt.Errorf("scan section: %w", err)
		}
		section, ok := labnote.ParseSection(name)
		if !ok {
			continue
		}
		content = s.openValues(ctx, rec.ExperimentID, map[string]string{"content": content}, meta)["content"]
		if content == "" {
			continue
		}
		rec.Sections[section] = content
	}
	return rows.Err()
}

func (s *Store) loadMeasurements(ctx context.Context, rec *labnote.Record) error {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT measurement_type, value, unit, raw_text FROM measurements
        WHERE experiment_id = ? ORDER BY id`), rec.ExperimentID)
	if err != nil {
		return fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m labnote.Measurement
		if err := rows.Scan(&m.Type, &m.Value, &m.Unit, &m.RawText); err != nil {
			return fmt.Errorf("scan measurement: %w", err)
		}
		rec.Measurements = append(rec.Measurements, m)
	}
	return rows.Err()
}

type sealedSection struct {
	name    labnote.Section
	content string
	meta    string
}

func (s *Store) sealSections(rec labnote.Record) ([]sealedSection, error) {
	var out []sealedSection
	for _, name := range labnote.Sections() {
		body := rec.Section(name)
		if body == "" {
			continue
		}
		sealed, meta, err := s.sealer.Seal(map[string]string{"content": body})
		if err != nil {
			return nil, fmt.Errorf("seal section %s: %w", name, err)
		}
		out = append(out, sealedSection{name: name, content: sealed["content"], meta: meta.String()})
	}
	return out, nil
}

// openValues decrypts sealed values. Values that cannot be opened are
// returned as stored and the failure is logged.
func (s *Store) openValues(ctx context.Context, experimentID string, values map[string]string, rawMeta string) map[string]string {
	meta, err := sealing.ParseMetadata(rawMeta)
	if err != nil {
		logging.WithContext(ctx, s.logger).Warn("unreadable sealing metadata",
			logging.Args(logging.String(logging.FieldExperimentID, experimentID), logging.Error(err))...)
		return values
	}
	opened, err := s.sealer.Open(values, meta)
	if err != nil {
		logging.WithContext(ctx, s.logger).Warn("decrypt failed; returning stored value",
			logging.Args(logging.String(logging.FieldExperimentID, experimentID), logging.Error(err))...)
	}
	return opened
}

// sensitiveValues returns the fields listed in sealing.SensitiveFields.
func sensitiveValues(rec labnote.Record) map[string]string {
	return map[string]string{
		"researcher":   rec.Researcher,
		"methods":      rec.Methods,
		"results":      rec.Results,
		"observations": rec.Observations,
		"raw_text":     rec.RawText,
		"preamble":     rec.Preamble,
	}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
