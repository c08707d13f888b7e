package labstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"labnote/internal/config"
)

// Health is diagnostic information about the record store.
type Health struct {
	Driver           string   `json:"driver"`
	Path             string   `json:"path"`
	DatabaseExists   bool     `json:"database_exists"`
	Readable         bool     `json:"readable"`
	MigrationVersion uint     `json:"migration_version"`
	Dirty            bool     `json:"dirty"`
	TablesPresent    []string `json:"tables_present"`
	MissingTables    []string `json:"missing_tables,omitempty"`
	IntegrityCheck   string   `json:"integrity_check,omitempty"`
	Experiments      int      `json:"experiments"`
	Sections         int      `json:"sections"`
	Measurements     int      `json:"measurements"`
	Sealed           bool     `json:"sealed"`
	Error            string   `json:"error,omitempty"`
}

// Healthy reports whether the store looks fully usable.
func (h Health) Healthy() bool {
	if h.Error != "" || !h.Readable || h.Dirty || len(h.MissingTables) > 0 {
		return false
	}
	return h.IntegrityCheck == "" || strings.EqualFold(h.IntegrityCheck, "ok")
}

var expectedTables = []string{"experiments", "experiment_sections", "measurements", "experiment_search"}

// Health collects diagnostics. Failures are reported in Health.Error rather
// than returned.
func (s *Store) Health(ctx context.Context) Health {
	health := Health{
		Driver: s.dialect.name(),
		Path:   redactDSN(s.dialect.name(), s.path),
		Sealed: s.sealer.Enabled(),
	}
	ctx, finish := s.begin(ctx, "health", "")
	err := s.collectHealth(ctx, &health)
	if err != nil {
		health.Error = err.Error()
	}
	_ = finish(err)
	return health
}

func (s *Store) collectHealth(ctx context.Context, health *Health) error {
	if s.dialect.name() == config.DriverSQLite {
		info, err := os.Stat(s.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("stat database: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("database path %q is a directory", s.path)
		}
	}
	health.DatabaseExists = true

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	health.Readable = true

	version, dirty, err := s.migrationVersion()
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	health.MigrationVersion = version
	health.Dirty = dirty

	tables, err := s.queryStrings(ctx, s.dialect.tablesQuery())
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	present := make(map[string]struct{}, len(tables))
	for _, name := range tables {
		present[name] = struct{}{}
	}
	for _, name := range expectedTables {
		if _, ok := present[name]; ok {
			health.TablesPresent = append(health.TablesPresent, name)
		} else {
			health.MissingTables = append(health.MissingTables, name)
		}
	}
	sort.Strings(health.TablesPresent)
	if len(health.MissingTables) > 0 {
		return nil
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{"experiments", &health.Experiments},
		{"experiment_sections", &health.Sections},
		{"measurements", &health.Measurements},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	if s.dialect.name() == config.DriverSQLite {
		if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&health.IntegrityCheck); err != nil {
			return fmt.Errorf("integrity check: %w", err)
		}
	}
	return nil
}

// redactDSN hides a postgres password.
func redactDSN(driver, dsn string) string {
	if driver != config.DriverPostgres {
		return dsn
	}
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return dsn[:scheme+3] + creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
