package labstore

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	sub, err := fs.Sub(migrationFS, "migrations/"+s.dialect.name())
	if err != nil {
		return nil, fmt.Errorf("migrations for %s: %w", s.dialect.name(), err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	driver, err := s.dialect.migrationDriver(s.db)
	if err != nil {
		return nil, fmt.Errorf("create %s migration driver: %w", s.dialect.name(), err)
	}
	m, err := migrate.NewWithInstance("iofs", source, s.dialect.name(), driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrateLogger{logger: s.logger}
	return m, nil
}

// applyMigrations brings the schema to the latest version. The migrate
// instance is kept rather than closed because closing it closes the shared
// *sql.DB.
func (s *Store) applyMigrations() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	s.migrator = m
	return nil
}

// migrationVersion reports the applied schema version; 0 means none.
func (s *Store) migrationVersion() (uint, bool, error) {
	if s.migrator == nil {
		return 0, false, errors.New("migrations not initialized")
	}
	version, dirty, err := s.migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf("migrate: "+format, v...))
}

func (l migrateLogger) Verbose() bool { return false }
