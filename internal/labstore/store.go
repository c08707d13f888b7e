package labstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"

	"labnote/internal/config"
	"labnote/internal/logging"
	"labnote/internal/metrics"
	"labnote/internal/sealing"
)

const (
	// DefaultLimit applies to list, search and measurement queries.
	DefaultLimit = 50
	// DefaultSuggestLimit applies to each suggestion category.
	DefaultSuggestLimit = 10
	// MinSuggestLength is the shortest partial, in runes, that yields suggestions.
	MinSuggestLength = 2

	defaultTimeout = 5 * time.Second
)

// Store manages lab record persistence.
type Store struct {
	db       *sql.DB
	dialect  dialect
	path     string
	migrator *migrate.Migrate

	timeout    time.Duration
	appendRows bool
	sealer     *sealing.Sealer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	writers    keyedMutex
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for failures and migrations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "store")
	}
}

// WithMetrics records operation durations and failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithSealer overrides the sealer built from configuration.
func WithSealer(sealer *sealing.Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open connects to the configured backend and applies migrations.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	d, err := dialectFor(cfg.Store.Driver)
	if err != nil {
		return nil, err
	}

	store := &Store{
		dialect:    d,
		path:       cfg.DatabasePath(),
		timeout:    cfg.StoreTimeout(),
		appendRows: cfg.Store.AppendSubRows,
		logger:     logging.NewComponentLogger(nil, "store"),
		now:        time.Now,
	}
	if store.timeout <= 0 {
		store.timeout = defaultTimeout
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.sealer == nil {
		if store.sealer, err = sealerFromConfig(cfg); err != nil {
			return nil, err
		}
	}

	if d.name() == config.DriverSQLite {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
	}

	db, err := sql.Open(d.driverName(), d.dsn(store.path))
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.name(), err)
	}
	store.db = db

	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", d.name(), err)
	}

	if err := store.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func sealerFromConfig(cfg *config.Config) (*sealing.Sealer, error) {
	encoded, err := cfg.SealingKey()
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return sealing.Disabled(), nil
	}
	key, err := sealing.KeyFromBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Sealing.KeyEnv, err)
	}
	return sealing.New(key)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports the backend in use.
func (s *Store) Driver() string {
	return s.dialect.name()
}

// Sealed reports whether sensitive fields are encrypted at rest.
func (s *Store) Sealed() bool {
	return s.sealer.Enabled()
}

// begin starts an operation: it bounds ctx by the store timeout and returns a
// finish func that records metrics and logs failures.
func (s *Store) begin(ctx context.Context, op, experimentID string) (context.Context, func(error) error) {
	ctx = ensureContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	started := time.Now()
	return ctx, func(err error) error {
		cancel()
		s.metrics.ObserveStore(op, started, err)
		if err != nil {
			attrs := []logging.Attr{logging.String(logging.FieldOp, op), logging.Error(err)}
			if experimentID != "" {
				attrs = append(attrs, logging.String(logging.FieldExperimentID, experimentID))
			}
			logging.WithContext(ctx, s.logger).Error("store operation failed", logging.Args(attrs...)...)
		}
		return err
	}
}

func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
