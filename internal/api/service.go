package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"labnote/internal/labnote"
	"labnote/internal/labstore"
	"labnote/internal/logging"
	"labnote/internal/metrics"
	"labnote/internal/parser"
)

// ErrNoStore is reported when the service was built without a store.
var ErrNoStore = errors.New("record store not configured")

// Service processes notes and answers record queries.
type Service struct {
	parser  *parser.Parser
	store   RecordStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logging.NewComponentLogger(logger, "notebook")
	}
}

// WithMetrics counts processed notes and extracted measurements.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService builds a Service. A nil parser gets the default configuration.
func NewService(p *parser.Parser, store RecordStore, opts ...ServiceOption) *Service {
	if p == nil {
		p = parser.New()
	}
	svc := &Service{
		parser: p,
		store:  store,
		logger: logging.NewComponentLogger(nil, "notebook"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ParseOnly structures text without storing it.
func (s *Service) ParseOnly(text string) Parsed {
	return Parsed{
		Record:              s.parser.Parse(text),
		CategorizedSections: s.parser.Categorize(text),
	}
}

// Process parses text and stores the record. Storage failures are reported
// through Result.StoredSuccessfully and Result.StoreError.
func (s *Service) Process(ctx context.Context, text string, opts ProcessOptions) Result {
	result := Result{Parsed: s.ParseOnly(text)}
	if id := strings.TrimSpace(opts.ExperimentID); id != "" {
		result.ExperimentID = id
	}

	ctx = logging.WithExperimentID(ctx, result.ExperimentID)
	logger := logging.WithContext(ctx, s.logger)

	var err error
	if s.store == nil {
		err = ErrNoStore
	} else {
		err = s.store.Upsert(ctx, result.Record)
	}
	if err != nil {
		result.StoreError = err.Error()
		logger.Warn("note parsed but not stored", logging.Args(logging.Error(err))...)
	} else {
		result.StoredSuccessfully = true
		logger.Info("note stored", logging.Args(
			logging.Int("measurements", len(result.Measurements)),
			logging.Int("sections", len(result.Sections)),
		)...)
	}

	types := make([]string, 0, len(result.Measurements))
	for _, m := range result.Measurements {
		types = append(types, m.Type)
	}
	s.metrics.RecordProcessed(result.StoredSuccessfully, types)
	return result
}

// Get returns a stored record or nil when absent.
func (s *Service) Get(ctx context.Context, experimentID string) (*labnote.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.Get(ctx, experimentID)
}

// List returns record summaries, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]labnote.Summary, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List(ctx, limit)
}

// Search ranks stored records against query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]labnote.ScoredRecord, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.Search(ctx, query, limit)
}

// Measurements filters stored measurements. An inverted range matches
// nothing.
func (s *Service) Measurements(ctx context.Context, filter labnote.MeasurementFilter) ([]labnote.MeasurementHit, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if filter.Min != nil && filter.Max != nil && *filter.Min > *filter.Max {
		return []labnote.MeasurementHit{}, nil
	}
	return s.store.SearchMeasurements(ctx, filter)
}

// Suggest returns autocomplete candidates for partial.
func (s *Service) Suggest(ctx context.Context, partial string, limit int) (labnote.Suggestions, error) {
	if s.store == nil {
		return labnote.EmptySuggestions(), ErrNoStore
	}
	return s.store.Suggest(ctx, partial, limit)
}

// Delete removes a record. It returns labstore.ErrNotFound when the id is
// not stored.
func (s *Service) Delete(ctx context.Context, experimentID string) error {
	if s.store == nil {
		return ErrNoStore
	}
	deleted, err := s.store.Delete(ctx, experimentID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%s: %w", experimentID, labstore.ErrNotFound)
	}
	logging.WithContext(logging.WithExperimentID(ctx, experimentID), s.logger).Info("record deleted")
	return nil
}

// Health reports store diagnostics.
func (s *Service) Health(ctx context.Context) labstore.Health {
	if s.store == nil {
		return labstore.Health{Error: ErrNoStore.Error()}
	}
	return s.store.Health(ctx)
}
