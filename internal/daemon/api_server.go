package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"labnote/internal/api"
	"labnote/internal/logging"
	"labnote/internal/metrics"
)

// maxBodyBytes caps note submissions.
const maxBodyBytes = 4 << 20

type apiServer struct {
	bind    string
	logger  *slog.Logger
	service *api.Service
	metrics *metrics.Metrics

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, svc *api.Service, m *metrics.Metrics, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "api-server"),
		service: svc,
		metrics: m,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "POST /api/parse", s.handleParse)
	s.handle(mux, "POST /api/notes", s.handleNotes)
	s.handle(mux, "GET /api/records", s.handleRecords)
	s.handle(mux, "GET /api/records/{id}", s.handleRecord)
	s.handle(mux, "DELETE /api/records/{id}", s.handleDeleteRecord)
	s.handle(mux, "GET /api/search", s.handleSearch)
	s.handle(mux, "GET /api/measurements", s.handleMeasurements)
	s.handle(mux, "GET /api/suggestions", s.handleSuggestions)
	s.handle(mux, "GET /api/health", s.handleHealth)
	if s.metrics != nil {
		s.handle(mux, "GET /metrics", s.metrics.Handler().ServeHTTP)
	}
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log(r).Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := api.ErrorResponse{Error: message}
	if err != nil {
		resp.Detail = err.Error()
		if status >= http.StatusInternalServerError {
			s.log(r).Error(message, logging.Error(err))
		}
	}
	s.writeJSON(w, r, status, resp)
}

func (s *apiServer) log(r *http.Request) *slog.Logger {
	return logging.WithContext(r.Context(), s.logger)
}
