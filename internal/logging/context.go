package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent names the subsystem emitting the line.
	FieldComponent = "component"
	// FieldRequestID carries the HTTP correlation id.
	FieldRequestID = "request_id"
	// FieldExperimentID carries the experiment a line refers to.
	FieldExperimentID = "experiment_id"
	// FieldOp names a store operation.
	FieldOp = "op"
)

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	experimentIDKey contextKey = "experiment_id"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithExperimentID annotates context with the experiment being handled.
func WithExperimentID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, experimentIDKey, id)
}

// ExperimentIDFromContext extracts the experiment id if present.
func ExperimentIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(experimentIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, id))
	}
	if id, ok := ExperimentIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldExperimentID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
