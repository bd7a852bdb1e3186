// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID is the context key carrying the per-session correlation id.
const CorrelationID LogContextKey = "correlation_id"

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// StoreLogger provides structured logging for store operations.
type StoreLogger struct {
	store  string
	logger *Logger
}

// NewStoreLogger creates a new StoreLogger for the given store.
func NewStoreLogger(store string) *StoreLogger {
	return &StoreLogger{store: store, logger: GlobalLogger}
}

// LogApply logs an incremental update applied from a push event.
func (l *StoreLogger) LogApply(ctx context.Context, event string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("store", l.store),
		slog.String("event", event),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "push update applied", attrs...)
}

// LogReconcile logs an authoritative re-read overwriting local state.
func (l *StoreLogger) LogReconcile(ctx context.Context, fields map[string]interface{}) {
	attrs := []any{
		slog.String("store", l.store),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "store reconciled", attrs...)
}

// LogError logs a store error.
func (l *StoreLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "store error",
		slog.String("store", l.store),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// LogBackgroundError logs and swallows an error from a best-effort background
// operation. Background failures must never block the primary user action.
func LogBackgroundError(ctx context.Context, operation string, err error) {
	if err == nil {
		return
	}
	GlobalLogger.WarnContext(ctx, "background operation failed",
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// LogDroppedPayload logs a push message dropped by a handler that could not
// interpret it.
func LogDroppedPayload(ctx context.Context, eventType string, err error) {
	GlobalLogger.WarnContext(ctx, "push payload dropped",
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}
