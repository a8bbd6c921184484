package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ctxKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request-scoped logger, or one wrapping
// slog.Default when ctx carries none.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return bind(slog.Default(), "unknown")
}

// Middleware stores logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the ledger's business events with a fixed field
// layout.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogTransactionRecorded logs a committed ledger transaction
func (sl *StructuredLogger) LogTransactionRecorded(ctx context.Context, id, desc string, amountCents int64, accountID, categoryID string) {
	fields := NewFields().
		WithTransaction(id, desc, amountCents, accountID, categoryID).
		WithOperation(OpCreate)

	sl.logger.WithComponent(ComponentWallet).InfoContext(ctx, "Transaction recorded", fields.ToSlice()...)
}

// LogStatementImported logs the outcome of one statement import.
func (sl *StructuredLogger) LogStatementImported(ctx context.Context, source, accountID string, imported, skipped int) {
	fields := NewFields().
		WithImport(source, accountID, imported, skipped).
		WithOperation(OpImport)

	sl.logger.WithComponent(ComponentImport).InfoContext(ctx, "Statement imported", fields.ToSlice()...)
}

// LogRequestFailed logs an unexpected error that ended a request.
func (sl *StructuredLogger) LogRequestFailed(ctx context.Context, r *http.Request, err error) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path).
		WithError(err)

	sl.logger.WithComponent(ComponentHTTP).ErrorContext(ctx, "Request failed", fields.ToSlice()...)
}
