package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for album identifiers.
	FieldItemID = "item_id"
	// FieldState is the standardized structured logging key for album lifecycle states.
	FieldState = "state"
	// FieldAccount is the standardized structured logging key for caller or payer accounts.
	FieldAccount = "account"
	// FieldCustodyAddress is the standardized structured logging key for custody unit addresses.
	FieldCustodyAddress = "custody_address"
	// FieldAmount is the standardized structured logging key for transferred value.
	FieldAmount = "amount"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
)

type contextKey int

const (
	itemIDKey contextKey = iota
	correlationIDKey
)

// WithItemID returns a context tagged with the album id.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext returns the album id stored by WithItemID.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(itemIDKey).(int64)
	return id, ok
}

// WithCorrelationID returns a context tagged with a request correlation id.
// A blank id leaves ctx unchanged.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the id stored by WithCorrelationID.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok && id != ""
}

// NewCorrelationID returns a random request identifier.
func NewCorrelationID() string {
	return uuid.NewString()
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldItemID, id))
	}
	if rid, ok := CorrelationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
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
