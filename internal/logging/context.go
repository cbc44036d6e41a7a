package logging

import (
	"context"
	"log/slog"

	"tagscout/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldMessageID identifies the chat message a lookup originated from.
	FieldMessageID = "message_id"
	// FieldMedium is the medium of the request being resolved (anime, manga, light_novel).
	FieldMedium = "medium"
	// FieldProvider is the provider identifier (anilist, mal, kitsu, ...).
	FieldProvider = "provider"
	// FieldEventType names the event a WARN or ERROR line reports.
	FieldEventType = "event_type"
	// FieldErrorHint is the suggested next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

var contextSources = []struct {
	key string
	get func(context.Context) (string, bool)
}{
	{FieldCorrelationID, services.RequestIDFromContext},
	{FieldMessageID, services.MessageIDFromContext},
	{FieldMedium, services.MediumFromContext},
	{FieldProvider, services.ProviderFromContext},
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	for _, source := range contextSources {
		if value, ok := source.get(ctx); ok {
			fields = append(fields, slog.String(source.key, value))
		}
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
