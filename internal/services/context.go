package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	messageIDKey contextKey = "message_id"
	mediumKey    contextKey = "medium"
	providerKey  contextKey = "provider"
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
	return stringValue(ctx, requestIDKey)
}

// WithMessageID annotates context with the chat message being processed.
func WithMessageID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, messageIDKey, id)
}

// MessageIDFromContext returns the chat message identifier if present.
func MessageIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, messageIDKey)
}

// WithMedium annotates context with the medium of the request being resolved.
func WithMedium(ctx context.Context, medium string) context.Context {
	if medium == "" {
		return ctx
	}
	return context.WithValue(ctx, mediumKey, medium)
}

// MediumFromContext returns the medium name if present.
func MediumFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, mediumKey)
}

// WithProvider annotates context with the provider currently being queried.
func WithProvider(ctx context.Context, provider string) context.Context {
	if provider == "" {
		return ctx
	}
	return context.WithValue(ctx, providerKey, provider)
}

// ProviderFromContext returns the provider identifier if present.
func ProviderFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, providerKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
