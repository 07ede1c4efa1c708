package services

import "context"

type contextKey string

const (
	gameIDKey    contextKey = "game_id"
	releaseIDKey contextKey = "release_id"
	requestIDKey contextKey = "request_id"
)

// WithGameID annotates context with the game identifier.
func WithGameID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, gameIDKey, id)
}

// GameIDFromContext extracts the game identifier if present.
func GameIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, gameIDKey)
}

// WithReleaseID annotates context with the release identifier.
func WithReleaseID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, releaseIDKey, id)
}

// ReleaseIDFromContext extracts the release identifier if present.
func ReleaseIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, releaseIDKey)
}

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

func int64Value(ctx context.Context, key contextKey) (int64, bool) {
	switch val := ctx.Value(key).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
