package logging

import (
	"context"
	"log/slog"

	"gamearr/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldGameID is the standardized key for game identifiers.
	FieldGameID = "game_id"
	// FieldReleaseID is the standardized key for release identifiers.
	FieldReleaseID = "release_id"
	// FieldTorrentHash is the standardized key for download client info hashes.
	FieldTorrentHash = "torrent_hash"
	// FieldCorrelationID is the standardized key for reconciliation pass and request identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.GameIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldGameID, id))
	}
	if id, ok := services.ReleaseIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldReleaseID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
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
