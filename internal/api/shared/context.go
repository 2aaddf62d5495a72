package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
)

// ContextKey is the type of context keys set by the API layer.
type ContextKey string

const (
	// IdentityContextKey is the context key for the authenticated Identity.
	IdentityContextKey ContextKey = "identity"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// IdentityFromContext returns the caller attached by the authentication
// gate. ok is false for unauthenticated requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

// SetTraceID adds a fresh trace ID to the context. Loggers obtained with
// logger.FromContext include it.
func SetTraceID(ctx context.Context) context.Context {
	return logger.WithTraceID(ctx, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	return logger.TraceIDFromContext(ctx)
}

// generateTraceID returns 32 random hex characters. If crypto/rand fails,
// a random UUID without dashes is used instead.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		slog.Error("failed to generate secure random trace ID",
			slog.String("error", err.Error()),
			slog.String("fallback", "uuid"))
		u := uuid.New()
		return hex.EncodeToString(u[:])
	}
	return hex.EncodeToString(b)
}
