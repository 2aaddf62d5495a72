package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/api/shared"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/phrazzld/tareas-api/internal/redact"
	"github.com/phrazzld/tareas-api/internal/service/auth"
	"github.com/phrazzld/tareas-api/internal/store"
)

// Response messages of the gate. Every token failure uses the same one.
const (
	msgInvalidToken   = "Invalid token"
	msgAuthRequired   = "Authentication required"
	msgInternalFailed = "An unexpected error occurred"
)

// AuthGate establishes the caller identity from a bearer token.
type AuthGate struct {
	tokens auth.TokenService
	users  store.UserStore
	logger *slog.Logger
}

// NewAuthGate creates an AuthGate. It panics if tokens or users is nil.
func NewAuthGate(tokens auth.TokenService, users store.UserStore, logger *slog.Logger) *AuthGate {
	if tokens == nil {
		panic("tokens cannot be nil")
	}
	if users == nil {
		panic("users cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthGate{
		tokens: tokens,
		users:  users,
		logger: logger.With(slog.String("component", "auth_gate")),
	}
}

// Authenticate attaches a shared.Identity to the request context when the
// request carries a valid bearer token for an existing, active user.
//
// Requests without a bearer token pass through unauthenticated; protected
// routes reject them with RequireAuth. A token that is present but invalid
// ends the request with 401, whatever the cause.
func (g *AuthGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, ok := shared.IdentityFromContext(ctx); ok {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		log := logger.FromContextOrDefault(ctx, g.logger)
		if token == "" {
			log.Debug("bearer scheme without a token")
			shared.RespondWithError(w, r, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		subject, err := g.tokens.Verify(ctx, token)
		if err != nil {
			log.Debug("rejected bearer token", slog.String("error", redact.Error(err)))
			shared.RespondWithError(w, r, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		userID, err := uuid.Parse(subject)
		if err != nil || userID == uuid.Nil {
			log.Debug("token subject is not a user id")
			shared.RespondWithError(w, r, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		user, err := g.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				log.Debug("token subject no longer exists", slog.String("user_id", userID.String()))
				shared.RespondWithError(w, r, http.StatusUnauthorized, msgInvalidToken)
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgInternalFailed, err)
			return
		}
		if !user.Active {
			log.Debug("token subject is inactive", slog.String("user_id", userID.String()))
			shared.RespondWithError(w, r, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		ctx = shared.WithIdentity(ctx, shared.Identity{UserID: user.ID, Email: user.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that reached it without an identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.IdentityFromContext(r.Context()); !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, msgAuthRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const bearerScheme = "Bearer"

// bearerToken reports whether header presents a bearer credential and
// returns its token, which may be empty. The scheme is matched exactly.
func bearerToken(header string) (string, bool) {
	if header == bearerScheme {
		return "", true
	}
	token, found := strings.CutPrefix(header, bearerScheme+" ")
	if !found {
		return "", false
	}
	return strings.TrimSpace(token), true
}
