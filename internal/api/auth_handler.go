package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/tareas-api/internal/api/shared"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/phrazzld/tareas-api/internal/service"
	"github.com/phrazzld/tareas-api/internal/service/auth"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	users    service.UserService
	tokens   auth.TokenService
	timeFunc func() time.Time
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users service.UserService, tokens auth.TokenService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		timeFunc: time.Now,
		logger:   logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register. The new user receives a token
// right away.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login handles POST /api/auth/login. Unknown emails and wrong passwords
// get the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	issuedAt := h.timeFunc()
	token, err := h.tokens.Issue(r.Context(), user.ID.String())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("issued access token",
		slog.String("user_id", user.ID.String()))

	shared.RespondWithJSON(w, r, status, AuthResponse{
		UserID:      user.ID,
		AccessToken: token,
		ExpiresAt:   issuedAt.Add(h.tokens.Lifetime()).UTC().Format(time.RFC3339),
	})
}
