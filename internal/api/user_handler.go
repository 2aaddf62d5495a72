package api

import (
	"net/http"

	"github.com/phrazzld/tareas-api/internal/api/shared"
	"github.com/phrazzld/tareas-api/internal/service"
)

// UserHandler serves the caller's own account.
type UserHandler struct {
	users service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), caller.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// DeleteMe handles DELETE /api/users/me. Tasks and categories of the user
// are deleted with it.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), caller.UserID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
