package api

import (
	"net/http"
	"strings"

	"github.com/phrazzld/tareas-api/internal/api/shared"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/service"
)

// CategoryHandler handles the /api/categories endpoints.
type CategoryHandler struct {
	categories service.CategoryService
}

// NewCategoryHandler creates a CategoryHandler.
func NewCategoryHandler(categories service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// List handles GET /api/categories: the caller's categories plus the shared
// ones. With ?name= it searches them by partial name.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var (
		categories []*domain.Category
		err        error
	)
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		categories, err = h.categories.SearchByName(r.Context(), caller.UserID, name)
	} else {
		categories, err = h.categories.List(r.Context(), caller.UserID)
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list categories")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, categoriesToResponse(categories))
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.categories.Create(r.Context(), caller.UserID, req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create category")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, categoryToResponse(category))
}

// Get handles GET /api/categories/{id}. Shared categories are readable by
// everyone.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, categoryID, ok := callerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categories.GetByID(r.Context(), callerID, categoryID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get category")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, categoryToResponse(category))
}

// Update handles PUT /api/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, categoryID, ok := callerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.categories.Update(r.Context(), callerID, categoryID, req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update category")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, categoryToResponse(category))
}

// Delete handles DELETE /api/categories/{id}. Tasks in the category are
// kept and lose their category.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, categoryID, ok := callerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), callerID, categoryID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
