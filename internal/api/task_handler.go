package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/api/shared"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/service"
	"github.com/phrazzld/tareas-api/internal/store"
)

// TaskHandler handles the /api/tasks endpoints. Every route requires an
// authenticated caller.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /api/tasks. Supported query parameters: sort, priority,
// max_duration, q, category_id and status. Filters combine with AND.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	filter, err := parseTaskFilter(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// One instant for both the status filter and the rendered status.
	filter.At = h.tasks.Now()
	tasks, err := h.tasks.List(r.Context(), caller.UserID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks, filter.At))
}

// DueToday handles GET /api/tasks/today.
func (h *TaskHandler) DueToday(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.DueToday(r.Context(), caller.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks, h.tasks.Now()))
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	in, ok := decodeTaskInput(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Create(r.Context(), caller.UserID, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task, h.tasks.Now()))
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, taskID, ok := callerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(r.Context(), callerID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task, h.tasks.Now()))
}

// Status handles GET /api/tasks/{id}/status.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	callerID, taskID, ok := callerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	status, err := h.tasks.Status(r.Context(), callerID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskStatusResponse{TaskID: taskID, Status: status})
}

// Update handles PUT /api/tasks/{id}. The body replaces the task.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, taskID, ok := callerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	in, ok := decodeTaskInput(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Update(r.Context(), callerID, taskID, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task, h.tasks.Now()))
}

// Complete handles PATCH /api/tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	callerID, taskID, ok := callerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.MarkCompleted(r.Context(), callerID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task, h.tasks.Now()))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, taskID, ok := callerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), callerID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeTaskInput(w http.ResponseWriter, r *http.Request) (service.TaskInput, bool) {
	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return service.TaskInput{}, false
	}

	in, err := req.toInput()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return service.TaskInput{}, false
	}
	return in, true
}

// parseTaskFilter reads the list query parameters. Empty parameters are
// ignored.
func parseTaskFilter(q url.Values) (service.TaskFilter, error) {
	var f service.TaskFilter

	if v := strings.TrimSpace(q.Get("sort")); v != "" {
		by, err := store.ParseSortField(v)
		if err != nil {
			return f, domain.NewValidationError("sort", "must be one of title, duration, priority, due_date", err)
		}
		f.SortBy = by
	}

	if v := q.Get("priority"); v != "" {
		p, err := domain.ParsePriority(v)
		if err != nil {
			return f, domain.NewValidationError("priority", "must be one of BAJA, MEDIA, ALTA, IMPRESCINDIBLE", err)
		}
		f.Priority = &p
	}

	if v := q.Get("max_duration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, domain.NewValidationError("max_duration", "must be a positive integer", domain.ErrValidation)
		}
		f.MaxDuration = &n
	}

	f.Keyword = q.Get("q")

	if v := q.Get("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, domain.NewValidationError("category_id", "has invalid format", domain.ErrInvalidID)
		}
		f.CategoryID = &id
	}

	if v := q.Get("status"); v != "" {
		st, err := domain.ParseStatus(v)
		if err != nil {
			return f, domain.NewValidationError("status", "is not a known status", err)
		}
		f.Status = &st
	}

	return f, nil
}
