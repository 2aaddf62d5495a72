package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/service"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=3,max=32"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the bearer token for the Authorization header.
	AccessToken string `json:"token"`

	// ExpiresAt is the RFC 3339 instant the token stops being accepted.
	ExpiresAt string `json:"expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Active:    u.Active,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

// TaskRequest is the body of task create and update requests. Update
// replaces every field, so omitted optional fields are cleared.
type TaskRequest struct {
	Title           string     `json:"title"            validate:"required,min=3,max=100"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,gt=0"`
	Priority        string     `json:"priority"         validate:"required"`
	DueAt           *time.Time `json:"due_at"`
	Description     string     `json:"description"      validate:"max=1000"`
	CategoryID      *uuid.UUID `json:"category_id"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// toInput converts the request after the priority has been parsed.
func (r TaskRequest) toInput() (service.TaskInput, error) {
	priority, err := domain.ParsePriority(r.Priority)
	if err != nil {
		return service.TaskInput{}, domain.NewValidationError("priority", "must be one of BAJA, MEDIA, ALTA, IMPRESCINDIBLE", err)
	}
	return service.TaskInput{
		Title:           r.Title,
		DurationMinutes: r.DurationMinutes,
		Priority:        priority,
		DueAt:           r.DueAt,
		Description:     r.Description,
		CategoryID:      r.CategoryID,
		Completed:       r.Completed,
		CompletedAt:     r.CompletedAt,
	}, nil
}

// TaskResponse is the client view of a task, including the status derived
// at the time of the request.
type TaskResponse struct {
	ID              uuid.UUID       `json:"id"`
	OwnerID         uuid.UUID       `json:"owner_id"`
	Title           string          `json:"title"`
	DurationMinutes int             `json:"duration_minutes"`
	Priority        domain.Priority `json:"priority"`
	CreatedAt       time.Time       `json:"created_at"`
	DueAt           *time.Time      `json:"due_at,omitempty"`
	Description     string          `json:"description,omitempty"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	Completed       bool            `json:"completed"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CompletedByID   *uuid.UUID      `json:"completed_by_id,omitempty"`
	Status          domain.Status   `json:"status"`
}

func taskToResponse(t *domain.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:              t.ID,
		OwnerID:         t.OwnerID,
		Title:           t.Title,
		DurationMinutes: t.DurationMinutes,
		Priority:        t.Priority,
		CreatedAt:       t.CreatedAt,
		DueAt:           t.DueAt,
		Description:     t.Description,
		CategoryID:      t.CategoryID,
		Completed:       t.Completed,
		CompletedAt:     t.CompletedAt,
		CompletedByID:   t.CompletedByID,
		Status:          t.Status(now),
	}
}

func tasksToResponse(tasks []*domain.Task, now time.Time) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t, now))
	}
	return out
}

// TaskStatusResponse is the body of GET /api/tasks/{id}/status.
type TaskStatusResponse struct {
	TaskID uuid.UUID     `json:"task_id"`
	Status domain.Status `json:"status"`
}

// CategoryRequest is the body of category create and update requests.
type CategoryRequest struct {
	Name  string `json:"name"  validate:"required,min=3,max=32"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
	Icon  string `json:"icon"  validate:"max=32"`
}

func (r CategoryRequest) toInput() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, Color: r.Color, Icon: r.Icon}
}

// CategoryResponse is the client view of a category. Shared categories
// have no owner.
type CategoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color,omitempty"`
	Icon      string     `json:"icon,omitempty"`
	Protected bool       `json:"protected"`
	Shared    bool       `json:"shared"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func categoryToResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		Icon:      c.Icon,
		Protected: c.Protected,
		Shared:    c.IsShared(),
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
	}
}

func categoriesToResponse(categories []*domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryToResponse(c))
	}
	return out
}
