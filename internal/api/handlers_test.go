package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/api/shared"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/mocks"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/phrazzld/tareas-api/internal/service"
	"github.com/phrazzld/tareas-api/internal/service/auth"
	"github.com/phrazzld/tareas-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "handler-test-secret-with-32-chars!"

var fixtureNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type handlerFixture struct {
	t          *testing.T
	db         *mocks.MemoryDB
	users      service.UserService
	tasks      service.TaskService
	categories service.CategoryService
	tokens     auth.TokenService
	router     chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	clockFn := func() time.Time { return fixtureNow }
	clock := service.WithTimeFunc(clockFn)

	db := mocks.NewMemoryDB()
	stores := db.Stores()

	users, err := service.NewUserService(stores.Users, db, auth.NewBcryptHasher(bcrypt.MinCost), log, clock)
	require.NoError(t, err)
	tasks, err := service.NewTaskService(stores, log, clock)
	require.NoError(t, err)
	categories, err := service.NewCategoryService(stores, db, log, clock)
	require.NoError(t, err)
	tokens, err := auth.NewTokenServiceWithClock(testSecret, time.Hour, clockFn)
	require.NoError(t, err)

	f := &handlerFixture{
		t:          t,
		db:         db,
		users:      users,
		tasks:      tasks,
		categories: categories,
		tokens:     tokens,
	}
	f.router = f.buildRouter(NewTaskHandler(tasks), NewCategoryHandler(categories))
	return f
}

func (f *handlerFixture) buildRouter(taskHandler *TaskHandler, categoryHandler *CategoryHandler) chi.Router {
	authHandler := NewAuthHandler(f.users, f.tokens, nil)
	authHandler.timeFunc = func() time.Time { return fixtureNow }
	userHandler := NewUserHandler(f.users)

	r := chi.NewRouter()
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Get("/api/users/me", userHandler.Me)
	r.Delete("/api/users/me", userHandler.DeleteMe)

	r.Get("/api/tasks", taskHandler.List)
	r.Post("/api/tasks", taskHandler.Create)
	r.Get("/api/tasks/today", taskHandler.DueToday)
	r.Get("/api/tasks/{id}", taskHandler.Get)
	r.Put("/api/tasks/{id}", taskHandler.Update)
	r.Delete("/api/tasks/{id}", taskHandler.Delete)
	r.Get("/api/tasks/{id}/status", taskHandler.Status)
	r.Patch("/api/tasks/{id}/complete", taskHandler.Complete)

	r.Get("/api/categories", categoryHandler.List)
	r.Post("/api/categories", categoryHandler.Create)
	r.Get("/api/categories/{id}", categoryHandler.Get)
	r.Put("/api/categories/{id}", categoryHandler.Update)
	r.Delete("/api/categories/{id}", categoryHandler.Delete)
	return r
}

func (f *handlerFixture) registerUser(name, email string) uuid.UUID {
	f.t.Helper()
	user, err := f.users.Register(context.Background(), name, email, "Secret123")
	require.NoError(f.t, err)
	return user.ID
}

// do sends a request as caller; uuid.Nil sends it without an identity.
func (f *handlerFixture) do(method, path string, caller uuid.UUID, body string) *httptest.ResponseRecorder {
	f.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != uuid.Nil {
		req = req.WithContext(shared.WithIdentity(req.Context(), shared.Identity{UserID: caller}))
	}

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *handlerFixture) createTask(caller uuid.UUID, body string) TaskResponse {
	f.t.Helper()
	rr := f.do(http.MethodPost, "/api/tasks", caller, body)
	require.Equal(f.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeJSON[TaskResponse](f.t, rr)
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v), rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeJSON[shared.ErrorResponse](t, rr).Error
}

func TestAuthHandler_Register(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodPost, "/api/auth/register", uuid.Nil,
		`{"name":"Alice","email":"Alice@Example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	resp := decodeJSON[AuthResponse](t, rr)
	assert.NotEqual(t, uuid.Nil, resp.UserID)
	assert.Equal(t, "2026-03-10T10:00:00Z", resp.ExpiresAt)

	subject, err := f.tokens.Verify(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID.String(), subject)

	user, err := f.users.GetUser(context.Background(), resp.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestAuthHandler_RegisterRejections(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerUser("Taken", "taken@example.com")

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{"empty body", "", http.StatusBadRequest, "Request body is required"},
		{"malformed json", `{"name":`, http.StatusBadRequest, "Invalid request format"},
		{"unknown field", `{"name":"Alice","email":"a@example.com","password":"Secret123","admin":true}`,
			http.StatusBadRequest, "Invalid request format"},
		{"short name", `{"name":"Al","email":"a@example.com","password":"Secret123"}`,
			http.StatusBadRequest, "Invalid name: too short or too small"},
		{"bad email", `{"name":"Alice","email":"not-an-email","password":"Secret123"}`,
			http.StatusBadRequest, "Invalid email: invalid email format"},
		{"short password", `{"name":"Alice","email":"a@example.com","password":"Sec1"}`,
			http.StatusBadRequest, "Invalid password: too short or too small"},
		{"email taken", `{"name":"Alice","email":"TAKEN@example.com","password":"Secret123"}`,
			http.StatusConflict, "Email already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodPost, "/api/auth/register", uuid.Nil, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedError, errorMessage(t, rr))
		})
	}

	t.Run("weak password", func(t *testing.T) {
		rr := f.do(http.MethodPost, "/api/auth/register", uuid.Nil,
			`{"name":"Alice","email":"weak@example.com","password":"password1"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.True(t, strings.HasPrefix(errorMessage(t, rr), "Invalid password"))
	})
}

func TestAuthHandler_Login(t *testing.T) {
	f := newHandlerFixture(t)
	userID := f.registerUser("Alice", "alice@example.com")

	rr := f.do(http.MethodPost, "/api/auth/login", uuid.Nil,
		`{"email":"alice@example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, userID, decodeJSON[AuthResponse](t, rr).UserID)

	// Unknown emails and wrong passwords are indistinguishable.
	for _, body := range []string{
		`{"email":"alice@example.com","password":"Wrong1234"}`,
		`{"email":"nobody@example.com","password":"Secret123"}`,
	} {
		rr = f.do(http.MethodPost, "/api/auth/login", uuid.Nil, body)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid credentials", errorMessage(t, rr))
	}
}

func TestUserHandler(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")
	f.createTask(alice, `{"title":"Buy milk","duration_minutes":15,"priority":"ALTA"}`)

	rr := f.do(http.MethodGet, "/api/users/me", alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	me := decodeJSON[UserResponse](t, rr)
	assert.Equal(t, "Alice", me.Name)
	assert.Equal(t, "alice@example.com", me.Email)

	rr = f.do(http.MethodDelete, "/api/users/me", alice, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, f.db.TaskCount())
	assert.Zero(t, f.db.CategoryCount())

	rr = f.do(http.MethodGet, "/api/users/me", alice, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found", errorMessage(t, rr))
}

func TestHandlers_RequireIdentity(t *testing.T) {
	f := newHandlerFixture(t)
	id := uuid.New().String()

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/users/me"},
		{http.MethodDelete, "/api/users/me"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/today"},
		{http.MethodGet, "/api/tasks/" + id},
		{http.MethodGet, "/api/tasks/" + id + "/status"},
		{http.MethodPatch, "/api/tasks/" + id + "/complete"},
		{http.MethodGet, "/api/categories"},
		{http.MethodDelete, "/api/categories/" + id},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := f.do(route.method, route.path, uuid.Nil, "")
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "Authentication required", errorMessage(t, rr))
		})
	}
}

func TestTaskHandler_CreateAndGet(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")
	bob := f.registerUser("Bob", "bob@example.com")

	created := f.createTask(alice, `{
		"title": "Buy milk",
		"duration_minutes": 15,
		"priority": "ALTA",
		"due_at": "2026-03-10T18:00:00Z",
		"description": "two litres"
	}`)
	assert.Equal(t, alice, created.OwnerID)
	assert.Equal(t, domain.PriorityHigh, created.Priority)
	assert.Equal(t, domain.StatusInProgress, created.Status)
	assert.Equal(t, fixtureNow, created.CreatedAt)
	assert.False(t, created.Completed)

	rr := f.do(http.MethodGet, "/api/tasks/"+created.ID.String(), alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created.ID, decodeJSON[TaskResponse](t, rr).ID)

	rr = f.do(http.MethodGet, "/api/tasks/"+created.ID.String(), bob, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "You do not own this resource", errorMessage(t, rr))

	rr = f.do(http.MethodGet, "/api/tasks/"+uuid.NewString(), alice, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Task not found", errorMessage(t, rr))

	rr = f.do(http.MethodGet, "/api/tasks/not-a-uuid", alice, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid id: has invalid format", errorMessage(t, rr))
}

func TestTaskHandler_CreateRejections(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "unknown priority",
			body:           `{"title":"Buy milk","duration_minutes":15,"priority":"URGENTE"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid priority: must be one of BAJA, MEDIA, ALTA, IMPRESCINDIBLE",
		},
		{
			name:           "short title",
			body:           `{"title":"ab","duration_minutes":15,"priority":"ALTA"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid title: too short or too small",
		},
		{
			name:           "zero duration",
			body:           `{"title":"Buy milk","duration_minutes":0,"priority":"ALTA"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid duration_minutes: required field",
		},
		{
			name:           "due date in the past",
			body:           `{"title":"Buy milk","duration_minutes":15,"priority":"ALTA","due_at":"2026-03-09T09:00:00Z"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid due_at: cannot be in the past",
		},
		{
			name:           "completed without completion date",
			body:           `{"title":"Buy milk","duration_minutes":15,"priority":"ALTA","completed":true}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid completed_at: is required when the task is completed",
		},
		{
			name:           "unknown category",
			body:           `{"title":"Buy milk","duration_minutes":15,"priority":"ALTA","category_id":"` + uuid.NewString() + `"}`,
			expectedStatus: http.StatusNotFound,
			expectedError:  "Category not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodPost, "/api/tasks", alice, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedError, errorMessage(t, rr))
		})
	}
	assert.Zero(t, f.db.TaskCount())
}

func TestTaskHandler_UpdateCompleteAndDelete(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")
	task := f.createTask(alice, `{"title":"Buy milk","duration_minutes":15,"priority":"ALTA"}`)
	path := "/api/tasks/" + task.ID.String()

	rr := f.do(http.MethodGet, path+"/status", alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, TaskStatusResponse{TaskID: task.ID, Status: domain.StatusNoDueDate}, decodeJSON[TaskStatusResponse](t, rr))

	rr = f.do(http.MethodPut, path, alice,
		`{"title":"Buy oat milk","duration_minutes":20,"priority":"MEDIA","due_at":"2026-03-11T09:00:00Z"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeJSON[TaskResponse](t, rr)
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.Equal(t, 20, updated.DurationMinutes)
	assert.Equal(t, domain.StatusInProgress, updated.Status)

	rr = f.do(http.MethodPatch, path+"/complete", alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	completed := decodeJSON[TaskResponse](t, rr)
	assert.True(t, completed.Completed)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, fixtureNow, *completed.CompletedAt)
	require.NotNil(t, completed.CompletedByID)
	assert.Equal(t, alice, *completed.CompletedByID)
	assert.Equal(t, domain.StatusCompleted, completed.Status)

	rr = f.do(http.MethodDelete, path, alice, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = f.do(http.MethodDelete, path, alice, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTaskHandler_List(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")
	bob := f.registerUser("Bob", "bob@example.com")

	rr := f.do(http.MethodPost, "/api/categories", alice, `{"name":"Errands"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	errands := decodeJSON[CategoryResponse](t, rr)

	milk := f.createTask(alice, `{"title":"Buy milk","duration_minutes":15,"priority":"ALTA","category_id":"`+
		errands.ID.String()+`"}`)
	report := f.createTask(alice, `{"title":"Write report","duration_minutes":90,"priority":"IMPRESCINDIBLE",
		"due_at":"2026-03-12T09:00:00Z","description":"quarterly follow up"}`)
	call := f.createTask(alice, `{"title":"Call plumber","duration_minutes":5,"priority":"BAJA"}`)
	f.createTask(bob, `{"title":"Bob milk run","duration_minutes":10,"priority":"ALTA"}`)

	ids := func(tasks []TaskResponse) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}

	// All tasks share a creation time, so only sorted queries have a
	// defined order.
	tests := []struct {
		name     string
		query    string
		expected []uuid.UUID
		ordered  bool
	}{
		{"no filters", "", []uuid.UUID{milk.ID, report.ID, call.ID}, false},
		{"by priority", "?priority=ALTA", []uuid.UUID{milk.ID}, false},
		{"by max duration", "?max_duration=15", []uuid.UUID{milk.ID, call.ID}, false},
		{"hyphenated keyword", "?q=FOLLOW-UP", []uuid.UUID{report.ID}, false},
		{"by category", "?category_id=" + errands.ID.String(), []uuid.UUID{milk.ID}, false},
		{"by status", "?status=EN_CURSO", []uuid.UUID{report.ID}, false},
		{"sorted by duration", "?sort=duration", []uuid.UUID{call.ID, milk.ID, report.ID}, true},
		{"sorted by title", "?sort=title", []uuid.UUID{milk.ID, call.ID, report.ID}, true},
		{"combined filters", "?max_duration=20&priority=BAJA", []uuid.UUID{call.ID}, false},
		{"nothing matches", "?q=nothing", []uuid.UUID{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodGet, "/api/tasks"+tt.query, alice, "")
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			got := ids(decodeJSON[[]TaskResponse](t, rr))
			if tt.ordered {
				assert.Equal(t, tt.expected, got)
			} else {
				assert.ElementsMatch(t, tt.expected, got)
			}
		})
	}
}

func TestTaskHandler_ListRejectsBadQuery(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")

	tests := []struct {
		query         string
		expectedError string
	}{
		{"?sort=owner", "Invalid sort: must be one of title, duration, priority, due_date"},
		{"?priority=urgente", "Invalid priority: must be one of BAJA, MEDIA, ALTA, IMPRESCINDIBLE"},
		{"?max_duration=abc", "Invalid max_duration: must be a positive integer"},
		{"?max_duration=0", "Invalid max_duration: must be a positive integer"},
		{"?category_id=42", "Invalid category_id: has invalid format"},
		{"?status=DONE", "Invalid status: is not a known status"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := f.do(http.MethodGet, "/api/tasks"+tt.query, alice, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.expectedError, errorMessage(t, rr))
		})
	}
}

func TestTaskHandler_DueToday(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")

	later := f.createTask(alice, `{"title":"Dentist","duration_minutes":60,"priority":"ALTA","due_at":"2026-03-10T23:59:00Z"}`)
	soon := f.createTask(alice, `{"title":"Standup","duration_minutes":15,"priority":"MEDIA","due_at":"2026-03-10T10:00:00Z"}`)
	f.createTask(alice, `{"title":"Tomorrow","duration_minutes":15,"priority":"MEDIA","due_at":"2026-03-11T00:00:00Z"}`)
	f.createTask(alice, `{"title":"Someday","duration_minutes":15,"priority":"BAJA"}`)

	rr := f.do(http.MethodGet, "/api/tasks/today", alice, "")
	require.Equal(t, http.StatusOK, rr.Code)

	tasks := decodeJSON[[]TaskResponse](t, rr)
	require.Len(t, tasks, 2)
	assert.Equal(t, soon.ID, tasks[0].ID)
	assert.Equal(t, later.ID, tasks[1].ID)
}

// laterClockTaskService reports a clock an hour ahead of the wrapped
// service's own clock.
type laterClockTaskService struct {
	service.TaskService
}

func (laterClockTaskService) Now() time.Time { return fixtureNow.Add(time.Hour) }

func TestTaskHandler_ListRendersStatusAtFilterInstant(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")
	soon := f.createTask(alice, `{"title":"Pay rent","duration_minutes":5,"priority":"ALTA",
		"due_at":"2026-03-10T09:30:00Z"}`)
	assert.Equal(t, "EN_CURSO", string(soon.Status))

	f.router = f.buildRouter(NewTaskHandler(laterClockTaskService{f.tasks}), NewCategoryHandler(f.categories))

	for _, st := range []string{"EN_CURSO", "VENCIDA"} {
		rr := f.do(http.MethodGet, "/api/tasks?status="+st, alice, "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		for _, task := range decodeJSON[[]TaskResponse](t, rr) {
			assert.Equal(t, st, string(task.Status))
		}
	}

	rr := f.do(http.MethodGet, "/api/tasks?status=VENCIDA", alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	overdue := decodeJSON[[]TaskResponse](t, rr)
	require.Len(t, overdue, 1)
	assert.Equal(t, soon.ID, overdue[0].ID)
}

// failingTaskService fails every list operation.
type failingTaskService struct {
	service.TaskService
}

func (failingTaskService) List(context.Context, uuid.UUID, service.TaskFilter) ([]*domain.Task, error) {
	return nil, errors.New("connection to postgres://tareas:hunter22@db:5432 lost")
}

func (failingTaskService) Now() time.Time { return fixtureNow }

func TestTaskHandler_ServiceFailure(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")
	f.router = f.buildRouter(NewTaskHandler(failingTaskService{}), NewCategoryHandler(f.categories))

	rr := f.do(http.MethodGet, "/api/tasks", alice, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to list tasks", errorMessage(t, rr))
	assert.NotContains(t, rr.Body.String(), "hunter22")
}

func TestCategoryHandler_Lifecycle(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.registerUser("Alice", "alice@example.com")
	bob := f.registerUser("Bob", "bob@example.com")

	rr := f.do(http.MethodGet, "/api/categories", alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	base := decodeJSON[[]CategoryResponse](t, rr)
	require.Len(t, base, len(domain.BaseCategories()))
	for _, c := range base {
		assert.True(t, c.Protected)
		assert.False(t, c.Shared)
	}

	rr = f.do(http.MethodPost, "/api/categories", alice, `{"name":"Garden","color":"#22AA44","icon":"leaf"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	garden := decodeJSON[CategoryResponse](t, rr)
	assert.Equal(t, "Garden", garden.Name)
	assert.False(t, garden.Protected)
	require.NotNil(t, garden.OwnerID)
	assert.Equal(t, alice, *garden.OwnerID)

	rr = f.do(http.MethodPost, "/api/categories", alice, `{"name":"Garden"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Category name already exists", errorMessage(t, rr))

	rr = f.do(http.MethodPost, "/api/categories", alice, `{"name":"Bad color","color":"green"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid color: invalid color", errorMessage(t, rr))

	rr = f.do(http.MethodGet, "/api/categories?name=gard", alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	found := decodeJSON[[]CategoryResponse](t, rr)
	require.Len(t, found, 1)
	assert.Equal(t, garden.ID, found[0].ID)

	path := "/api/categories/" + garden.ID.String()

	rr = f.do(http.MethodGet, path, bob, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(http.MethodPut, path, alice, `{"name":"Backyard","color":"#22AA44"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Backyard", decodeJSON[CategoryResponse](t, rr).Name)

	rr = f.do(http.MethodPut, path, bob, `{"name":"Stolen"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(http.MethodPut, "/api/categories/"+base[0].ID.String(), alice, `{"name":"Renamed"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Protected categories cannot be modified", errorMessage(t, rr))

	rr = f.do(http.MethodDelete, "/api/categories/"+base[0].ID.String(), alice, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Deleting a category keeps its tasks and clears their reference.
	task := f.createTask(alice, `{"title":"Mow lawn","duration_minutes":45,"priority":"MEDIA","category_id":"`+
		garden.ID.String()+`"}`)

	rr = f.do(http.MethodDelete, path, alice, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(http.MethodGet, path, alice, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(http.MethodGet, "/api/tasks/"+task.ID.String(), alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decodeJSON[TaskResponse](t, rr).CategoryID)
}

func TestParseTaskFilter(t *testing.T) {
	categoryID := uuid.New()

	f, err := parseTaskFilter(map[string][]string{
		"sort":         {"priority"},
		"priority":     {"MEDIA"},
		"max_duration": {"30"},
		"q":            {"milk"},
		"category_id":  {categoryID.String()},
		"status":       {"VENCIDA"},
	})
	require.NoError(t, err)

	assert.Equal(t, store.SortByPriority, f.SortBy)
	require.NotNil(t, f.Priority)
	assert.Equal(t, domain.PriorityMedium, *f.Priority)
	require.NotNil(t, f.MaxDuration)
	assert.Equal(t, 30, *f.MaxDuration)
	assert.Equal(t, "milk", f.Keyword)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, categoryID, *f.CategoryID)
	require.NotNil(t, f.Status)
	assert.Equal(t, domain.StatusOverdue, *f.Status)

	empty, err := parseTaskFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, service.TaskFilter{}, empty)
}
