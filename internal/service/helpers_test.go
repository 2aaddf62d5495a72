package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/mocks"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/phrazzld/tareas-api/internal/service"
	"github.com/phrazzld/tareas-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const testPassword = "Secret123"

// testClock is a settable clock for deterministic status checks.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	db         *mocks.MemoryDB
	clock      *testClock
	tasks      service.TaskService
	categories service.CategoryService
	users      service.UserService
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()

	db := mocks.NewMemoryDB()
	clock := &testClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	log, _ := logger.GetTestLogger(t)
	opts = append([]service.Option{service.WithTimeFunc(clock.Now)}, opts...)

	tasks, err := service.NewTaskService(db.Stores(), log, opts...)
	require.NoError(t, err)
	categories, err := service.NewCategoryService(db.Stores(), db, log, opts...)
	require.NoError(t, err)
	users, err := service.NewUserService(db.Stores().Users, db, auth.NewBcryptHasher(4), log, opts...)
	require.NoError(t, err)

	return &fixture{db: db, clock: clock, tasks: tasks, categories: categories, users: users}
}

func (f *fixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), "Tester", email, testPassword)
	require.NoError(t, err)
	return u
}

func (f *fixture) sharedCategory(t *testing.T, name string) *domain.Category {
	t.Helper()
	c := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Color:     "#123456",
		Protected: true,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Stores().Categories.Create(context.Background(), c))
	return c
}

func (f *fixture) ownCategory(t *testing.T, owner uuid.UUID, name string) *domain.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), owner, service.CategoryInput{Name: name, Color: "#ABCDEF"})
	require.NoError(t, err)
	return c
}

func timePtr(t time.Time) *time.Time { return &t }

func idPtr(id uuid.UUID) *uuid.UUID { return &id }
