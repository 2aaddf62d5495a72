//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/platform/postgres"
	"github.com/phrazzld/tareas-api/internal/store"
	"github.com/phrazzld/tareas-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixed ids of the seeded shared categories.
var sharedDomesticoID = uuid.MustParse("7b0c6a52-1d3e-4f0a-9a51-000000000002")

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db := testdb.GetTestDBWithT(t)
	testdb.SetupTestDatabaseSchema(t, db)
	return db
}

func createUser(t *testing.T, ctx context.Context, s store.Stores, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser("Tester", email)
	require.NoError(t, err)
	user.HashedPassword = "$2a$04$hash"
	require.NoError(t, s.Users.Create(ctx, user))
	return user
}

// inSavepoint runs fn in a savepoint that is rolled back afterwards, so a
// failing statement does not abort the enclosing transaction.
func inSavepoint(t *testing.T, tx *sqlx.Tx, fn func() error) error {
	t.Helper()
	tx.MustExec("SAVEPOINT expected_failure")
	err := fn()
	tx.MustExec("ROLLBACK TO SAVEPOINT expected_failure")
	return err
}

func newTask(owner uuid.UUID, title string, minutes int, p domain.Priority, created time.Time) *domain.Task {
	return &domain.Task{
		ID:              uuid.New(),
		OwnerID:         owner,
		Title:           title,
		DurationMinutes: minutes,
		Priority:        p,
		CreatedAt:       created,
	}
}

func TestUserStore_Integration(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		s := postgres.NewStores(tx, nil)
		user := createUser(t, ctx, s, "Alice@Example.com")

		got, err := s.Users.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "alice@example.com", got.Email)

		dup, err := domain.NewUser("Other", "alice@example.com")
		require.NoError(t, err)
		dup.HashedPassword = "x"
		err = inSavepoint(t, tx, func() error { return s.Users.Create(ctx, dup) })
		assert.ErrorIs(t, err, store.ErrEmailExists)

		require.NoError(t, s.Users.Delete(ctx, user.ID))
		_, err = s.Users.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestCategoryStore_Integration(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		s := postgres.NewStores(tx, nil)
		user := createUser(t, ctx, s, "cats@example.com")

		shared, err := s.Categories.GetByID(ctx, sharedDomesticoID)
		require.NoError(t, err)
		assert.True(t, shared.IsShared())
		assert.True(t, shared.Protected)

		garden, err := domain.NewCategory(user.ID, "Garden", "#00AA00", "")
		require.NoError(t, err)
		require.NoError(t, s.Categories.Create(ctx, garden))

		dup, err := domain.NewCategory(user.ID, "GARDEN", "", "")
		require.NoError(t, err)
		err = inSavepoint(t, tx, func() error { return s.Categories.Create(ctx, dup) })
		assert.ErrorIs(t, err, store.ErrCategoryExists)

		exists, err := s.Categories.ExistsByName(ctx, user.ID, "garden")
		require.NoError(t, err)
		assert.True(t, exists)

		found, err := s.Categories.SearchByName(ctx, user.ID, "ard")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, garden.ID, found[0].ID)

		visible, err := s.Categories.ListVisible(ctx, user.ID)
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(visible))
		for _, c := range visible {
			ids = append(ids, c.ID)
		}
		assert.Contains(t, ids, garden.ID)
		assert.Contains(t, ids, sharedDomesticoID)

		task := newTask(user.ID, "Water plants", 15, domain.PriorityLow, time.Now())
		task.CategoryID = &garden.ID
		require.NoError(t, s.Tasks.Create(ctx, task))

		assert.ErrorIs(t, s.Categories.Delete(ctx, garden.ID), store.ErrDeleteFailed)
	})
}

func TestCategoryStore_DetachThenDelete(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		s := postgres.NewStores(tx, nil)
		user := createUser(t, ctx, s, "detach@example.com")

		garden, err := domain.NewCategory(user.ID, "Garden", "", "")
		require.NoError(t, err)
		require.NoError(t, s.Categories.Create(ctx, garden))

		task := newTask(user.ID, "Mow lawn", 40, domain.PriorityMedium, time.Now())
		task.CategoryID = &garden.ID
		require.NoError(t, s.Tasks.Create(ctx, task))

		n, err := s.Tasks.DetachCategory(ctx, garden.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, s.Categories.Delete(ctx, garden.ID))

		got, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID)
	})
}

func TestTaskStore_Integration(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		s := postgres.NewStores(tx, nil)
		owner := createUser(t, ctx, s, "owner@example.com")
		other := createUser(t, ctx, s, "other@example.com")

		due := base.Add(48 * time.Hour)
		milk := newTask(owner.ID, "Buy milk", 10, domain.PriorityHigh, base)
		milk.DueAt = &due
		milk.Description = "semi-skimmed"
		report := newTask(owner.ID, "Write report", 120, domain.PriorityLow, base.Add(time.Minute))
		report.CategoryID = &sharedDomesticoID
		call := newTask(owner.ID, "call_mom 100%", 5, domain.PriorityMedium, base.Add(2*time.Minute))
		foreign := newTask(other.ID, "Buy bread", 10, domain.PriorityHigh, base)

		for _, task := range []*domain.Task{milk, report, call, foreign} {
			require.NoError(t, s.Tasks.Create(ctx, task))
		}

		got, err := s.Tasks.GetByID(ctx, milk.ID)
		require.NoError(t, err)
		assert.Equal(t, "semi-skimmed", got.Description)
		require.NotNil(t, got.DueAt)
		assert.True(t, due.Equal(*got.DueAt))

		ids := func(tasks []*domain.Task) []uuid.UUID {
			out := make([]uuid.UUID, 0, len(tasks))
			for _, task := range tasks {
				out = append(out, task.ID)
			}
			return out
		}
		high := domain.PriorityHigh
		maxDuration := 10
		dueFrom := base.Add(24 * time.Hour)

		tests := []struct {
			name  string
			query store.TaskQuery
			want  []uuid.UUID
		}{
			{"all in creation order", store.TaskQuery{}, []uuid.UUID{milk.ID, report.ID, call.ID}},
			{"priority", store.TaskQuery{Priority: &high}, []uuid.UUID{milk.ID}},
			{"max duration", store.TaskQuery{MaxDuration: &maxDuration}, []uuid.UUID{milk.ID, call.ID}},
			{"keyword in description", store.TaskQuery{Keyword: "SKIMMED"}, []uuid.UUID{milk.ID}},
			{"keyword is literal", store.TaskQuery{Keyword: "_mom 100%"}, []uuid.UUID{call.ID}},
			{"category", store.TaskQuery{CategoryID: &sharedDomesticoID}, []uuid.UUID{report.ID}},
			{"due window", store.TaskQuery{DueFrom: &dueFrom}, []uuid.UUID{milk.ID}},
			{"by title", store.TaskQuery{SortBy: store.SortByTitle}, []uuid.UUID{milk.ID, call.ID, report.ID}},
			{"by duration", store.TaskQuery{SortBy: store.SortByDuration}, []uuid.UUID{call.ID, milk.ID, report.ID}},
			{"by priority", store.TaskQuery{SortBy: store.SortByPriority}, []uuid.UUID{report.ID, call.ID, milk.ID}},
			{"by due date", store.TaskQuery{SortBy: store.SortByDueDate}, []uuid.UUID{milk.ID, report.ID, call.ID}},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				tasks, err := s.Tasks.Find(ctx, owner.ID, tc.query)
				require.NoError(t, err)
				assert.Equal(t, tc.want, ids(tasks))
			})
		}

		completedAt := base.Add(time.Hour)
		milk.Complete(owner.ID, completedAt)
		require.NoError(t, s.Tasks.Update(ctx, milk))
		got, err = s.Tasks.GetByID(ctx, milk.ID)
		require.NoError(t, err)
		assert.True(t, got.Completed)
		require.NotNil(t, got.CompletedByID)
		assert.Equal(t, owner.ID, *got.CompletedByID)

		require.NoError(t, s.Users.Delete(ctx, owner.ID))
		_, err = s.Tasks.GetByID(ctx, milk.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		_, err = s.Tasks.GetByID(ctx, foreign.ID)
		assert.NoError(t, err)
	})
}

func TestTaskStore_UnknownCategory(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		s := postgres.NewStores(tx, nil)
		user := createUser(t, ctx, s, "fk@example.com")

		missing := uuid.New()
		task := newTask(user.ID, "Orphan", 5, domain.PriorityLow, time.Now())
		task.CategoryID = &missing

		assert.ErrorIs(t, s.Tasks.Create(ctx, task), store.ErrInvalidEntity)
	})
}
