package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/phrazzld/tareas-api/internal/store"
)

// PostgresTaskStore implements store.TaskStore.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a PostgresTaskStore on a database connection
// or transaction.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

type taskRow struct {
	ID              uuid.UUID     `db:"id"`
	OwnerID         uuid.UUID     `db:"owner_id"`
	Title           string        `db:"title"`
	DurationMinutes int           `db:"duration_minutes"`
	Priority        string        `db:"priority"`
	CreatedAt       time.Time     `db:"created_at"`
	DueAt           sql.NullTime  `db:"due_at"`
	Description     string        `db:"description"`
	CategoryID      uuid.NullUUID `db:"category_id"`
	Completed       bool          `db:"completed"`
	CompletedAt     sql.NullTime  `db:"completed_at"`
	CompletedByID   uuid.NullUUID `db:"completed_by_id"`
}

func (r taskRow) toDomain() *domain.Task {
	t := &domain.Task{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Title:           r.Title,
		DurationMinutes: r.DurationMinutes,
		Priority:        domain.Priority(r.Priority),
		CreatedAt:       r.CreatedAt,
		Description:     r.Description,
		Completed:       r.Completed,
	}
	if r.DueAt.Valid {
		due := r.DueAt.Time
		t.DueAt = &due
	}
	if r.CategoryID.Valid {
		id := r.CategoryID.UUID
		t.CategoryID = &id
	}
	if r.CompletedAt.Valid {
		at := r.CompletedAt.Time
		t.CompletedAt = &at
	}
	if r.CompletedByID.Valid {
		id := r.CompletedByID.UUID
		t.CompletedByID = &id
	}
	return t
}

const taskColumns = `id, owner_id, title, duration_minutes, priority, created_at, due_at,
	description, category_id, completed, completed_at, completed_by_id`

// Create implements store.TaskStore.Create.
// Returns store.ErrInvalidEntity if the owner or category does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		task.ID,
		task.OwnerID,
		task.Title,
		task.DurationMinutes,
		string(task.Priority),
		dbTime(task.CreatedAt),
		nullableTime(task.DueAt),
		task.Description,
		nullableUUID(task.CategoryID),
		task.Completed,
		nullableTime(task.CompletedAt),
		nullableUUID(task.CompletedByID),
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("owner_id", task.OwnerID.String()))
		return store.NewStoreError("task", "create", "failed to insert task", MapError(err))
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var row taskRow
	err := sqlx.GetContext(ctx, s.db, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "get", "failed to load task", MapError(err))
	}
	return row.toDomain(), nil
}

// Update implements store.TaskStore.Update. The owner and creation time
// are never changed.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1,
			duration_minutes = $2,
			priority = $3,
			due_at = $4,
			description = $5,
			category_id = $6,
			completed = $7,
			completed_at = $8,
			completed_by_id = $9
		WHERE id = $10
	`,
		task.Title,
		task.DurationMinutes,
		string(task.Priority),
		nullableTime(task.DueAt),
		task.Description,
		nullableUUID(task.CategoryID),
		task.Completed,
		nullableTime(task.CompletedAt),
		nullableUUID(task.CompletedByID),
		task.ID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "update", "failed to update task", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return store.NewStoreError("task", "delete", "failed to delete task", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// DetachCategory implements store.TaskStore.DetachCategory.
func (s *PostgresTaskStore) DetachCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE tasks SET category_id = NULL WHERE category_id = $1`, categoryID)
	if err != nil {
		return 0, store.NewStoreError("task", "detach", "failed to detach category", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Find implements store.TaskStore.Find.
func (s *PostgresTaskStore) Find(ctx context.Context, ownerID uuid.UUID, q store.TaskQuery) ([]*domain.Task, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", store.ErrInvalidEntity)
	}

	query, args := buildFindQuery(ownerID, q)

	var rows []taskRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, store.NewStoreError("task", "find", "failed to query tasks", MapError(err))
	}

	tasks := make([]*domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks, nil
}

// buildFindQuery renders q as a parameterized SELECT. Only placeholders
// carry caller-supplied values; the ORDER BY comes from a fixed table.
func buildFindQuery(ownerID uuid.UUID, q store.TaskQuery) (string, []any) {
	args := []any{ownerID}
	conds := []string{"owner_id = $1"}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.Priority != nil {
		add("priority = $%d", string(*q.Priority))
	}
	if q.MaxDuration != nil {
		add("duration_minutes <= $%d", *q.MaxDuration)
	}
	if q.CategoryID != nil {
		add("category_id = $%d", *q.CategoryID)
	}
	if q.Keyword != "" {
		args = append(args, containsPattern(q.Keyword))
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, n, n))
	}
	if q.DueFrom != nil {
		add("due_at >= $%d", q.DueFrom.UTC())
	}
	if q.DueBefore != nil {
		add("due_at < $%d", q.DueBefore.UTC())
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY ` + orderBy(q.SortBy)
	return query, args
}

// priorityRankSQL mirrors domain.Priority.Rank.
var priorityRankSQL = func() string {
	var b strings.Builder
	b.WriteString("CASE priority")
	for _, p := range domain.Priorities() {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, p.Rank())
	}
	b.WriteString(" ELSE 0 END")
	return b.String()
}()

func orderBy(by store.SortField) string {
	const tiebreak = "created_at, id"
	switch by {
	case store.SortByTitle:
		return "lower(title), " + tiebreak
	case store.SortByDuration:
		return "duration_minutes, " + tiebreak
	case store.SortByPriority:
		return priorityRankSQL + ", " + tiebreak
	case store.SortByDueDate:
		return "due_at NULLS LAST, " + tiebreak
	default:
		return tiebreak
	}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dbTime(*t), Valid: true}
}

// dbTime converts t to the microsecond precision PostgreSQL stores.
// Truncating instead of letting the server round keeps ordering between
// timestamps of the same row.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
