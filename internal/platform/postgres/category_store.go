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

// PostgresCategoryStore implements store.CategoryStore.
type PostgresCategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCategoryStore creates a PostgresCategoryStore on a database
// connection or transaction.
func NewPostgresCategoryStore(db store.DBTX, logger *slog.Logger) *PostgresCategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCategoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "category_store")),
	}
}

var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

type categoryRow struct {
	ID        uuid.UUID     `db:"id"`
	OwnerID   uuid.NullUUID `db:"owner_id"`
	Name      string        `db:"name"`
	Color     string        `db:"color"`
	Icon      string        `db:"icon"`
	Protected bool          `db:"protected"`
	CreatedAt time.Time     `db:"created_at"`
}

func (r categoryRow) toDomain() *domain.Category {
	c := &domain.Category{
		ID:        r.ID,
		Name:      r.Name,
		Color:     r.Color,
		Icon:      r.Icon,
		Protected: r.Protected,
		CreatedAt: r.CreatedAt,
	}
	if r.OwnerID.Valid {
		owner := r.OwnerID.UUID
		c.OwnerID = &owner
	}
	return c
}

const categoryColumns = `id, owner_id, name, color, icon, protected, created_at`

// Create implements store.CategoryStore.Create.
func (s *PostgresCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		category.ID,
		nullableUUID(category.OwnerID),
		category.Name,
		category.Color,
		category.Icon,
		category.Protected,
		dbTime(category.CreatedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return MapUniqueViolation(err, store.ErrCategoryExists)
		}
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return store.NewStoreError("category", "create", "failed to insert category", MapError(err))
	}

	log.Debug("category created", slog.String("category_id", category.ID.String()))
	return nil
}

// GetByID implements store.CategoryStore.GetByID.
func (s *PostgresCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var row categoryRow
	err := sqlx.GetContext(ctx, s.db, &row, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCategoryNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return nil, store.NewStoreError("category", "get", "failed to load category", MapError(err))
	}
	return row.toDomain(), nil
}

// Update implements store.CategoryStore.Update. Only name, color and icon
// are writable.
func (s *PostgresCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $1, color = $2, icon = $3
		WHERE id = $4
	`, category.Name, category.Color, category.Icon, category.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return MapUniqueViolation(err, store.ErrCategoryExists)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return store.NewStoreError("category", "update", "failed to update category", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrCategoryNotFound)
}

// Delete implements store.CategoryStore.Delete. The delete fails while
// tasks still reference the category.
func (s *PostgresCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: category is referenced by tasks: %v", store.ErrDeleteFailed, err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return store.NewStoreError("category", "delete", "failed to delete category", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrCategoryNotFound)
}

// visibleOrder lists owned categories before shared ones of the same name.
const visibleOrder = `ORDER BY lower(name), owner_id IS NULL, id`

// ListVisible implements store.CategoryStore.ListVisible.
func (s *PostgresCategoryStore) ListVisible(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	return s.list(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE owner_id = $1 OR owner_id IS NULL
		`+visibleOrder, ownerID)
}

// SearchByName implements store.CategoryStore.SearchByName with a
// case-insensitive substring match.
func (s *PostgresCategoryStore) SearchByName(
	ctx context.Context,
	ownerID uuid.UUID,
	partial string,
) ([]*domain.Category, error) {
	return s.list(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE (owner_id = $1 OR owner_id IS NULL) AND name ILIKE $2 ESCAPE '\'
		`+visibleOrder, ownerID, containsPattern(partial))
}

// ExistsByName implements store.CategoryStore.ExistsByName.
func (s *PostgresCategoryStore) ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, s.db, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM categories WHERE owner_id = $1 AND lower(name) = lower($2)
		)
	`, ownerID, strings.TrimSpace(name))
	if err != nil {
		return false, store.NewStoreError("category", "exists", "failed to check category name", MapError(err))
	}
	return exists, nil
}

func (s *PostgresCategoryStore) list(ctx context.Context, query string, args ...any) ([]*domain.Category, error) {
	var rows []categoryRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list categories",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("category", "list", "failed to list categories", MapError(err))
	}

	categories := make([]*domain.Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, r.toDomain())
	}
	return categories, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern that matches s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
