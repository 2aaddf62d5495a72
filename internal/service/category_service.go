package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/phrazzld/tareas-api/internal/store"
)

// CategoryInput carries the client-controlled fields of a category.
type CategoryInput struct {
	Name  string
	Color string
	Icon  string
}

// CategoryService provides ownership-scoped category operations.
type CategoryService interface {
	Create(ctx context.Context, callerID uuid.UUID, in CategoryInput) (*domain.Category, error)
	GetByID(ctx context.Context, callerID, categoryID uuid.UUID) (*domain.Category, error)
	Update(ctx context.Context, callerID, categoryID uuid.UUID, in CategoryInput) (*domain.Category, error)
	// Delete detaches every task that references the category and removes
	// it, atomically.
	Delete(ctx context.Context, callerID, categoryID uuid.UUID) error
	// List returns the caller's categories together with the shared ones.
	List(ctx context.Context, callerID uuid.UUID) ([]*domain.Category, error)
	SearchByName(ctx context.Context, callerID uuid.UUID, partial string) ([]*domain.Category, error)
}

type categoryServiceImpl struct {
	stores   store.Stores
	tx       store.Transactor
	logger   *slog.Logger
	timeFunc func() time.Time
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(
	stores store.Stores,
	tx store.Transactor,
	logger *slog.Logger,
	opts ...Option,
) (CategoryService, error) {
	if stores.Categories == nil {
		return nil, domain.NewValidationError("stores.Categories", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := applyOptions(opts)
	return &categoryServiceImpl{
		stores:   stores,
		tx:       tx,
		logger:   logger.With(slog.String("component", "category_service")),
		timeFunc: o.timeFunc,
	}, nil
}

// Create implements CategoryService.Create.
func (s *categoryServiceImpl) Create(
	ctx context.Context,
	callerID uuid.UUID,
	in CategoryInput,
) (*domain.Category, error) {
	owner := callerID
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		Color:     in.Color,
		Icon:      in.Icon,
		OwnerID:   &owner,
		CreatedAt: s.timeFunc(),
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.stores.Categories.ExistsByName(ctx, callerID, category.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return nil, store.ErrCategoryExists
	}

	if err := s.stores.Categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("category created",
		slog.String("category_id", category.ID.String()),
		slog.String("owner_id", callerID.String()))
	return category, nil
}

// GetByID implements CategoryService.GetByID. Shared base categories are
// readable by everyone.
func (s *categoryServiceImpl) GetByID(ctx context.Context, callerID, categoryID uuid.UUID) (*domain.Category, error) {
	category, err := s.stores.Categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if !category.IsShared() && !category.IsOwnedBy(callerID) {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotOwned)
	}
	return category, nil
}

// Update implements CategoryService.Update.
func (s *categoryServiceImpl) Update(
	ctx context.Context,
	callerID, categoryID uuid.UUID,
	in CategoryInput,
) (*domain.Category, error) {
	category, err := s.getMutable(ctx, s.stores.Categories, callerID, categoryID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if !strings.EqualFold(name, category.Name) {
		exists, err := s.stores.Categories.ExistsByName(ctx, callerID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check category name: %w", err)
		}
		if exists {
			return nil, store.ErrCategoryExists
		}
	}

	category.Name = name
	category.Color = in.Color
	category.Icon = in.Icon
	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.stores.Categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// Delete implements CategoryService.Delete.
func (s *categoryServiceImpl) Delete(ctx context.Context, callerID, categoryID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	return s.tx.InTx(ctx, func(ctx context.Context, txs store.Stores) error {
		if _, err := s.getMutable(ctx, txs.Categories, callerID, categoryID); err != nil {
			return err
		}

		detached, err := txs.Tasks.DetachCategory(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("failed to detach tasks from category: %w", err)
		}

		if err := txs.Categories.Delete(ctx, categoryID); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}

		log.Info("category deleted",
			slog.String("category_id", categoryID.String()),
			slog.Int64("detached_tasks", detached))
		return nil
	})
}

// List implements CategoryService.List.
func (s *categoryServiceImpl) List(ctx context.Context, callerID uuid.UUID) ([]*domain.Category, error) {
	categories, err := s.stores.Categories.ListVisible(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// SearchByName implements CategoryService.SearchByName.
func (s *categoryServiceImpl) SearchByName(
	ctx context.Context,
	callerID uuid.UUID,
	partial string,
) ([]*domain.Category, error) {
	categories, err := s.stores.Categories.SearchByName(ctx, callerID, strings.TrimSpace(partial))
	if err != nil {
		return nil, fmt.Errorf("failed to search categories: %w", err)
	}
	return categories, nil
}

// getMutable loads a category the caller may change: it must exist, be
// owned by the caller (shared categories belong to nobody) and not be
// protected.
func (s *categoryServiceImpl) getMutable(
	ctx context.Context,
	categories store.CategoryStore,
	callerID, categoryID uuid.UUID,
) (*domain.Category, error) {
	category, err := categories.GetByID(ctx, categoryID)
	if err != nil {
		if !errors.Is(err, store.ErrCategoryNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load category",
				slog.String("error", err.Error()),
				slog.String("category_id", categoryID.String()))
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if !category.IsOwnedBy(callerID) {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotOwned)
	}

	if category.Protected {
		return nil, fmt.Errorf("category %q: %w", category.Name, ErrProtectedCategory)
	}

	return category, nil
}

// createBaseCategories gives ownerID the protected base categories it does
// not have yet.
func createBaseCategories(
	ctx context.Context,
	categories store.CategoryStore,
	ownerID uuid.UUID,
	now time.Time,
) error {
	for _, base := range domain.BaseCategories() {
		exists, err := categories.ExistsByName(ctx, ownerID, base.Name)
		if err != nil {
			return fmt.Errorf("failed to check base category %q: %w", base.Name, err)
		}
		if exists {
			continue
		}

		owner := ownerID
		category := &domain.Category{
			ID:        uuid.New(),
			Name:      base.Name,
			Color:     base.Color,
			Icon:      base.Icon,
			Protected: true,
			OwnerID:   &owner,
			CreatedAt: now,
		}
		if err := categories.Create(ctx, category); err != nil {
			return fmt.Errorf("failed to create base category %q: %w", base.Name, err)
		}
	}
	return nil
}
