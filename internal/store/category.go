package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/domain"
)

// CategoryStore defines the interface for category data persistence.
type CategoryStore interface {
	// Create saves a new category.
	// Returns ErrCategoryExists if the owner already has a category with that name.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by ID regardless of owner.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// Update replaces name, color and icon of an existing category.
	// Returns ErrCategoryNotFound or ErrCategoryExists.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category. Tasks must be detached first.
	// Returns ErrCategoryNotFound if the category does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListVisible returns the owner's categories together with the shared
	// ones, ordered by name.
	ListVisible(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error)

	// SearchByName returns the categories visible to the owner whose name
	// contains partial, case-insensitively.
	SearchByName(ctx context.Context, ownerID uuid.UUID, partial string) ([]*domain.Category, error)

	// ExistsByName reports whether the owner has a category with exactly
	// this name, ignoring case.
	ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error)
}
