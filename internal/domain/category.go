package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Category field limits.
const (
	CategoryNameMinLength = 3
	CategoryNameMaxLength = 32
	CategoryIconMaxLength = 32
)

// Category-specific validation errors.
var (
	ErrCategoryIDEmpty      = errors.New("category ID cannot be empty")
	ErrCategoryNameBlank    = errors.New("category name cannot be blank")
	ErrCategoryNameLength   = errors.New("category name must be between 3 and 32 characters")
	ErrCategoryColorInvalid = errors.New("category color must use the #RRGGBB format")
	ErrCategoryIconTooLong  = errors.New("category icon cannot exceed 32 characters")
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category groups tasks. Protected categories are seeded by the system and
// cannot be renamed or deleted. Shared base categories have no owner.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color,omitempty"`
	Icon      string     `json:"icon,omitempty"`
	Protected bool       `json:"protected"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// BaseCategory describes one of the protected categories every user receives.
type BaseCategory struct {
	Name  string
	Color string
	Icon  string
}

// BaseCategories returns the protected categories seeded for each new user.
func BaseCategories() []BaseCategory {
	return []BaseCategory{
		{Name: "Trabajo/Estudios", Color: "#2563EB", Icon: "💼"},
		{Name: "Doméstico", Color: "#16A34A", Icon: "🏠"},
		{Name: "Ocio/Personal", Color: "#F59E0B", Icon: "🎮"},
	}
}

// NewCategory creates an unprotected category owned by ownerID.
func NewCategory(ownerID uuid.UUID, name, color, icon string) (*Category, error) {
	owner := ownerID
	category := &Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Color:     color,
		Icon:      icon,
		OwnerID:   &owner,
		CreatedAt: time.Now().UTC(),
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// IsOwnedBy reports whether userID owns the category. Shared categories
// are owned by nobody.
func (c *Category) IsOwnedBy(userID uuid.UUID) bool {
	return c.OwnerID != nil && *c.OwnerID == userID
}

// IsShared reports whether the category has no owner.
func (c *Category) IsShared() bool {
	return c.OwnerID == nil
}

// Validate checks the category fields.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrCategoryIDEmpty)
	}

	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "cannot be blank", ErrCategoryNameBlank)
	}

	nameLen := utf8.RuneCountInString(c.Name)
	if nameLen < CategoryNameMinLength || nameLen > CategoryNameMaxLength {
		return NewValidationError("name", "must be between 3 and 32 characters", ErrCategoryNameLength)
	}

	if c.Color != "" && !hexColorPattern.MatchString(c.Color) {
		return NewValidationError("color", "must use the #RRGGBB format", ErrCategoryColorInvalid)
	}

	if utf8.RuneCountInString(c.Icon) > CategoryIconMaxLength {
		return NewValidationError("icon", "cannot exceed 32 characters", ErrCategoryIconTooLong)
	}

	return nil
}
