package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := NewUser("  Ana  ", "  Ana.Perez@Example.COM ")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana.perez@example.com", user.Email)
	assert.True(t, user.Active)
	assert.False(t, user.Verified)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = NewUser("Ana", "")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, err = NewUser("Ana", "invalidemail")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewUser("Ana", "ana@localhost")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewUser("Al", "al@example.com")
	assert.ErrorIs(t, err, ErrUserNameLength)
}

func TestUserValidate(t *testing.T) {
	t.Parallel()

	user := User{
		ID:             uuid.New(),
		Name:           "Ana",
		Email:          "ana@example.com",
		HashedPassword: "$2a$10$hash",
	}
	assert.NoError(t, user.Validate())

	noHash := user
	noHash.HashedPassword = ""
	assert.ErrorIs(t, noHash.Validate(), ErrEmptyHashedPassword)

	noID := user
	noID.ID = uuid.Nil
	assert.ErrorIs(t, noID.Validate(), ErrEmptyUserID)
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		password string
		wantErr  error
	}{
		{password: "Secret123"},
		{password: "", wantErr: ErrEmptyPassword},
		{password: "Sec123", wantErr: ErrPasswordTooShort},
		{password: "S1" + strings.Repeat("a", 71), wantErr: ErrPasswordTooLong},
		{password: "secret123", wantErr: ErrPasswordTooWeak},
		{password: "SECRET123", wantErr: ErrPasswordTooWeak},
		{password: "SecretSecret", wantErr: ErrPasswordTooWeak},
	}

	for _, tc := range tests {
		err := ValidatePassword(tc.password)
		if tc.wantErr == nil {
			assert.NoError(t, err, tc.password)
			continue
		}
		assert.ErrorIs(t, err, tc.wantErr, tc.password)
		assert.ErrorIs(t, err, ErrValidation, tc.password)
	}
}

func TestCategory(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	category, err := NewCategory(owner, " Gym ", "#AABBCC", "🏋")
	require.NoError(t, err)
	assert.Equal(t, "Gym", category.Name)
	assert.True(t, category.IsOwnedBy(owner))
	assert.False(t, category.IsOwnedBy(uuid.New()))
	assert.False(t, category.IsShared())
	assert.False(t, category.Protected)

	_, err = NewCategory(owner, "ab", "", "")
	assert.ErrorIs(t, err, ErrCategoryNameLength)

	_, err = NewCategory(owner, "Gym", "red", "")
	assert.ErrorIs(t, err, ErrCategoryColorInvalid)

	_, err = NewCategory(owner, "Gym", "", strings.Repeat("x", 33))
	assert.ErrorIs(t, err, ErrCategoryIconTooLong)

	shared := Category{ID: uuid.New(), Name: "Doméstico"}
	assert.True(t, shared.IsShared())
	assert.False(t, shared.IsOwnedBy(owner))

	base := BaseCategories()
	require.Len(t, base, 3)
	for _, b := range base {
		c := Category{ID: uuid.New(), Name: b.Name, Color: b.Color, Icon: b.Icon}
		assert.NoError(t, c.Validate(), b.Name)
	}
}
