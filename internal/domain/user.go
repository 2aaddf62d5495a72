package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// User field limits.
const (
	UserNameMinLength = 3
	UserNameMaxLength = 32
	PasswordMinLength = 8
	PasswordMaxLength = 72 // bcrypt input limit
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrUserNameLength      = errors.New("user name must be between 3 and 32 characters")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrPasswordTooWeak     = errors.New("password must contain an upper-case letter, a lower-case letter and a digit")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User represents a registered account. Users own tasks and categories.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	Active         bool      `json:"active"`
	Verified       bool      `json:"verified"`
}

// NewUser creates an active, unverified user. The email is normalized.
// The caller sets HashedPassword before the user is stored.
func NewUser(name, email string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}

	if err := user.validateProfile(); err != nil {
		return nil, err
	}

	return user, nil
}

// NormalizeEmail trims and lower-cases an email address so that lookups
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the user fields, including the stored password hash.
func (u *User) Validate() error {
	if err := u.validateProfile(); err != nil {
		return err
	}

	if u.HashedPassword == "" {
		return NewValidationError("password", "hash cannot be empty", ErrEmptyHashedPassword)
	}

	return nil
}

func (u *User) validateProfile() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrEmptyUserID)
	}

	nameLen := utf8.RuneCountInString(u.Name)
	if nameLen < UserNameMinLength || nameLen > UserNameMaxLength {
		return NewValidationError("name", "must be between 3 and 32 characters", ErrUserNameLength)
	}

	if u.Email == "" {
		return NewValidationError("email", "cannot be empty", ErrEmptyEmail)
	}

	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email || !strings.Contains(u.Email[strings.LastIndex(u.Email, "@")+1:], ".") {
		return NewValidationError("email", "is not a valid address", ErrInvalidEmail)
	}

	return nil
}

// ValidatePassword checks a plaintext password before hashing: 8 to 72
// bytes with at least one upper-case letter, one lower-case letter and
// one digit.
func ValidatePassword(password string) error {
	if password == "" {
		return NewValidationError("password", "cannot be empty", ErrEmptyPassword)
	}

	if len(password) < PasswordMinLength {
		return NewValidationError("password", "must be at least 8 characters long", ErrPasswordTooShort)
	}

	if len(password) > PasswordMaxLength {
		return NewValidationError("password", "must be at most 72 characters long", ErrPasswordTooLong)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return NewValidationError("password", "must mix upper-case, lower-case and digits", ErrPasswordTooWeak)
	}

	return nil
}
