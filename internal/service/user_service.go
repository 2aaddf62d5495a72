package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/phrazzld/tareas-api/internal/service/auth"
	"github.com/phrazzld/tareas-api/internal/store"
)

// UserService provides registration, login and account operations.
type UserService interface {
	// Register creates a user and their base categories in one transaction.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)

	// Authenticate returns the user matching the credentials or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// DeleteUser deletes a user and, through the store, everything they own.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users    store.UserStore
	tx       store.Transactor
	hasher   auth.PasswordHasher
	logger   *slog.Logger
	timeFunc func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	users store.UserStore,
	tx store.Transactor,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
	opts ...Option,
) (UserService, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := applyOptions(opts)
	return &UserServiceImpl{
		users:    users,
		tx:       tx,
		hasher:   hasher,
		logger:   logger.With("component", "user_service"),
		timeFunc: o.timeFunc,
	}, nil
}

// Register implements UserService.Register.
func (s *UserServiceImpl) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	user, err := domain.NewUser(name, email)
	if err != nil {
		log.Debug("invalid registration data", "error", err)
		return nil, err
	}
	user.CreatedAt = s.timeFunc()

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		return nil, NewServiceError("user", "register", err)
	}
	user.HashedPassword = hashed

	err = s.tx.InTx(ctx, func(ctx context.Context, txs store.Stores) error {
		if err := txs.Users.Create(ctx, user); err != nil {
			return err
		}
		return createBaseCategories(ctx, txs.Categories, user.ID, user.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register an existing email", "email", user.Email)
		} else {
			log.Error("failed to register user", "error", err, "email", user.Email)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate implements UserService.Authenticate.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to load user for login", "error", err)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		log.Debug("login for inactive account", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// DeleteUser deletes a user by their ID
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to delete user",
				"error", err,
				"user_id", userID)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", "user_id", userID)
	return nil
}
