package store

import (
	"errors"
	"fmt"
)

// Base errors. Entity-specific variants wrap one of these so callers can
// match either level with errors.Is.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicate         = errors.New("entity already exists")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrUpdateFailed      = errors.New("update failed")
	ErrDeleteFailed      = errors.New("delete failed")
	ErrTransactionFailed = errors.New("transaction failed")
)

var (
	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category", ErrNotFound)
	ErrTaskNotFound     = fmt.Errorf("%w: task", ErrNotFound)

	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
	// ErrCategoryExists: the owner already has a category with that name,
	// compared case-insensitively.
	ErrCategoryExists = fmt.Errorf("%w: category name", ErrDuplicate)
)

func IsNotFoundError(err error) bool { return errors.Is(err, ErrNotFound) }

func IsDuplicateError(err error) bool { return errors.Is(err, ErrDuplicate) }

// StoreError records which entity and operation failed around the
// underlying cause.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Operation, e.Entity, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
