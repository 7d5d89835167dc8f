package types

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrStorage      = errors.New("storage failure")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports an existing pending request of the same type.
type ConflictError struct {
	VisitorID  int64
	Type       RequestType
	ExistingID int64
}

func (e *ConflictError) Error() string {
	if e.ExistingID == 0 {
		return fmt.Sprintf("conflict: visitor %d already has a pending %s request", e.VisitorID, e.Type)
	}
	return fmt.Sprintf("conflict: visitor %d already has pending %s request %d", e.VisitorID, e.Type, e.ExistingID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError reports an illegal transition, such as checking out twice
// or resolving a request that is no longer pending.
type InvalidStateError struct {
	Entity string
	ID     int64
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in state %s", e.Op, e.Entity, e.ID, e.State)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// StorageError wraps a transaction or connectivity failure. Nothing from the
// failed operation was committed unless the failure happened after commit,
// so callers should re-read state before retrying.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }
