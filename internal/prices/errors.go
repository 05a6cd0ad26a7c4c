package prices

import "errors"

var (
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("component already exists")
	ErrNotFound    = errors.New("component not found")
	ErrPersistence = errors.New("catalog save failed")

	// ErrNoDocument is returned by a Store when nothing has been persisted yet.
	ErrNoDocument = errors.New("no catalog document")
	// ErrCorruptDocument wraps a stored document that is not valid JSON.
	ErrCorruptDocument = errors.New("corrupt catalog document")
)
