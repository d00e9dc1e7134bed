package store

import (
	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/models"
)

// RecoverableError is an alias for models.RecoverableError, retained so
// callers can reference store.RecoverableError without importing models.
type RecoverableError = models.RecoverableError

// Conflict sentinels are shared across backends; see the coord package.
// Aliased here so store-level code and its callers read naturally.
var (
	ErrResourceHeld   = coord.ErrResourceHeld
	ErrTaskNotPending = coord.ErrTaskNotPending
	ErrTaskNotFound   = coord.ErrTaskNotFound
	ErrTaskTerminal   = coord.ErrTaskTerminal
)

// Structured conflict error types, shared across backends.
type (
	ResourceHeldError   = coord.ResourceHeldError
	TaskNotPendingError = coord.TaskNotPendingError
)
