package coord

import (
	"errors"
	"fmt"

	"github.com/dotcommander/relay/internal/models"
)

// Sentinel errors for logical conflicts, shared by every backend so callers
// branch the same way regardless of storage. These are expected outcomes,
// not faults.
var (
	ErrResourceHeld   = errors.New("resource already claimed by another agent")
	ErrTaskNotPending = errors.New("task is not pending")
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskTerminal   = errors.New("task is already in a terminal state")
)

// ResourceHeldError enriches ErrResourceHeld with structured context.
type ResourceHeldError struct {
	Resource    string
	ProjectID   string
	HeldBy      string
	RequestedBy string
}

func (e *ResourceHeldError) Error() string {
	return fmt.Sprintf("resource %q already claimed by %s", e.Resource, e.HeldBy)
}
func (e *ResourceHeldError) ErrorCode() string { return "RESOURCE_HELD" }
func (e *ResourceHeldError) Context() map[string]string {
	return map[string]string{
		"resource":     e.Resource,
		"project_id":   e.ProjectID,
		"held_by":      e.HeldBy,
		"requested_by": e.RequestedBy,
	}
}
func (e *ResourceHeldError) SuggestedAction() string {
	return fmt.Sprintf("wait for %s to release %q, or coordinate via a message", e.HeldBy, e.Resource)
}

func (e *ResourceHeldError) SlogAttrs() []any {
	return []any{
		"resource", e.Resource,
		"project_id", e.ProjectID,
		"held_by", e.HeldBy,
		"requested_by", e.RequestedBy,
	}
}

func (e *ResourceHeldError) Is(target error) bool { return target == ErrResourceHeld }

// TaskNotPendingError enriches ErrTaskNotPending with structured context.
// Required names the status the transition needed; when zero the claim
// default of pending applies.
type TaskNotPendingError struct {
	TaskID      string
	Status      models.TaskStatus
	Required    models.TaskStatus
	RequestedBy string
}

func (e *TaskNotPendingError) required() models.TaskStatus {
	if e.Required != "" {
		return e.Required
	}
	return models.TaskStatusPending
}

func (e *TaskNotPendingError) Error() string {
	return fmt.Sprintf("task %s is %s, not %s", e.TaskID, e.Status, e.required())
}
func (e *TaskNotPendingError) ErrorCode() string { return "TASK_NOT_PENDING" }
func (e *TaskNotPendingError) Context() map[string]string {
	return map[string]string{
		"task_id":      e.TaskID,
		"status":       string(e.Status),
		"required":     string(e.required()),
		"requested_by": e.RequestedBy,
	}
}
func (e *TaskNotPendingError) SuggestedAction() string {
	if e.required() == models.TaskStatusInProgress {
		return fmt.Sprintf("claim task %s first, then complete it", e.TaskID)
	}
	return "list pending tasks and claim a different one"
}

func (e *TaskNotPendingError) SlogAttrs() []any {
	return []any{
		"task_id", e.TaskID,
		"status", string(e.Status),
		"required", string(e.required()),
		"requested_by", e.RequestedBy,
	}
}

func (e *TaskNotPendingError) Is(target error) bool { return target == ErrTaskNotPending }
