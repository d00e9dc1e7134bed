package coord

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/relay/internal/models"
)

func TestResourceHeldError_SlogAttrs(t *testing.T) {
	err := &ResourceHeldError{
		Resource:    "src/auth/",
		ProjectID:   "proj-a",
		HeldBy:      "agent-a",
		RequestedBy: "agent-b",
	}
	attrs := err.SlogAttrs()
	require.Len(t, attrs, 8)
	require.Equal(t, "resource", attrs[0])
	require.Equal(t, "src/auth/", attrs[1])
	require.Equal(t, "held_by", attrs[4])
	require.Equal(t, "agent-a", attrs[5])
}

func TestTaskNotPendingError_SlogAttrs(t *testing.T) {
	err := &TaskNotPendingError{
		TaskID:      "task_1",
		Status:      models.TaskStatusInProgress,
		RequestedBy: "agent-b",
	}
	attrs := err.SlogAttrs()
	require.Len(t, attrs, 8)
	require.Equal(t, "task_id", attrs[0])
	require.Equal(t, "task_1", attrs[1])
	require.Equal(t, "required", attrs[4])
	require.Equal(t, "pending", attrs[5])
}

func TestTaskNotPendingError_Message(t *testing.T) {
	claim := &TaskNotPendingError{TaskID: "task_1", Status: models.TaskStatusInProgress}
	require.EqualError(t, claim, "task task_1 is in_progress, not pending")
	require.True(t, errors.Is(claim, ErrTaskNotPending))

	complete := &TaskNotPendingError{
		TaskID:   "task_1",
		Status:   models.TaskStatusPending,
		Required: models.TaskStatusInProgress,
	}
	require.EqualError(t, complete, "task task_1 is pending, not in_progress")
	require.Equal(t, "in_progress", complete.Context()["required"])
	require.Contains(t, complete.SuggestedAction(), "claim task task_1 first")
}
