package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestNewTaskCmd_HasExpectedSubcommands(t *testing.T) {
	cmd := NewTaskCmd()
	require.Equal(t, "task", cmd.Use)

	for _, name := range []string{"create", "claim", "complete", "cancel", "list"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		require.NotNil(t, sub)
		require.Equal(t, name, sub.Name())
	}
}

func TestTaskCreateCmd_RequiresProjectBeforeStore(t *testing.T) {
	cmd := newTaskCreateCmd()
	t.Setenv("RELAY_PROJECT", "")
	require.NoError(t, cmd.Flags().Set("title", "Do the thing"))

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestTaskCreateCmd_RequiresTitleWhenProjectPresent(t *testing.T) {
	cmd := newTaskCreateCmd()
	t.Setenv("RELAY_PROJECT", "proj-a")

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.EqualError(t, err, "error already printed")
	require.IsType(t, printedError{}, err)
}

func TestTaskClaimCmd_RequiresIDAndAgent(t *testing.T) {
	t.Run("missing agent", func(t *testing.T) {
		cmd := newTaskClaimCmd()
		t.Setenv("RELAY_PROJECT", "proj-a")
		t.Setenv("RELAY_AGENT", "")
		require.NoError(t, cmd.Flags().Set("id", "task-1"))

		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		require.IsType(t, printedError{}, err)
	})

	t.Run("missing id", func(t *testing.T) {
		cmd := newTaskClaimCmd()
		t.Setenv("RELAY_PROJECT", "proj-a")
		t.Setenv("RELAY_AGENT", "agent-1")

		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		require.IsType(t, printedError{}, err)
	})
}

func TestTaskCompleteCmd_RequiresIDBeforeStore(t *testing.T) {
	cmd := newTaskCompleteCmd()
	t.Setenv("RELAY_PROJECT", "proj-a")

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestTaskCancelCmd_RequiresIDBeforeStore(t *testing.T) {
	cmd := newTaskCancelCmd()
	t.Setenv("RELAY_PROJECT", "proj-a")

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestTaskCreateCmd_DefinesFlags(t *testing.T) {
	cmd := newTaskCreateCmd()
	requireFlagExists(t, cmd, "title")
	requireFlagExists(t, cmd, "desc")
}

func TestTaskListCmd_DefinesStatusFilter(t *testing.T) {
	cmd := newTaskListCmd()
	requireFlagExists(t, cmd, "status")
}

func requireFlagExists(t *testing.T, cmd *cobra.Command, name string) {
	t.Helper()
	f := cmd.Flags().Lookup(name)
	require.NotNil(t, f)
}
