package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDelegateCmd_DefinesFlags(t *testing.T) {
	cmd := NewDelegateCmd()
	require.Equal(t, "delegate", cmd.Use)
	requireFlagExists(t, cmd, "to")
	requireFlagExists(t, cmd, "title")
	requireFlagExists(t, cmd, "desc")
	requireFlagExists(t, cmd, "context")
	require.Equal(t, "true", cmd.Annotations["mutates"])
}

func TestDelegateCmd_ValidationBeforeRegistry(t *testing.T) {
	t.Run("missing project", func(t *testing.T) {
		cmd := NewDelegateCmd()
		t.Setenv("RELAY_PROJECT", "")
		t.Setenv("RELAY_AGENT", "agent-1")

		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		require.IsType(t, printedError{}, err)
	})

	t.Run("missing target", func(t *testing.T) {
		cmd := NewDelegateCmd()
		t.Setenv("RELAY_PROJECT", "proj-a")
		t.Setenv("RELAY_AGENT", "agent-1")
		require.NoError(t, cmd.Flags().Set("title", "Do the thing"))

		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		require.IsType(t, printedError{}, err)
	})

	t.Run("missing title", func(t *testing.T) {
		cmd := NewDelegateCmd()
		t.Setenv("RELAY_PROJECT", "proj-a")
		t.Setenv("RELAY_AGENT", "agent-1")
		require.NoError(t, cmd.Flags().Set("to", "proj-b"))

		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		require.IsType(t, printedError{}, err)
	})
}
