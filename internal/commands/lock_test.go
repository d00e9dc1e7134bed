package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLockCmd_HasExpectedSubcommands(t *testing.T) {
	cmd := NewLockCmd()
	require.Equal(t, "lock", cmd.Use)

	for _, name := range []string{"claim", "release", "list"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		require.NotNil(t, sub)
		require.Equal(t, name, sub.Name())
	}
}

func TestLockClaimCmd_RequiresResourceBeforeStore(t *testing.T) {
	cmd := newLockClaimCmd()
	t.Setenv("RELAY_PROJECT", "proj-a")
	t.Setenv("RELAY_AGENT", "agent-1")

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestLockReleaseCmd_RequiresResourceBeforeStore(t *testing.T) {
	cmd := newLockReleaseCmd()
	t.Setenv("RELAY_PROJECT", "proj-a")
	t.Setenv("RELAY_AGENT", "agent-1")

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestLockClaimCmd_RequiresAgent(t *testing.T) {
	cmd := newLockClaimCmd()
	t.Setenv("RELAY_PROJECT", "proj-a")
	t.Setenv("RELAY_AGENT", "")
	require.NoError(t, cmd.Flags().Set("resource", "src/auth/"))

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}
