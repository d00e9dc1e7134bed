package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveSessionID_FlagBeatsEnv(t *testing.T) {
	cmd := newSessionLogCmd()
	t.Setenv("RELAY_SESSION_ID", "env-session")
	require.Equal(t, "env-session", resolveSessionID(cmd))

	require.NoError(t, cmd.Flags().Set("session", "flag-session"))
	require.Equal(t, "flag-session", resolveSessionID(cmd))
}

func TestNewSessionCmd_HasExpectedSubcommands(t *testing.T) {
	cmd := NewSessionCmd()
	require.Equal(t, "session", cmd.Use)

	for _, name := range []string{"new", "log", "history"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		require.NotNil(t, sub)
		require.Equal(t, name, sub.Name())
	}
}

func TestSessionLogCmd_ValidatesTypeBeforeStore(t *testing.T) {
	t.Run("missing type", func(t *testing.T) {
		cmd := newSessionLogCmd()
		t.Setenv("RELAY_PROJECT", "proj-a")

		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		require.IsType(t, printedError{}, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		cmd := newSessionLogCmd()
		t.Setenv("RELAY_PROJECT", "proj-a")
		require.NoError(t, cmd.Flags().Set("type", "made_up"))

		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		require.IsType(t, printedError{}, err)
	})
}

func TestSessionHistoryCmd_RequiresSessionBeforeStore(t *testing.T) {
	cmd := newSessionHistoryCmd()
	t.Setenv("RELAY_PROJECT", "proj-a")
	t.Setenv("RELAY_SESSION_ID", "")

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestSessionNewCmd_PrintsFreshID(t *testing.T) {
	cmd := newSessionNewCmd()
	out := captureCommandStdout(t, func() {
		require.NoError(t, cmd.RunE(cmd, nil))
	})
	require.Contains(t, out, `"session_id"`)
	require.Contains(t, out, `"success":true`)
}
