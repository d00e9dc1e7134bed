package commands

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newBackendTestCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("backend", "", "")
	return cmd
}

func TestResolveBackend_DefaultsToSQLite(t *testing.T) {
	cmd := newBackendTestCmd(t)
	t.Setenv("RELAY_BACKEND", "")

	got, err := resolveBackend(cmd)
	require.NoError(t, err)
	require.Equal(t, "sqlite", got)
}

func TestResolveBackend_FlagBeatsEnv(t *testing.T) {
	cmd := newBackendTestCmd(t)
	t.Setenv("RELAY_BACKEND", "sqlite")
	require.NoError(t, cmd.Flags().Set("backend", "board"))

	got, err := resolveBackend(cmd)
	require.NoError(t, err)
	require.Equal(t, "board", got)
}

func TestResolveBackend_EnvFallback(t *testing.T) {
	cmd := newBackendTestCmd(t)
	t.Setenv("RELAY_BACKEND", "board")

	got, err := resolveBackend(cmd)
	require.NoError(t, err)
	require.Equal(t, "board", got)
}

func TestResolveBackend_RejectsUnknown(t *testing.T) {
	cmd := newBackendTestCmd(t)
	require.NoError(t, cmd.Flags().Set("backend", "postgres"))

	_, err := resolveBackend(cmd)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown backend")
}

func TestCmdErr_WrapsAndHidesOriginal(t *testing.T) {
	orig := errors.New("boom")
	err := cmdErr(orig)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
	require.EqualError(t, err, "error already printed")
}

func TestCmdErr_NilPassesThrough(t *testing.T) {
	require.NoError(t, cmdErr(nil))
}
