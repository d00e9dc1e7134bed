package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newActorTestCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("agent", "", "")
	cmd.Flags().String("project", "", "")
	cmd.Flags().String("claimed-by", "", "")
	return cmd
}

func TestResolveAgentName_Precedence(t *testing.T) {
	cmd := newActorTestCmd(t)
	t.Setenv("RELAY_AGENT", "env-agent")
	require.NoError(t, cmd.Flags().Set("agent", "global-agent"))
	require.NoError(t, cmd.Flags().Set("claimed-by", "per-cmd-agent"))

	got := resolveAgentName(cmd, "claimed-by")
	require.Equal(t, "per-cmd-agent", got)
}

func TestResolveAgentName_GlobalFlagBeatsEnv(t *testing.T) {
	cmd := newActorTestCmd(t)
	t.Setenv("RELAY_AGENT", "env-agent")
	require.NoError(t, cmd.Flags().Set("agent", "global-agent"))

	got := resolveAgentName(cmd, "claimed-by")
	require.Equal(t, "global-agent", got)
}

func TestResolveAgentName_UsesEnvFallback(t *testing.T) {
	cmd := newActorTestCmd(t)
	t.Setenv("RELAY_AGENT", "env-agent")

	got := resolveAgentName(cmd, "claimed-by")
	require.Equal(t, "env-agent", got)
}

func TestRequireAgentName_ErrorWhenMissing(t *testing.T) {
	cmd := newActorTestCmd(t)
	t.Setenv("RELAY_AGENT", "")

	got, err := requireAgentName(cmd, "claimed-by")
	require.Error(t, err)
	require.Empty(t, got)
	require.Contains(t, err.Error(), "agent is required")
}

func TestResolveProjectID_FlagBeatsEnv(t *testing.T) {
	cmd := newActorTestCmd(t)
	t.Setenv("RELAY_PROJECT", "env-project")
	require.NoError(t, cmd.Flags().Set("project", "flag-project"))

	require.Equal(t, "flag-project", resolveProjectID(cmd))
}

func TestResolveProjectID_UsesEnvFallback(t *testing.T) {
	cmd := newActorTestCmd(t)
	t.Setenv("RELAY_PROJECT", "env-project")

	require.Equal(t, "env-project", resolveProjectID(cmd))
}

func TestRequireProjectID_ErrorWhenMissing(t *testing.T) {
	// A command without the global --project flag still resolves via the env.
	cmd := &cobra.Command{Use: "bare"}
	t.Setenv("RELAY_PROJECT", "")

	got, err := requireProjectID(cmd)
	require.Error(t, err)
	require.Empty(t, got)
	require.Contains(t, err.Error(), "project is required")
}
