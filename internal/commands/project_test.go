package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProjectCmd_HasExpectedSubcommands(t *testing.T) {
	cmd := NewProjectCmd()
	require.Equal(t, "project", cmd.Use)

	for _, name := range []string{"register", "get", "list", "discover", "sync"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		require.NotNil(t, sub)
		require.Equal(t, name, sub.Name())
	}
}

func TestProjectRegisterCmd_RequiresIDBeforeRegistry(t *testing.T) {
	cmd := newProjectRegisterCmd()
	t.Setenv("RELAY_PROJECT", "")

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestProjectGetCmd_RequiresIDBeforeRegistry(t *testing.T) {
	cmd := newProjectGetCmd()
	t.Setenv("RELAY_PROJECT", "")

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestProjectRegisterCmd_DefinesFlags(t *testing.T) {
	cmd := newProjectRegisterCmd()
	requireFlagExists(t, cmd, "id")
	requireFlagExists(t, cmd, "path")
	requireFlagExists(t, cmd, "desc")
	requireFlagExists(t, cmd, "keywords")
}

func TestProjectDiscoverCmd_DefinesQueryFlag(t *testing.T) {
	cmd := newProjectDiscoverCmd()
	requireFlagExists(t, cmd, "query")
}
