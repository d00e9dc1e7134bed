package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resolveAgentName resolves the agent used for attribution and identity.
// Precedence:
// 1) per-command flag (e.g. --claimed-by on a subcommand)
// 2) global flag --agent
// 3) env var RELAY_AGENT
func resolveAgentName(cmd *cobra.Command, perCmdFlag string) string {
	if perCmdFlag != "" {
		if v, err := cmd.Flags().GetString(perCmdFlag); err == nil && v != "" {
			return v
		}
	}
	if v, err := cmd.Flags().GetString("agent"); err == nil && v != "" {
		return v
	}
	return os.Getenv("RELAY_AGENT")
}

func requireAgentName(cmd *cobra.Command, perCmdFlag string) (string, error) {
	agent := resolveAgentName(cmd, perCmdFlag)
	if agent == "" {
		return "", fmt.Errorf("agent is required (set --agent or RELAY_AGENT)")
	}
	return agent, nil
}

// resolveProjectID resolves the project scope for a command.
// Precedence: global flag --project, then env var RELAY_PROJECT.
func resolveProjectID(cmd *cobra.Command) string {
	if v, err := cmd.Flags().GetString("project"); err == nil && v != "" {
		return v
	}
	return os.Getenv("RELAY_PROJECT")
}

func requireProjectID(cmd *cobra.Command) (string, error) {
	projectID := resolveProjectID(cmd)
	if projectID == "" {
		return "", fmt.Errorf("project is required (set --project or RELAY_PROJECT)")
	}
	return projectID, nil
}
