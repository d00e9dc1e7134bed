package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/app"
	"github.com/dotcommander/relay/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "relay",
		Short:         "Multi-agent coordination primitives (agents, locks, tasks, delegation)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			// Wire --db-path and --registry-dir into app-level resolvers.
			if dbPath, err := cmd.Flags().GetString("db-path"); err == nil && dbPath != "" {
				app.SetDBPathOverride(dbPath)
			}
			if dir, err := cmd.Flags().GetString("registry-dir"); err == nil && dir != "" {
				app.SetRegistryDirOverride(dir)
			}

			return nil
		},
	}

	root.PersistentFlags().String("db-path", "", "Override coordination database path")
	root.PersistentFlags().String("registry-dir", "", "Override project registry directory (default: $RELAY_REGISTRY_DIR)")
	root.PersistentFlags().String("backend", "", "Coordination backend: sqlite|board (default: sqlite, or $RELAY_BACKEND)")
	root.PersistentFlags().StringP("project", "p", "", "Project ID (default: $RELAY_PROJECT)")
	root.PersistentFlags().StringP("agent", "a", "", "Agent name (default: $RELAY_AGENT)")
	root.Flags().BoolP("version", "v", false, "version for relay")

	root.AddCommand(NewAgentCmd())
	root.AddCommand(NewLockCmd())
	root.AddCommand(NewTaskCmd())
	root.AddCommand(NewDelegateCmd())
	root.AddCommand(NewProjectCmd())
	root.AddCommand(NewSessionCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewDBCmd())
	root.AddCommand(NewSchemaCmd(root))

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}
