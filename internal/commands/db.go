package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/app"
	"github.com/dotcommander/relay/internal/output"
	"github.com/dotcommander/relay/internal/store"
)

// NewDBCmd creates the db command group for the relational backend.
func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}

	cmd.AddCommand(newDBPathCmd())
	cmd.AddCommand(newDBVersionCmd())
	return cmd
}

func newDBPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved database path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.GetDBPath()
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Path string `json:"path"`
			}
			return output.PrintSuccess(resp{Path: path})
		},
	}
}

func newDBVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print current and latest schema migration versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open()
			if err != nil {
				return cmdErr(err)
			}
			defer func() { _ = st.Close() }()

			current, latest, err := store.SchemaVersion(st.DB())
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Current int64 `json:"current"`
				Latest  int64 `json:"latest"`
			}
			return output.PrintSuccess(resp{Current: current, Latest: latest})
		},
	}
}
