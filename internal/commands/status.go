package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/output"
)

// NewStatusCmd creates the status command showing per-project summary counts.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show summary counts for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var counts *models.StatusCounts
			if err := withStore(cmd, func(st coord.Store) error {
				c, err := st.Status(projectID)
				if err != nil {
					return err
				}
				counts = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				ProjectID string               `json:"project_id"`
				Counts    *models.StatusCounts `json:"counts"`
			}
			return output.PrintSuccess(resp{ProjectID: projectID, Counts: counts})
		},
	}
}
