package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/app"
	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/delegate"
	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/output"
)

// NewDelegateCmd creates the delegate command
func NewDelegateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delegate",
		Short: "Create a task on another project's board",
		Long:  "Routes a task request to the target project, suppressing near-duplicate titles so retried requests do not mint duplicate tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetString("to")
			title, _ := cmd.Flags().GetString("title")
			desc, _ := cmd.Flags().GetString("desc")
			taskContext, _ := cmd.Flags().GetString("context")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agentName, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			if target == "" {
				return cmdErr(errors.New("--to is required"))
			}
			if title == "" {
				return cmdErr(errors.New("--title is required"))
			}

			reg, err := openRegistry()
			if err != nil {
				return cmdErr(err)
			}

			var result *models.DelegationResult
			if err := withStore(cmd, func(st coord.Store) error {
				svc := delegate.New(reg, st, delegate.WithThreshold(app.EffectiveSimilarityThreshold()))
				r, err := svc.Delegate(projectID, agentName, target, title, desc, taskContext)
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(result)
		},
	}

	cmd.Flags().String("to", "", "Target project ID (required)")
	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().String("desc", "", "Task description")
	cmd.Flags().String("context", "", "Context for the target project, appended to the description")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}
