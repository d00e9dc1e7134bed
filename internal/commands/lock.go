package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/output"
)

// NewLockCmd creates the lock command group
func NewLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Claim and release exclusive resource locks",
		Long:  "Advisory per-project locks over named resources such as file paths or glob patterns",
	}

	cmd.AddCommand(newLockClaimCmd())
	cmd.AddCommand(newLockReleaseCmd())
	cmd.AddCommand(newLockListCmd())

	return cmd
}

func newLockClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim a resource for exclusive use",
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, _ := cmd.Flags().GetString("resource")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agentName, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			if resource == "" {
				return cmdErr(errors.New("--resource is required"))
			}

			var lock *models.ResourceLock
			if err := withStore(cmd, func(st coord.Store) error {
				l, err := st.ClaimResource(projectID, agentName, resource)
				if err != nil {
					return err
				}
				lock = l
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(lock)
		},
	}

	cmd.Flags().StringP("resource", "r", "", "Resource name, e.g. a file path or glob (required)")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newLockReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release a previously claimed resource",
		Long:  "Releasing a resource held by a different agent (or not held at all) is a no-op",
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, _ := cmd.Flags().GetString("resource")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agentName, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			if resource == "" {
				return cmdErr(errors.New("--resource is required"))
			}

			if err := withStore(cmd, func(st coord.Store) error {
				return st.ReleaseResource(projectID, agentName, resource)
			}); err != nil {
				return err
			}

			type resp struct {
				ProjectID string `json:"project_id"`
				AgentID   string `json:"agent_id"`
				Resource  string `json:"resource"`
				Released  bool   `json:"released"`
			}
			return output.PrintSuccess(resp{ProjectID: projectID, AgentID: agentName, Resource: resource, Released: true})
		},
	}

	cmd.Flags().StringP("resource", "r", "", "Resource name to release (required)")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newLockListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active resource locks in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var locks []*models.ResourceLock
			if err := withStore(cmd, func(st coord.Store) error {
				l, err := st.ListLocks(projectID)
				if err != nil {
					return err
				}
				locks = l
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count int                    `json:"count"`
				Locks []*models.ResourceLock `json:"locks"`
			}
			return output.PrintSuccess(resp{Count: len(locks), Locks: locks})
		},
	}
}
