package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/output"
)

// NewTaskCmd creates the task command group
func NewTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the project task board",
		Long:  "Create, claim, and resolve tasks. Valid statuses: pending, in_progress, completed, cancelled",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskClaimCmd())
	cmd.AddCommand(newTaskCompleteCmd())
	cmd.AddCommand(newTaskCancelCmd())
	cmd.AddCommand(newTaskListCmd())

	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new pending task",
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			desc, _ := cmd.Flags().GetString("desc")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if title == "" {
				return cmdErr(errors.New("--title is required"))
			}

			var task *models.Task
			if err := withStore(cmd, func(st coord.Store) error {
				t, err := st.CreateTask(projectID, title, desc)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(task)
		},
	}

	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().String("desc", "", "Task description")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newTaskClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim a pending task for this agent",
		Long:  "Claiming is compare-and-set: it succeeds only while the task is still pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, _ := cmd.Flags().GetString("id")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agentName, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			if taskID == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var task *models.Task
			if err := withStore(cmd, func(st coord.Store) error {
				t, err := st.ClaimTask(projectID, taskID, agentName)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(task)
		},
	}

	cmd.Flags().String("id", "", "Task ID (required)")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newTaskCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark an in-progress task as completed",
		RunE:  taskFinishRunE("complete"),
	}

	cmd.Flags().String("id", "", "Task ID (required)")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newTaskCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a pending or in-progress task",
		RunE:  taskFinishRunE("cancel"),
	}

	cmd.Flags().String("id", "", "Task ID (required)")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func taskFinishRunE(action string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		taskID, _ := cmd.Flags().GetString("id")

		projectID, err := requireProjectID(cmd)
		if err != nil {
			return cmdErr(err)
		}
		if taskID == "" {
			return cmdErr(errors.New("--id is required"))
		}

		var task *models.Task
		if err := withStore(cmd, func(st coord.Store) error {
			var t *models.Task
			var err error
			if action == "cancel" {
				t, err = st.CancelTask(projectID, taskID)
			} else {
				t, err = st.CompleteTask(projectID, taskID)
			}
			if err != nil {
				return err
			}
			task = t
			return nil
		}); err != nil {
			return err
		}

		return output.PrintSuccess(task)
	}
}

func newTaskListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			statusFilter, _ := cmd.Flags().GetString("status")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var tasks []*models.Task
			if err := withStore(cmd, func(st coord.Store) error {
				t, err := st.GetAllTasks(projectID)
				if err != nil {
					return err
				}
				tasks = t
				return nil
			}); err != nil {
				return err
			}

			if statusFilter != "" {
				filtered := make([]*models.Task, 0, len(tasks))
				for _, t := range tasks {
					if t.Status == models.TaskStatus(statusFilter) {
						filtered = append(filtered, t)
					}
				}
				tasks = filtered
			}

			type resp struct {
				Count int            `json:"count"`
				Tasks []*models.Task `json:"tasks"`
			}
			return output.PrintSuccess(resp{Count: len(tasks), Tasks: tasks})
		},
	}

	cmd.Flags().String("status", "", "Filter by status: pending|in_progress|completed|cancelled")
	return cmd
}
