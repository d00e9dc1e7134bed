package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/output"
)

// NewAgentCmd creates the agent command group
func NewAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agent presence in a project",
		Long:  "Register agents, update their status, and read back session identity",
	}

	cmd.AddCommand(newAgentRegisterCmd())
	cmd.AddCommand(newAgentStatusCmd())
	cmd.AddCommand(newAgentSessionCmd())
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentSayCmd())
	cmd.AddCommand(newAgentMessagesCmd())

	return cmd
}

func newAgentRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register this agent as active in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agentName, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}

			var agent *models.Agent
			if err := withStore(cmd, func(st coord.Store) error {
				a, err := st.RegisterAgent(projectID, agentName, sessionID)
				if err != nil {
					return err
				}
				agent = a
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(agent)
		},
	}

	cmd.Flags().String("session", "", "Session ID to bind (empty keeps any previously recorded session)")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newAgentStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Update agent status and focus (active|inactive)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			focus, _ := cmd.Flags().GetString("focus")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agentName, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			if status == "" {
				return cmdErr(errors.New("--status is required"))
			}
			s := models.AgentStatus(status)
			if s != models.AgentStatusActive && s != models.AgentStatusInactive {
				return cmdErr(fmt.Errorf("invalid status %q (expected active or inactive)", status))
			}

			var agent *models.Agent
			if err := withStore(cmd, func(st coord.Store) error {
				a, err := st.UpdateAgentStatus(projectID, agentName, s, focus)
				if err != nil {
					return err
				}
				agent = a
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(agent)
		},
	}

	cmd.Flags().String("status", "", "New status: active|inactive (required)")
	cmd.Flags().String("focus", "", "Current focus description")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newAgentSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the session ID recorded for this agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agentName, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}

			var sessionID string
			if err := withStore(cmd, func(st coord.Store) error {
				sid, err := st.GetSessionID(projectID, agentName)
				if err != nil {
					return err
				}
				sessionID = sid
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				AgentID   string `json:"agent_id"`
				SessionID string `json:"session_id"`
			}
			return output.PrintSuccess(resp{AgentID: agentName, SessionID: sessionID})
		},
	}
}

func newAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents registered in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var agents []*models.Agent
			if err := withStore(cmd, func(st coord.Store) error {
				a, err := st.ListAgents(projectID)
				if err != nil {
					return err
				}
				agents = a
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count  int             `json:"count"`
				Agents []*models.Agent `json:"agents"`
			}
			return output.PrintSuccess(resp{Count: len(agents), Agents: agents})
		},
	}
}

func newAgentSayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "say",
		Short: "Append a message to the project's agent message log",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agentName, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			if message == "" {
				return cmdErr(errors.New("--message is required"))
			}

			if err := withStore(cmd, func(st coord.Store) error {
				return st.AppendMessage(projectID, agentName, message)
			}); err != nil {
				return err
			}

			type resp struct {
				ProjectID string `json:"project_id"`
				AgentID   string `json:"agent_id"`
				Message   string `json:"message"`
			}
			return output.PrintSuccess(resp{ProjectID: projectID, AgentID: agentName, Message: message})
		},
	}

	cmd.Flags().StringP("message", "m", "", "Message text (required)")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newAgentMessagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "List project messages, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var messages []*models.Message
			if err := withStore(cmd, func(st coord.Store) error {
				m, err := st.ListMessages(projectID)
				if err != nil {
					return err
				}
				messages = m
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count    int               `json:"count"`
				Messages []*models.Message `json:"messages"`
			}
			return output.PrintSuccess(resp{Count: len(messages), Messages: messages})
		},
	}
}
