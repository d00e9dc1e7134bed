package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/output"
)

// NewSessionCmd creates the session command group
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Record and replay session activity",
		Long:  "Append-only per-session event log for reconstructing what an agent did",
	}

	cmd.AddCommand(newSessionNewCmd())
	cmd.AddCommand(newSessionLogCmd())
	cmd.AddCommand(newSessionHistoryCmd())

	return cmd
}

func newSessionNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Mint a fresh session ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			type resp struct {
				SessionID string `json:"session_id"`
			}
			return output.PrintSuccess(resp{SessionID: uuid.NewString()})
		},
	}
}

func newSessionLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Append an event to a session's log",
		Long:  "Logging with an empty session ID is a silent no-op so unattributed work never fails the caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := resolveSessionID(cmd)
			eventType, _ := cmd.Flags().GetString("type")
			data, _ := cmd.Flags().GetString("data")

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if eventType == "" {
				return cmdErr(errors.New("--type is required"))
			}
			et := models.EventType(eventType)
			if !et.Valid() {
				return cmdErr(fmt.Errorf("invalid event type %q (known: %v)", eventType, models.KnownEventTypes))
			}

			event := models.SessionEvent{
				AgentID:   resolveAgentName(cmd, ""),
				Type:      et,
				Timestamp: time.Now().UTC(),
			}
			if data != "" {
				event.Data = json.RawMessage(data)
			}

			if err := withStore(cmd, func(st coord.Store) error {
				return st.LogEvent(projectID, sessionID, event)
			}); err != nil {
				return err
			}

			type resp struct {
				ProjectID string `json:"project_id"`
				SessionID string `json:"session_id,omitempty"`
				Logged    bool   `json:"logged"`
			}
			return output.PrintSuccess(resp{ProjectID: projectID, SessionID: sessionID, Logged: sessionID != ""})
		},
	}

	cmd.Flags().StringP("session", "s", "", "Session ID (empty skips logging)")
	cmd.Flags().String("type", "", "Event type: search|read_doc|read_file|index|decision (required)")
	cmd.Flags().String("data", "", "Event payload as a JSON value")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

// resolveSessionID resolves the session for event logging.
// Precedence: --session flag, then env var RELAY_SESSION_ID.
func resolveSessionID(cmd *cobra.Command) string {
	if v, err := cmd.Flags().GetString("session"); err == nil && v != "" {
		return v
	}
	return os.Getenv("RELAY_SESSION_ID")
}

func newSessionHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Replay a session's events in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := resolveSessionID(cmd)

			projectID, err := requireProjectID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if sessionID == "" {
				return cmdErr(errors.New("session is required (set --session or RELAY_SESSION_ID)"))
			}

			var events []models.SessionEvent
			if err := withStore(cmd, func(st coord.Store) error {
				ev, err := st.GetHistory(projectID, sessionID)
				if err != nil {
					return err
				}
				events = ev
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				SessionID string                `json:"session_id"`
				Count     int                   `json:"count"`
				Events    []models.SessionEvent `json:"events"`
			}
			return output.PrintSuccess(resp{SessionID: sessionID, Count: len(events), Events: events})
		},
	}

	cmd.Flags().StringP("session", "s", "", "Session ID (required)")
	return cmd
}
