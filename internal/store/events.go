package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

// MaxEventDataLength bounds the opaque event payload; see models.
const MaxEventDataLength = models.MaxEventDataLength

// LogEvent appends one record to the per-session event log. An empty
// sessionID is a deliberate no-op: untracked sessions are not logged.
func LogEvent(db *sql.DB, projectID, sessionID string, event models.SessionEvent) error {
	if sessionID == "" {
		return nil
	}
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}
	if !event.Type.Valid() {
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
	if len(event.Data) > MaxEventDataLength {
		return fmt.Errorf("event data exceeds max length (%d)", MaxEventDataLength)
	}
	if len(event.Data) > 0 && !json.Valid(event.Data) {
		return fmt.Errorf("event data must be valid JSON")
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	data := any(nil)
	if len(event.Data) > 0 {
		data = string(event.Data)
	}
	agentID := any(nil)
	if event.AgentID != "" {
		agentID = event.AgentID
	}

	return Transact(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO session_events (project_id, session_id, agent_id, event_type, event_data, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
		`, projectID, sessionID, agentID, event.Type, data, ts); err != nil {
			return fmt.Errorf("failed to insert session event: %w", err)
		}
		return nil
	})
}

// GetHistory returns the full ordered event sequence for a session. A session
// with no events yields an empty slice; absence is not an error.
func GetHistory(db *sql.DB, projectID, sessionID string) ([]models.SessionEvent, error) {
	if sessionID == "" {
		return []models.SessionEvent{}, nil
	}

	var events []models.SessionEvent
	err := RetryWithBackoff(func() error {
		rows, err := db.Query(`
			SELECT id, project_id, session_id, agent_id, event_type, event_data, timestamp
			FROM session_events
			WHERE project_id = ? AND session_id = ?
			ORDER BY id ASC
		`, projectID, sessionID)
		if err != nil {
			return fmt.Errorf("failed to query session events: %w", err)
		}
		defer func() { _ = rows.Close() }()

		events = make([]models.SessionEvent, 0)
		for rows.Next() {
			var ev models.SessionEvent
			var agentID, data sql.NullString
			if scanErr := rows.Scan(&ev.ID, &ev.ProjectID, &ev.SessionID, &agentID, &ev.Type, &data, &ev.Timestamp); scanErr != nil {
				return fmt.Errorf("failed to scan session event: %w", scanErr)
			}
			ev.AgentID = scanNullString(agentID)
			if data.Valid {
				ev.Data = json.RawMessage(data.String)
			}
			events = append(events, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
