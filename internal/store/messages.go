package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

// MaxMessageLength bounds a single agent message.
const MaxMessageLength = 4096

// AppendMessage records one free-text message in the project's message log.
func AppendMessage(db *sql.DB, projectID, agentID, message string) error {
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}
	if agentID == "" {
		return fmt.Errorf("agent id is required")
	}
	if message == "" {
		return fmt.Errorf("message is required")
	}
	if len(message) > MaxMessageLength {
		return fmt.Errorf("message exceeds max length (%d)", MaxMessageLength)
	}

	return Transact(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO messages (project_id, agent_id, message, timestamp)
			VALUES (?, ?, ?, ?)
		`, projectID, agentID, message, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return nil
	})
}

// ListMessages retrieves a project's messages, newest first.
func ListMessages(db *sql.DB, projectID string) ([]*models.Message, error) {
	var messages []*models.Message

	err := RetryWithBackoff(func() error {
		rows, err := db.Query(`
			SELECT id, project_id, agent_id, message, timestamp
			FROM messages
			WHERE project_id = ?
			ORDER BY id DESC
		`, projectID)
		if err != nil {
			return fmt.Errorf("failed to query messages: %w", err)
		}
		defer func() { _ = rows.Close() }()

		messages = make([]*models.Message, 0)
		for rows.Next() {
			var m models.Message
			if scanErr := rows.Scan(&m.ID, &m.ProjectID, &m.AgentID, &m.Message, &m.Timestamp); scanErr != nil {
				return fmt.Errorf("failed to scan message row: %w", scanErr)
			}
			messages = append(messages, &m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
