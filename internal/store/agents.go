package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

const agentColumns = `id, project_id, session_id, status, focus, last_heartbeat, created_at`

// RegisterAgent upserts an agent row: status becomes active, focus resets to
// "-", heartbeat refreshes. A prior session_id is preserved unless sessionID
// is non-empty. Two agents registering concurrently under the same key
// serialize through the transaction; the later write wins whole.
func RegisterAgent(db *sql.DB, projectID, agentID, sessionID string) (*models.Agent, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	var agent *models.Agent
	err := Transact(db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if _, err := tx.Exec(`
			INSERT INTO agents (id, project_id, session_id, status, focus, last_heartbeat, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id, project_id) DO UPDATE SET
				session_id = CASE WHEN excluded.session_id != '' THEN excluded.session_id ELSE agents.session_id END,
				status = excluded.status,
				focus = excluded.focus,
				last_heartbeat = excluded.last_heartbeat
		`, agentID, projectID, sessionID, models.AgentStatusActive, models.DefaultAgentFocus, now, now); err != nil {
			return fmt.Errorf("failed to register agent: %w", err)
		}

		var err error
		agent, err = getAgentTx(tx, projectID, agentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// UpdateAgentStatus upserts the agent's status and focus, refreshing the
// heartbeat. The existing session_id is never touched; rows created by this
// path (agent was never registered) start with an empty session.
func UpdateAgentStatus(db *sql.DB, projectID, agentID string, status models.AgentStatus, focus string) (*models.Agent, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if status != models.AgentStatusActive && status != models.AgentStatusInactive {
		return nil, fmt.Errorf("invalid agent status: %s", status)
	}
	if focus == "" {
		focus = models.DefaultAgentFocus
	}

	var agent *models.Agent
	err := Transact(db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if _, err := tx.Exec(`
			INSERT INTO agents (id, project_id, session_id, status, focus, last_heartbeat, created_at)
			VALUES (?, ?, '', ?, ?, ?, ?)
			ON CONFLICT(id, project_id) DO UPDATE SET
				status = excluded.status,
				focus = excluded.focus,
				last_heartbeat = excluded.last_heartbeat
		`, agentID, projectID, status, focus, now, now); err != nil {
			return fmt.Errorf("failed to update agent status: %w", err)
		}

		var err error
		agent, err = getAgentTx(tx, projectID, agentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// GetSessionID returns the agent's session identifier, or "" when the agent
// is unknown or was registered before session tracking existed. Absence is
// not an error.
func GetSessionID(db *sql.DB, projectID, agentID string) (string, error) {
	var sessionID string
	err := RetryWithBackoff(func() error {
		return db.QueryRow(`
			SELECT session_id FROM agents WHERE id = ? AND project_id = ?
		`, agentID, projectID).Scan(&sessionID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query session id: %w", err)
	}
	return sessionID, nil
}

// ListAgents retrieves all agents in a project, most recently active first.
func ListAgents(db *sql.DB, projectID string) ([]*models.Agent, error) {
	var agents []*models.Agent

	err := RetryWithBackoff(func() error {
		rows, err := db.Query(`
			SELECT `+agentColumns+`
			FROM agents
			WHERE project_id = ?
			ORDER BY last_heartbeat DESC, id ASC
		`, projectID)
		if err != nil {
			return fmt.Errorf("failed to query agents: %w", err)
		}
		defer func() { _ = rows.Close() }()

		agents = make([]*models.Agent, 0)
		for rows.Next() {
			a, scanErr := scanAgentRow(rows)
			if scanErr != nil {
				return fmt.Errorf("failed to scan agent row: %w", scanErr)
			}
			agents = append(agents, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func getAgentTx(tx *sql.Tx, projectID, agentID string) (*models.Agent, error) {
	agent, err := scanAgentRow(tx.QueryRow(`
		SELECT `+agentColumns+`
		FROM agents
		WHERE id = ? AND project_id = ?
	`, agentID, projectID))
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	return agent, nil
}
