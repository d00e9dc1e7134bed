package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

// ClaimResource takes (or renews) an exclusive claim on a named resource.
// If the resource is unheld, or already held by the same agent, the entry is
// written with a fresh timestamp. If another agent holds it, the claim fails
// with ErrResourceHeld and no mutation. Racing claimers serialize through the
// transaction: the loser observes the winner's committed row.
func ClaimResource(db *sql.DB, projectID, agentID, resource string) (*models.ResourceLock, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if resource == "" {
		return nil, fmt.Errorf("resource is required")
	}

	var lock models.ResourceLock
	err := Transact(db, func(tx *sql.Tx) error {
		var holder string
		err := tx.QueryRow(`
			SELECT agent_id FROM locks WHERE resource = ? AND project_id = ?
		`, resource, projectID).Scan(&holder)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Unheld; fall through to write.
		case err != nil:
			return fmt.Errorf("failed to query lock holder: %w", err)
		case holder != agentID:
			return &ResourceHeldError{
				Resource:    resource,
				ProjectID:   projectID,
				HeldBy:      holder,
				RequestedBy: agentID,
			}
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(`
			INSERT INTO locks (resource, project_id, agent_id, acquired_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(resource, project_id) DO UPDATE SET
				agent_id = excluded.agent_id,
				acquired_at = excluded.acquired_at
		`, resource, projectID, agentID, now); err != nil {
			return fmt.Errorf("failed to write lock: %w", err)
		}

		lock = models.ResourceLock{
			Resource:   resource,
			ProjectID:  projectID,
			AgentID:    agentID,
			AcquiredAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// ReleaseResource removes the lock entry only if agentID currently holds it.
// A mismatched agent's release is a silent no-op: releasing something you
// never held is not a fault condition worth surfacing.
func ReleaseResource(db *sql.DB, projectID, agentID, resource string) error {
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}
	if agentID == "" {
		return fmt.Errorf("agent id is required")
	}
	if resource == "" {
		return fmt.Errorf("resource is required")
	}

	return Transact(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM locks WHERE resource = ? AND project_id = ? AND agent_id = ?
		`, resource, projectID, agentID); err != nil {
			return fmt.Errorf("failed to release lock: %w", err)
		}
		return nil
	})
}

// ListLocks retrieves all resource locks in a project, oldest first.
func ListLocks(db *sql.DB, projectID string) ([]*models.ResourceLock, error) {
	var locks []*models.ResourceLock

	err := RetryWithBackoff(func() error {
		rows, err := db.Query(`
			SELECT resource, project_id, agent_id, acquired_at
			FROM locks
			WHERE project_id = ?
			ORDER BY acquired_at ASC, resource ASC
		`, projectID)
		if err != nil {
			return fmt.Errorf("failed to query locks: %w", err)
		}
		defer func() { _ = rows.Close() }()

		locks = make([]*models.ResourceLock, 0)
		for rows.Next() {
			var l models.ResourceLock
			if scanErr := rows.Scan(&l.Resource, &l.ProjectID, &l.AgentID, &l.AcquiredAt); scanErr != nil {
				return fmt.Errorf("failed to scan lock row: %w", scanErr)
			}
			locks = append(locks, &l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return locks, nil
}
