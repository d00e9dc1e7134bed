package store

import (
	"database/sql"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

// scanNullString converts sql.NullString to string (empty if NULL)
func scanNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// scanNullTime converts sql.NullTime to *time.Time (nil if NULL)
func scanNullTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// rowScanner is the subset of *sql.Row / *sql.Rows used by the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTaskRow scans one row from the canonical task column list:
// id, project_id, title, description, from_project, from_agent, status,
// claimed_by, created_at, claimed_at, completed_at.
func scanTaskRow(row rowScanner) (*models.Task, error) {
	var t models.Task
	var fromProject, fromAgent, claimedBy sql.NullString
	var claimedAt, completedAt sql.NullTime
	if err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&fromProject,
		&fromAgent,
		&t.Status,
		&claimedBy,
		&t.CreatedAt,
		&claimedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	t.FromProject = scanNullString(fromProject)
	t.FromAgent = scanNullString(fromAgent)
	t.ClaimedBy = scanNullString(claimedBy)
	t.ClaimedAt = scanNullTime(claimedAt)
	t.CompletedAt = scanNullTime(completedAt)
	return &t, nil
}

// scanAgentRow scans one row from the canonical agent column list:
// id, project_id, session_id, status, focus, last_heartbeat, created_at.
func scanAgentRow(row rowScanner) (*models.Agent, error) {
	var a models.Agent
	if err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.SessionID,
		&a.Status,
		&a.Focus,
		&a.LastHeartbeat,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
