package store

import (
	"database/sql"

	"github.com/dotcommander/relay/internal/models"
)

// GetStatusCounts retrieves summary counts for one project scope in a single
// atomic query with retry.
func GetStatusCounts(db *sql.DB, projectID string) (*models.StatusCounts, error) {
	counts := &models.StatusCounts{}

	err := RetryWithBackoff(func() error {
		return db.QueryRow(`
			SELECT
				COALESCE((SELECT SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END) FROM agents WHERE project_id = ?1), 0),
				COALESCE((SELECT SUM(CASE WHEN status = 'inactive' THEN 1 ELSE 0 END) FROM agents WHERE project_id = ?1), 0),
				COALESCE((SELECT SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END) FROM tasks WHERE project_id = ?1), 0),
				COALESCE((SELECT SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END) FROM tasks WHERE project_id = ?1), 0),
				COALESCE((SELECT SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) FROM tasks WHERE project_id = ?1), 0),
				COALESCE((SELECT SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END) FROM tasks WHERE project_id = ?1), 0),
				(SELECT COUNT(*) FROM locks WHERE project_id = ?1),
				(SELECT COUNT(*) FROM session_events WHERE project_id = ?1)
		`, projectID).Scan(
			&counts.Agents.Active,
			&counts.Agents.Inactive,
			&counts.Tasks.Pending,
			&counts.Tasks.InProgress,
			&counts.Tasks.Completed,
			&counts.Tasks.Cancelled,
			&counts.Locks,
			&counts.Events,
		)
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
