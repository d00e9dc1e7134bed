package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

const taskColumns = `id, project_id, title, description, from_project, from_agent, status, claimed_by, created_at, claimed_at, completed_at`

// CreateTask inserts a new pending task owned by projectID.
func CreateTask(db *sql.DB, projectID, title, description string) (*models.Task, error) {
	return createTask(db, projectID, title, description, "", "")
}

// CreateExternalTask inserts a new pending task on the target project's
// board, recording which project and agent delegated it.
func CreateExternalTask(db *sql.DB, projectID, title, description, fromProject, fromAgent string) (*models.Task, error) {
	if fromProject == "" {
		return nil, fmt.Errorf("from project is required for external tasks")
	}
	return createTask(db, projectID, title, description, fromProject, fromAgent)
}

func createTask(db *sql.DB, projectID, title, description, fromProject, fromAgent string) (*models.Task, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		taskID := GenerateTaskID()
		now := time.Now().UTC()

		fromProj := any(nil)
		if fromProject != "" {
			fromProj = fromProject
		}
		fromAg := any(nil)
		if fromAgent != "" {
			fromAg = fromAgent
		}

		if _, err := tx.Exec(`
			INSERT INTO tasks (id, project_id, title, description, from_project, from_agent, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, taskID, projectID, title, description, fromProj, fromAg, models.TaskStatusPending, now); err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}

		var err error
		task, err = getTaskTx(tx, projectID, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ClaimTask transitions a pending task to in_progress and records the
// claimer. The check-pending-then-update is one atomic CAS: of two agents
// racing for the same task, exactly one sees rows affected. A non-pending
// task fails with ErrTaskNotPending and no state change.
func ClaimTask(db *sql.DB, projectID, taskID, agentID string) (*models.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is required")
	}
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE tasks
			SET status = ?, claimed_by = ?, claimed_at = ?
			WHERE id = ? AND project_id = ? AND status = ?
		`, models.TaskStatusInProgress, agentID, time.Now().UTC(), taskID, projectID, models.TaskStatusPending)
		if err != nil {
			return fmt.Errorf("failed to claim task: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return claimFailureTx(tx, projectID, taskID, agentID)
		}

		task, err = getTaskTx(tx, projectID, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// claimFailureTx distinguishes "task missing" from "task not pending" for a
// failed claim CAS.
func claimFailureTx(tx *sql.Tx, projectID, taskID, agentID string) error {
	existing, err := getTaskTx(tx, projectID, taskID)
	if errors.Is(err, ErrTaskNotFound) {
		return err
	}
	if err != nil {
		return err
	}
	return &TaskNotPendingError{
		TaskID:      taskID,
		Status:      existing.Status,
		RequestedBy: agentID,
	}
}

// CompleteTask transitions an in_progress task to completed and stamps
// completed_at. Completing a task that never passed through in_progress
// fails: status transitions are monotonic forward.
func CompleteTask(db *sql.DB, projectID, taskID string) (*models.Task, error) {
	return finishTask(db, projectID, taskID, models.TaskStatusCompleted, models.TaskStatusInProgress)
}

// CancelTask transitions a task to cancelled from any non-terminal state.
func CancelTask(db *sql.DB, projectID, taskID string) (*models.Task, error) {
	return finishTask(db, projectID, taskID, models.TaskStatusCancelled, models.TaskStatusPending, models.TaskStatusInProgress)
}

func finishTask(db *sql.DB, projectID, taskID string, terminal models.TaskStatus, from ...models.TaskStatus) (*models.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is required")
	}

	placeholders := ""
	args := []any{terminal, time.Now().UTC(), taskID, projectID}
	for i, s := range from {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, s)
	}

	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE tasks
			SET status = ?, completed_at = ?
			WHERE id = ? AND project_id = ? AND status IN (`+placeholders+`)
		`, args...)
		if err != nil {
			return fmt.Errorf("failed to finish task: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rowsAffected == 0 {
			existing, getErr := getTaskTx(tx, projectID, taskID)
			if getErr != nil {
				return getErr
			}
			if existing.Status.IsTerminal() {
				return fmt.Errorf("%w: %s is %s", ErrTaskTerminal, taskID, existing.Status)
			}
			return &TaskNotPendingError{TaskID: taskID, Status: existing.Status, Required: from[0]}
		}

		task, err = getTaskTx(tx, projectID, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask retrieves a task by ID within a project. Pure read.
func GetTask(db *sql.DB, projectID, taskID string) (*models.Task, error) {
	var task *models.Task
	err := RetryWithBackoff(func() error {
		var scanErr error
		task, scanErr = scanTaskRow(db.QueryRow(`
			SELECT `+taskColumns+` FROM tasks WHERE id = ? AND project_id = ?
		`, taskID, projectID))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return task, nil
}

func getTaskTx(tx *sql.Tx, projectID, taskID string) (*models.Task, error) {
	task, err := scanTaskRow(tx.QueryRow(`
		SELECT `+taskColumns+` FROM tasks WHERE id = ? AND project_id = ?
	`, taskID, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

// GetAllTasks retrieves every task owned by a project, newest first.
// Pure read; tolerates observing a state a concurrent writer is replacing.
func GetAllTasks(db *sql.DB, projectID string) ([]*models.Task, error) {
	var tasks []*models.Task

	err := RetryWithBackoff(func() error {
		rows, err := db.Query(`
			SELECT `+taskColumns+`
			FROM tasks
			WHERE project_id = ?
			ORDER BY created_at DESC, id DESC
		`, projectID)
		if err != nil {
			return fmt.Errorf("failed to query tasks: %w", err)
		}
		defer func() { _ = rows.Close() }()

		tasks = make([]*models.Task, 0)
		for rows.Next() {
			t, scanErr := scanTaskRow(rows)
			if scanErr != nil {
				return fmt.Errorf("failed to scan task row: %w", scanErr)
			}
			tasks = append(tasks, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
