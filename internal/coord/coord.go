// Package coord defines the logical contract shared by every coordination
// store backend. Two implementations exist: the relational backend
// (internal/store, one shared SQLite database for all projects) and the
// document backend (internal/board, one Markdown table document per project).
// Components above this line (delegation, commands) depend only on Store so
// tests and callers can pick either backend.
package coord

import "github.com/dotcommander/relay/internal/models"

// Store is the read/write contract over the shared coordination state.
//
// Every mutation performs a full read-modify-write cycle under the backend's
// exclusivity discipline (SQLite transaction or named advisory lock); two
// writers racing on the same project observe a strict total order on their
// critical sections. Pure reads do not lock and may observe a state a
// concurrent writer is about to replace.
//
// Logical conflicts (resource held by another agent, task not in the expected
// state) are returned as typed errors satisfying errors.Is against the
// sentinels in errors.go, never as panics; callers are expected to check
// and branch.
type Store interface {
	// Agent registry.
	RegisterAgent(projectID, agentID, sessionID string) (*models.Agent, error)
	UpdateAgentStatus(projectID, agentID string, status models.AgentStatus, focus string) (*models.Agent, error)
	GetSessionID(projectID, agentID string) (string, error)
	ListAgents(projectID string) ([]*models.Agent, error)

	// Resource lock table.
	ClaimResource(projectID, agentID, resource string) (*models.ResourceLock, error)
	ReleaseResource(projectID, agentID, resource string) error
	ListLocks(projectID string) ([]*models.ResourceLock, error)

	// Task board.
	CreateTask(projectID, title, description string) (*models.Task, error)
	CreateExternalTask(projectID, title, description, fromProject, fromAgent string) (*models.Task, error)
	ClaimTask(projectID, taskID, agentID string) (*models.Task, error)
	CompleteTask(projectID, taskID string) (*models.Task, error)
	CancelTask(projectID, taskID string) (*models.Task, error)
	GetAllTasks(projectID string) ([]*models.Task, error)

	// Session event log.
	LogEvent(projectID, sessionID string, event models.SessionEvent) error
	GetHistory(projectID, sessionID string) ([]models.SessionEvent, error)

	// Agent messages.
	AppendMessage(projectID, agentID, message string) error
	ListMessages(projectID string) ([]*models.Message, error)

	// Summary counts for one project scope.
	Status(projectID string) (*models.StatusCounts, error)

	Close() error
}
