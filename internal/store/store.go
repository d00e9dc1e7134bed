// Package store is the relational coordination backend: one shared SQLite
// database holding agents, locks, tasks, session events, and messages for
// every project. Mutations run in explicit transactions; SQLite's WAL mode
// plus busy_timeout provides the exclusive-write discipline that the document
// backend gets from named advisory locks.
package store

import (
	"database/sql"

	"github.com/dotcommander/relay/internal/models"
)

// Store wraps an open database handle and implements coord.Store. Construct
// with Open (or OpenAtPath in tests); the handle is injected into components
// rather than held as process-global state, and closed explicitly.
type Store struct {
	db *sql.DB
}

// Open opens the configured database, applying pragmas and migrations.
func Open() (*Store, error) {
	db, err := InitDB()
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenAtPath opens a database at a specific path (useful for testing).
func OpenAtPath(dbPath string) (*Store, error) {
	db, err := InitDBWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for schema inspection.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) RegisterAgent(projectID, agentID, sessionID string) (*models.Agent, error) {
	return RegisterAgent(s.db, projectID, agentID, sessionID)
}

func (s *Store) UpdateAgentStatus(projectID, agentID string, status models.AgentStatus, focus string) (*models.Agent, error) {
	return UpdateAgentStatus(s.db, projectID, agentID, status, focus)
}

func (s *Store) GetSessionID(projectID, agentID string) (string, error) {
	return GetSessionID(s.db, projectID, agentID)
}

func (s *Store) ListAgents(projectID string) ([]*models.Agent, error) {
	return ListAgents(s.db, projectID)
}

func (s *Store) ClaimResource(projectID, agentID, resource string) (*models.ResourceLock, error) {
	return ClaimResource(s.db, projectID, agentID, resource)
}

func (s *Store) ReleaseResource(projectID, agentID, resource string) error {
	return ReleaseResource(s.db, projectID, agentID, resource)
}

func (s *Store) ListLocks(projectID string) ([]*models.ResourceLock, error) {
	return ListLocks(s.db, projectID)
}

func (s *Store) CreateTask(projectID, title, description string) (*models.Task, error) {
	return CreateTask(s.db, projectID, title, description)
}

func (s *Store) CreateExternalTask(projectID, title, description, fromProject, fromAgent string) (*models.Task, error) {
	return CreateExternalTask(s.db, projectID, title, description, fromProject, fromAgent)
}

func (s *Store) ClaimTask(projectID, taskID, agentID string) (*models.Task, error) {
	return ClaimTask(s.db, projectID, taskID, agentID)
}

func (s *Store) CompleteTask(projectID, taskID string) (*models.Task, error) {
	return CompleteTask(s.db, projectID, taskID)
}

func (s *Store) CancelTask(projectID, taskID string) (*models.Task, error) {
	return CancelTask(s.db, projectID, taskID)
}

func (s *Store) GetAllTasks(projectID string) ([]*models.Task, error) {
	return GetAllTasks(s.db, projectID)
}

func (s *Store) LogEvent(projectID, sessionID string, event models.SessionEvent) error {
	return LogEvent(s.db, projectID, sessionID, event)
}

func (s *Store) GetHistory(projectID, sessionID string) ([]models.SessionEvent, error) {
	return GetHistory(s.db, projectID, sessionID)
}

func (s *Store) AppendMessage(projectID, agentID, message string) error {
	return AppendMessage(s.db, projectID, agentID, message)
}

func (s *Store) ListMessages(projectID string) ([]*models.Message, error) {
	return ListMessages(s.db, projectID)
}

func (s *Store) Status(projectID string) (*models.StatusCounts, error) {
	return GetStatusCounts(s.db, projectID)
}
