package models

import (
	"encoding/json"
	"time"
)

// ID Strategy:
// - Session events and messages use int64 (monotonic ordering, auto-increment)
// - Tasks use string (distributed generation, e.g., "task_1234567890_a3f9")
//
// Agents and resource locks are keyed by caller-supplied names scoped to a
// project, so they carry no generated identifier at all.

// AgentStatus represents the presence state of an agent within a project.
type AgentStatus string

// Agent status constants.
const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
)

// DefaultAgentFocus is the focus recorded for agents that have not declared
// what they are working on.
const DefaultAgentFocus = "-"

// Agent is one coordinating process instance, identified per project.
// (id, project_id) is unique; re-registration overwrites in place and
// preserves SessionID unless a new one is explicitly supplied.
type Agent struct {
	ID            string      `json:"id"`
	ProjectID     string      `json:"project_id"`
	SessionID     string      `json:"session_id,omitempty"`
	Status        AgentStatus `json:"status"`
	Focus         string      `json:"focus"`
	LastHeartbeat time.Time   `json:"last_heartbeat"`
	CreatedAt     time.Time   `json:"created_at,omitempty"`
}

// ResourceLock is an exclusive claim over a named resource (typically a file
// path or glob pattern). At most one holder per (resource, project_id).
type ResourceLock struct {
	Resource   string    `json:"resource"`
	ProjectID  string    `json:"project_id"`
	AgentID    string    `json:"agent_id"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// TaskStatus represents the current state of a task.
type TaskStatus string

// Task status constants. Transitions are monotonic forward
// (pending -> in_progress -> completed) except for cancelled, which is
// reachable from any non-terminal state.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsTerminal returns true if no further transitions are allowed.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// IsPending returns true if the task is awaiting a claim.
func (s TaskStatus) IsPending() bool {
	return s == TaskStatusPending
}

// Task is a unit of work scoped to an owning project. FromProject/FromAgent
// are set only for tasks delegated by a different project; the owning project
// identified by ProjectID is the one that must act on it.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	FromProject string     `json:"from_project,omitempty"`
	FromAgent   string     `json:"from_agent,omitempty"`
	Status      TaskStatus `json:"status"`
	ClaimedBy   string     `json:"claimed_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsExternal returns true if the task was delegated by another project.
func (t *Task) IsExternal() bool {
	return t.FromProject != ""
}

// IsClaimed returns true if an agent has claimed the task.
func (t *Task) IsClaimed() bool {
	return t.ClaimedBy != ""
}

// EventType enumerates the session event kinds recorded by the event log.
type EventType string

// Session event type constants.
const (
	EventTypeSearch   EventType = "search"
	EventTypeReadDoc  EventType = "read_doc"
	EventTypeReadFile EventType = "read_file"
	EventTypeIndex    EventType = "index"
	EventTypeDecision EventType = "decision"
)

// KnownEventTypes lists every event type accepted by the session log.
var KnownEventTypes = []EventType{
	EventTypeSearch,
	EventTypeReadDoc,
	EventTypeReadFile,
	EventTypeIndex,
	EventTypeDecision,
}

// Valid reports whether t is a member of the fixed enumeration.
func (t EventType) Valid() bool {
	for _, k := range KnownEventTypes {
		if t == k {
			return true
		}
	}
	return false
}

// MaxEventDataLength bounds the opaque event payload, enforced by every
// backend so one backend never accepts a record another cannot read back.
const MaxEventDataLength = 16384

// SessionEvent is one append-only record in a per-session action log.
// Events are never mutated or deleted.
type SessionEvent struct {
	ID        int64           `json:"id,omitempty"`
	ProjectID string          `json:"project_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	AgentID   string          `json:"agent_id,omitempty"`
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Message is one free-text entry in a project's agent message log.
type Message struct {
	ID        int64     `json:"id,omitempty"`
	ProjectID string    `json:"project_id"`
	AgentID   string    `json:"agent_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectCard is one entry in the global project registry: where a project
// lives on disk plus discovery metadata. Cards are merged on write, never
// destructively overwritten with blanks.
type ProjectCard struct {
	ProjectID   string    `json:"project_id"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords,omitempty"`
	LastActive  time.Time `json:"last_active"`
	Status      string    `json:"status,omitempty"`

	// Optional enrichment populated by a later sync.
	Responsibilities []string `json:"responsibilities,omitempty"`
	Owns             []string `json:"owns,omitempty"`
	Exports          string   `json:"exports,omitempty"`
	ProjectType      string   `json:"project_type,omitempty"`
}

// DelegationResult is the outcome of a cross-project delegation request.
// IsDuplicate is set when the request was recognized as a retry of a prior
// delegation; TaskID then names the pre-existing task.
type DelegationResult struct {
	TaskID         string     `json:"task_id"`
	TargetProject  string     `json:"target_project"`
	IsDuplicate    bool       `json:"is_duplicate"`
	ExistingStatus TaskStatus `json:"existing_status,omitempty"`
	Similarity     float64    `json:"similarity,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// StatusCounts holds summary counts for all entity types in one project scope.
type StatusCounts struct {
	Agents AgentStatusCounts `json:"agents"`
	Tasks  TaskStatusCounts  `json:"tasks"`
	Locks  int               `json:"locks"`
	Events int               `json:"events"`
}

// AgentStatusCounts breaks down agent counts by presence state.
type AgentStatusCounts struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// TaskStatusCounts breaks down task counts by status.
type TaskStatusCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}
