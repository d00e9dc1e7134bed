package store

import (
	"testing"

	"github.com/dotcommander/relay/internal/models"
)

func TestRegisterAgent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	agent, err := RegisterAgent(db, "proj-a", "claude", "sess-1")
	if err != nil {
		t.Fatalf("RegisterAgent failed: %v", err)
	}

	if agent.ID != "claude" {
		t.Errorf("Expected id=claude, got %s", agent.ID)
	}
	if agent.ProjectID != "proj-a" {
		t.Errorf("Expected project_id=proj-a, got %s", agent.ProjectID)
	}
	if agent.SessionID != "sess-1" {
		t.Errorf("Expected session_id=sess-1, got %s", agent.SessionID)
	}
	if agent.Status != models.AgentStatusActive {
		t.Errorf("Expected status=active, got %s", agent.Status)
	}
	if agent.Focus != models.DefaultAgentFocus {
		t.Errorf("Expected focus=%q, got %q", models.DefaultAgentFocus, agent.Focus)
	}
}

func TestRegisterAgentPreservesSession(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if _, err := RegisterAgent(db, "proj-a", "claude", "sess-1"); err != nil {
		t.Fatalf("First RegisterAgent failed: %v", err)
	}

	// Re-registration without a session must keep the recorded one.
	agent, err := RegisterAgent(db, "proj-a", "claude", "")
	if err != nil {
		t.Fatalf("Second RegisterAgent failed: %v", err)
	}
	if agent.SessionID != "sess-1" {
		t.Errorf("Expected preserved session_id=sess-1, got %s", agent.SessionID)
	}

	// Re-registration with a new session replaces it.
	agent, err = RegisterAgent(db, "proj-a", "claude", "sess-2")
	if err != nil {
		t.Fatalf("Third RegisterAgent failed: %v", err)
	}
	if agent.SessionID != "sess-2" {
		t.Errorf("Expected session_id=sess-2, got %s", agent.SessionID)
	}

	// Exactly one row per (id, project_id).
	agents, err := ListAgents(db, "proj-a")
	if err != nil {
		t.Fatalf("ListAgents failed: %v", err)
	}
	if len(agents) != 1 {
		t.Errorf("Expected 1 agent row, got %d", len(agents))
	}
}

func TestRegisterAgentScopedByProject(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if _, err := RegisterAgent(db, "proj-a", "claude", "sess-a"); err != nil {
		t.Fatalf("RegisterAgent proj-a failed: %v", err)
	}
	if _, err := RegisterAgent(db, "proj-b", "claude", "sess-b"); err != nil {
		t.Fatalf("RegisterAgent proj-b failed: %v", err)
	}

	sid, err := GetSessionID(db, "proj-a", "claude")
	if err != nil {
		t.Fatalf("GetSessionID failed: %v", err)
	}
	if sid != "sess-a" {
		t.Errorf("Expected sess-a for proj-a, got %s", sid)
	}

	sid, err = GetSessionID(db, "proj-b", "claude")
	if err != nil {
		t.Fatalf("GetSessionID failed: %v", err)
	}
	if sid != "sess-b" {
		t.Errorf("Expected sess-b for proj-b, got %s", sid)
	}
}

func TestUpdateAgentStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if _, err := RegisterAgent(db, "proj-a", "claude", "sess-1"); err != nil {
		t.Fatalf("RegisterAgent failed: %v", err)
	}

	agent, err := UpdateAgentStatus(db, "proj-a", "claude", models.AgentStatusInactive, "refactoring auth")
	if err != nil {
		t.Fatalf("UpdateAgentStatus failed: %v", err)
	}
	if agent.Status != models.AgentStatusInactive {
		t.Errorf("Expected status=inactive, got %s", agent.Status)
	}
	if agent.Focus != "refactoring auth" {
		t.Errorf("Expected focus to be updated, got %q", agent.Focus)
	}
	if agent.SessionID != "sess-1" {
		t.Errorf("Status update must not touch session_id, got %q", agent.SessionID)
	}
}

func TestUpdateAgentStatusCreatesRow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// Status update for an agent that never registered still writes a row.
	agent, err := UpdateAgentStatus(db, "proj-a", "ghost", models.AgentStatusActive, "")
	if err != nil {
		t.Fatalf("UpdateAgentStatus failed: %v", err)
	}
	if agent.SessionID != "" {
		t.Errorf("Expected empty session_id for implicit row, got %q", agent.SessionID)
	}
	if agent.Focus != models.DefaultAgentFocus {
		t.Errorf("Expected default focus, got %q", agent.Focus)
	}
}

func TestUpdateAgentStatusRejectsUnknownStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if _, err := UpdateAgentStatus(db, "proj-a", "claude", "sleeping", ""); err == nil {
		t.Fatal("Expected error for invalid status, got nil")
	}
}

func TestGetSessionIDUnknownAgent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	sid, err := GetSessionID(db, "proj-a", "nobody")
	if err != nil {
		t.Fatalf("GetSessionID failed: %v", err)
	}
	if sid != "" {
		t.Errorf("Expected empty session for unknown agent, got %q", sid)
	}
}

func TestListAgentsEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	agents, err := ListAgents(db, "proj-a")
	if err != nil {
		t.Fatalf("ListAgents failed: %v", err)
	}
	if len(agents) != 0 {
		t.Errorf("Expected empty slice, got %d agents", len(agents))
	}
}
