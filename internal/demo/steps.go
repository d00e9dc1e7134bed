package demo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotcommander/relay/internal/registry"
)

const (
	apiProject   = "demo-api"
	webProject   = "demo-web"
	boardProject = "demo-board"
	betaAgent    = "agent-beta"
	authResource = "src/auth/"
)

// Act 1: Two Projects, One Registry

func stepRegisterAPIProject(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("project", "register",
		"--id", apiProject,
		"--desc", "Payments API service",
		"--keywords", "payments,api,billing")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if got := getStr(m, "data", "project_id"); got != apiProject {
		return fmt.Errorf("expected project_id %s, got %q", apiProject, got)
	}
	return nil
}

func stepRegisterWebProject(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("project", "register",
		"--id", webProject,
		"--desc", "Customer web frontend",
		"--keywords", "web,frontend")
	if err != nil {
		return err
	}
	return r.mustSuccess(m, raw)
}

func stepFetchProjectCard(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("project", "get", "--id", apiProject)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if desc := getStr(m, "data", "description"); desc != "Payments API service" {
		return fmt.Errorf("unexpected description %q", desc)
	}
	return nil
}

func stepDiscoverByKeyword(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("project", "discover", "-q", "payments")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if getNum(m, "data", "count") < 1 {
		return fmt.Errorf("expected at least one match: %s", raw)
	}
	if !strings.Contains(raw, apiProject) {
		return fmt.Errorf("expected %s in results: %s", apiProject, raw)
	}
	r.printDetail("matched %s for query %q", apiProject, "payments")
	return nil
}

func stepSyncRegistry(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("project", "sync")
	if err != nil {
		return err
	}
	return r.mustSuccess(m, raw)
}

// Act 2: Agents Come Online

func stepMintSession(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("session", "new")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	ctx.SessionID = getStr(m, "data", "session_id")
	if ctx.SessionID == "" {
		return fmt.Errorf("empty session_id: %s", raw)
	}
	r.printDetail("session %s", ctx.SessionID)
	return nil
}

func stepRegisterAlpha(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("agent", "register", "--project", apiProject, "--session", ctx.SessionID)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if status := getStr(m, "data", "status"); status != "active" {
		return fmt.Errorf("expected active agent, got %q", status)
	}
	return nil
}

func stepRegisterBeta(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relayAs(betaAgent, "agent", "register", "--project", apiProject)
	if err != nil {
		return err
	}
	return r.mustSuccess(m, raw)
}

func stepSetFocus(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("agent", "status", "--project", apiProject,
		"--status", "active", "--focus", "auth refactor")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if focus := getStr(m, "data", "focus"); focus != "auth refactor" {
		return fmt.Errorf("expected focus to stick, got %q", focus)
	}
	return nil
}

func stepSessionSurvivesReregister(r *Runner, ctx *DemoContext) error {
	// Re-register without --session, then read the recorded identity back.
	if m, raw, err := r.relay("agent", "register", "--project", apiProject); err != nil {
		return err
	} else if err := r.mustSuccess(m, raw); err != nil {
		return err
	}

	m, raw, err := r.relay("agent", "session", "--project", apiProject)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if got := getStr(m, "data", "session_id"); got != ctx.SessionID {
		return fmt.Errorf("expected session %s to survive, got %q", ctx.SessionID, got)
	}
	return nil
}

func stepListAgents(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("agent", "list", "--project", apiProject)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if n := getNum(m, "data", "count"); n != 2 {
		return fmt.Errorf("expected 2 agents, got %v", n)
	}
	return nil
}

// Act 3: Exclusive Locks

func stepClaimResource(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("lock", "claim", "--project", apiProject, "-r", authResource)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if holder := getStr(m, "data", "agent_id"); holder != r.agent {
		return fmt.Errorf("expected holder %s, got %q", r.agent, holder)
	}
	return nil
}

func stepConflictingClaimFails(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relayAs(betaAgent, "lock", "claim", "--project", apiProject, "-r", authResource)
	if err != nil {
		return err
	}
	if err := r.mustFailWith("RESOURCE_HELD", m, raw); err != nil {
		return err
	}
	r.printDetail("refused: %s", getStr(m, "error"))
	return nil
}

func stepForeignReleaseIsNoop(r *Runner, ctx *DemoContext) error {
	if m, raw, err := r.relayAs(betaAgent, "lock", "release", "--project", apiProject, "-r", authResource); err != nil {
		return err
	} else if err := r.mustSuccess(m, raw); err != nil {
		return err
	}

	// The lock must still belong to alpha.
	m, raw, err := r.relay("lock", "list", "--project", apiProject)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if !strings.Contains(raw, r.agent) {
		return fmt.Errorf("expected %s to still hold the lock: %s", r.agent, raw)
	}
	return nil
}

func stepLockHandoff(r *Runner, ctx *DemoContext) error {
	if m, raw, err := r.relay("lock", "release", "--project", apiProject, "-r", authResource); err != nil {
		return err
	} else if err := r.mustSuccess(m, raw); err != nil {
		return err
	}

	m, raw, err := r.relayAs(betaAgent, "lock", "claim", "--project", apiProject, "-r", authResource)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if holder := getStr(m, "data", "agent_id"); holder != betaAgent {
		return fmt.Errorf("expected holder %s, got %q", betaAgent, holder)
	}
	return nil
}

func stepListLocks(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("lock", "list", "--project", apiProject)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if n := getNum(m, "data", "count"); n != 1 {
		return fmt.Errorf("expected 1 lock, got %v", n)
	}
	return nil
}

// Act 4: The Task Board

func stepCreateTasks(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("task", "create", "--project", apiProject,
		"--title", "Implement token refresh",
		"--desc", "Access tokens expire after 15 minutes")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	ctx.AuthTaskID = getStr(m, "data", "id")
	if ctx.AuthTaskID == "" {
		return fmt.Errorf("empty task id: %s", raw)
	}

	m, raw, err = r.relay("task", "create", "--project", apiProject,
		"--title", "Write integration tests")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	ctx.TestsTaskID = getStr(m, "data", "id")
	r.printDetail("created %s and %s", ctx.AuthTaskID, ctx.TestsTaskID)
	return nil
}

func stepClaimRace(r *Runner, ctx *DemoContext) error {
	if m, raw, err := r.relay("task", "claim", "--project", apiProject, "--id", ctx.AuthTaskID); err != nil {
		return err
	} else if err := r.mustSuccess(m, raw); err != nil {
		return err
	}

	m, raw, err := r.relayAs(betaAgent, "task", "claim", "--project", apiProject, "--id", ctx.AuthTaskID)
	if err != nil {
		return err
	}
	return r.mustFailWith("TASK_NOT_PENDING", m, raw)
}

func stepCompleteTask(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("task", "complete", "--project", apiProject, "--id", ctx.AuthTaskID)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if status := getStr(m, "data", "status"); status != "completed" {
		return fmt.Errorf("expected completed, got %q", status)
	}
	return nil
}

func stepTerminalTasksStayTerminal(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("task", "complete", "--project", apiProject, "--id", ctx.AuthTaskID)
	if err != nil {
		return err
	}
	if m == nil || m["success"] == true {
		return fmt.Errorf("expected replayed completion to fail: %s", raw)
	}
	return nil
}

func stepCancelTask(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("task", "cancel", "--project", apiProject, "--id", ctx.TestsTaskID)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if status := getStr(m, "data", "status"); status != "cancelled" {
		return fmt.Errorf("expected cancelled, got %q", status)
	}
	return nil
}

func stepListByStatus(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("task", "list", "--project", apiProject, "--status", "completed")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if n := getNum(m, "data", "count"); n != 1 {
		return fmt.Errorf("expected 1 completed task, got %v", n)
	}
	return nil
}

// Act 5: Cross-Project Delegation

func stepDelegateAcrossProjects(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("--project", webProject, "delegate",
		"--to", apiProject,
		"--title", "Add rate limiting to payment endpoints",
		"--desc", "Checkout bursts are overwhelming the API",
		"--context", "seen during incident 42")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	ctx.DelegatedTaskID = getStr(m, "data", "task_id")
	if ctx.DelegatedTaskID == "" {
		return fmt.Errorf("empty delegated task id: %s", raw)
	}
	if getBool(m, "data", "is_duplicate") {
		return fmt.Errorf("first delegation flagged as duplicate: %s", raw)
	}
	return nil
}

func stepRetryIsDeduplicated(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("--project", webProject, "delegate",
		"--to", apiProject,
		"--title", "Add rate limiting to payment endpoints")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if !getBool(m, "data", "is_duplicate") {
		return fmt.Errorf("expected duplicate suppression: %s", raw)
	}
	if got := getStr(m, "data", "task_id"); got != ctx.DelegatedTaskID {
		return fmt.Errorf("expected existing task %s, got %q", ctx.DelegatedTaskID, got)
	}
	r.printDetail("similarity %.2f against existing task", getNum(m, "data", "similarity"))
	return nil
}

func stepUnknownTargetRejected(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("--project", webProject, "delegate",
		"--to", "ghost-project",
		"--title", "Anything at all")
	if err != nil {
		return err
	}
	return r.mustFailWith("PROJECT_NOT_FOUND", m, raw)
}

// Act 6: The Session Journal

func stepLogDecision(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("session", "log", "--project", apiProject,
		"-s", ctx.SessionID,
		"--type", "decision",
		"--data", `{"choice":"jwt","reason":"stateless verification"}`)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if !getBool(m, "data", "logged") {
		return fmt.Errorf("expected logged=true: %s", raw)
	}
	return nil
}

func stepLogFileRead(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("session", "log", "--project", apiProject,
		"-s", ctx.SessionID,
		"--type", "read_file",
		"--data", `{"path":"src/auth/token.go"}`)
	if err != nil {
		return err
	}
	return r.mustSuccess(m, raw)
}

func stepEmptySessionIsNoop(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("session", "log", "--project", apiProject, "--type", "decision")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if getBool(m, "data", "logged") {
		return fmt.Errorf("expected silent no-op without a session: %s", raw)
	}
	return nil
}

func stepReplayHistory(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("session", "history", "--project", apiProject, "-s", ctx.SessionID)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if n := getNum(m, "data", "count"); n != 2 {
		return fmt.Errorf("expected 2 events, got %v", n)
	}
	if !strings.Contains(raw, "jwt") {
		return fmt.Errorf("expected event payload in history: %s", raw)
	}
	return nil
}

// Act 7: Recovery and Introspection

func stepStatusCounts(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("status", "--project", apiProject)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if n := getNum(m, "data", "counts", "agents", "active"); n < 1 {
		return fmt.Errorf("expected active agents in counts: %s", raw)
	}
	r.printDetail("locks=%v events=%v", getNum(m, "data", "counts", "locks"), getNum(m, "data", "counts", "events"))
	return nil
}

func stepBoardBackend(r *Runner, ctx *DemoContext) error {
	if m, raw, err := r.relay("--backend", "board", "agent", "register", "--project", boardProject); err != nil {
		return err
	} else if err := r.mustSuccess(m, raw); err != nil {
		return err
	}

	m, raw, err := r.relay("--backend", "board", "agent", "list", "--project", boardProject)
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if n := getNum(m, "data", "count"); n != 1 {
		return fmt.Errorf("expected 1 agent on the board backend, got %v", n)
	}
	r.printDetail("board file: %s", filepath.Join(r.registryDir, boardProject, "coordination.md"))
	return nil
}

func stepRegistrySelfHeals(r *Runner, ctx *DemoContext) error {
	path := filepath.Join(r.registryDir, registry.FileName)
	if err := os.WriteFile(path, []byte("{ this is not json"), 0o644); err != nil {
		return fmt.Errorf("corrupt registry file: %w", err)
	}

	m, raw, err := r.relay("project", "list")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	// The rebuilt registry is recovered from project folders on disk; the
	// board backend step above guarantees at least one exists.
	if !strings.Contains(raw, boardProject) {
		return fmt.Errorf("expected %s in recovered registry: %s", boardProject, raw)
	}
	return nil
}

func stepInspectSchema(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("schema", "commands")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if !strings.Contains(raw, "relay task create") || !strings.Contains(raw, "mutates") {
		return fmt.Errorf("expected command schemas with mutation hints: %s", raw)
	}
	return nil
}

func stepDBIntrospection(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.relay("db", "version")
	if err != nil {
		return err
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if getNum(m, "data", "current") < 1 {
		return fmt.Errorf("expected a migrated schema: %s", raw)
	}
	return nil
}
