// Package test provides integration tests that drive the real relay CLI
// against a temporary database and registry directory.
package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// relayTestBin is the path to the built relay binary for integration tests.
var relayTestBin string

// TestMain builds the relay binary once before running all tests in this package.
func TestMain(m *testing.M) {
	repoRoot, err := filepath.Abs(filepath.Join(filepath.Dir(os.Args[0]), "..", ".."))
	if err != nil {
		cwd, _ := os.Getwd()
		repoRoot = filepath.Join(cwd, "..")
	}

	// Prefer source-relative path when running via `go test ./test/...`
	cwd, _ := os.Getwd()
	if strings.HasSuffix(cwd, "/test") {
		repoRoot = filepath.Join(cwd, "..")
	} else if fi, err2 := os.Stat(filepath.Join(cwd, "cmd", "relay")); err2 == nil && fi.IsDir() {
		repoRoot = cwd
	}

	binPath := filepath.Join(repoRoot, "relay-integration-test")
	buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/relay")
	buildCmd.Dir = repoRoot
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr

	if err := buildCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to build relay binary: %v\n", err)
		os.Exit(1)
	}

	relayTestBin = binPath

	code := m.Run()

	_ = os.Remove(binPath)
	os.Exit(code)
}

// harness holds test-scoped state shared across helper functions.
type harness struct {
	t           *testing.T
	dbPath      string
	registryDir string
	agent       string
}

// newHarness creates a test harness with isolated temp state.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		t:           t,
		dbPath:      filepath.Join(dir, "relay.db"),
		registryDir: filepath.Join(dir, "registry"),
		agent:       "agent-alpha",
	}
}

// relay runs the relay binary as the harness's default agent, returns stdout.
// stderr (log lines) is discarded.
func (h *harness) relay(args ...string) string {
	h.t.Helper()
	return h.relayAs(h.agent, args...)
}

// relayAs runs the relay binary as a specific agent.
func (h *harness) relayAs(agent string, args ...string) string {
	h.t.Helper()
	fullArgs := append([]string{"--db-path", h.dbPath, "--registry-dir", h.registryDir, "--agent", agent}, args...)
	cmd := exec.Command(relayTestBin, fullArgs...)
	// Neutralize ambient relay configuration so tests are hermetic.
	cmd.Env = append(os.Environ(),
		"RELAY_DB_PATH=", "RELAY_REGISTRY_DIR=", "RELAY_BACKEND=",
		"RELAY_PROJECT=", "RELAY_AGENT=", "RELAY_SESSION_ID=", "RELAY_PRETTY_JSON=")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Commands exit non-zero on domain errors; the caller inspects the JSON.
	_ = cmd.Run()
	return stdout.String()
}

// mustJSON parses JSON output and returns map[string]any.
func mustJSON(t *testing.T, output string) map[string]any {
	t.Helper()
	output = strings.TrimSpace(output)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &m), "failed to parse JSON: %s", output)
	return m
}

// requireSuccess asserts the relay JSON response has success=true.
func requireSuccess(t *testing.T, output string) map[string]any {
	t.Helper()
	m := mustJSON(t, output)
	require.Equal(t, true, m["success"], "expected success=true, got: %s", output)
	return m
}

// requireErrorCode asserts a failed response carrying the given error code.
func requireErrorCode(t *testing.T, output, code string) map[string]any {
	t.Helper()
	m := mustJSON(t, output)
	require.Equal(t, false, m["success"], "expected success=false, got: %s", output)
	require.Equal(t, code, m["error_code"], "expected error_code %s, got: %s", code, output)
	return m
}

// getStr extracts a nested string field from the parsed JSON using dot-path.
func getStr(m map[string]any, keys ...string) string {
	var cur any = m
	for _, k := range keys {
		if mm, ok := cur.(map[string]any); ok {
			cur = mm[k]
		} else {
			return ""
		}
	}
	if s, ok := cur.(string); ok {
		return s
	}
	return ""
}

// getNum extracts a nested numeric field from the parsed JSON using dot-path.
func getNum(m map[string]any, keys ...string) float64 {
	var cur any = m
	for _, k := range keys {
		if mm, ok := cur.(map[string]any); ok {
			cur = mm[k]
		} else {
			return 0
		}
	}
	if n, ok := cur.(float64); ok {
		return n
	}
	return 0
}

// getBool extracts a nested bool field from the parsed JSON using dot-path.
func getBool(m map[string]any, keys ...string) bool {
	var cur any = m
	for _, k := range keys {
		if mm, ok := cur.(map[string]any); ok {
			cur = mm[k]
		} else {
			return false
		}
	}
	b, _ := cur.(bool)
	return b
}

// TestCoordinationScenario walks two agents and two projects through the
// whole coordination surface: registry, presence, locks, the task board,
// delegation, and the session journal.
func TestCoordinationScenario(t *testing.T) {
	h := newHarness(t)

	const (
		apiProject = "demo-api"
		webProject = "demo-web"
		beta       = "agent-beta"
	)

	var sessionID, authTaskID, delegatedTaskID string

	t.Run("Phase1_Registry", func(t *testing.T) {
		m := requireSuccess(t, h.relay("project", "register",
			"--id", apiProject,
			"--desc", "Payments API service",
			"--keywords", "payments,api,billing"))
		require.Equal(t, apiProject, getStr(m, "data", "project_id"))

		requireSuccess(t, h.relay("project", "register",
			"--id", webProject,
			"--desc", "Customer web frontend",
			"--keywords", "web,frontend"))

		// Merge on re-register: blank fields keep recorded values.
		m = requireSuccess(t, h.relay("project", "register", "--id", apiProject))
		require.Equal(t, "Payments API service", getStr(m, "data", "description"))

		out := h.relay("project", "discover", "-q", "payments")
		m = requireSuccess(t, out)
		require.GreaterOrEqual(t, getNum(m, "data", "count"), float64(1))
		require.Contains(t, out, apiProject)

		m = mustJSON(t, h.relay("project", "get", "--id", "ghost-project"))
		require.Equal(t, false, m["success"])
	})

	t.Run("Phase2_AgentPresence", func(t *testing.T) {
		m := requireSuccess(t, h.relay("session", "new"))
		sessionID = getStr(m, "data", "session_id")
		require.NotEmpty(t, sessionID)

		m = requireSuccess(t, h.relay("agent", "register", "--project", apiProject, "--session", sessionID))
		require.Equal(t, "active", getStr(m, "data", "status"))

		requireSuccess(t, h.relayAs(beta, "agent", "register", "--project", apiProject))

		m = requireSuccess(t, h.relay("agent", "status", "--project", apiProject,
			"--status", "active", "--focus", "auth refactor"))
		require.Equal(t, "auth refactor", getStr(m, "data", "focus"))

		// Re-registering without a session keeps the recorded one.
		requireSuccess(t, h.relay("agent", "register", "--project", apiProject))
		m = requireSuccess(t, h.relay("agent", "session", "--project", apiProject))
		require.Equal(t, sessionID, getStr(m, "data", "session_id"))

		m = requireSuccess(t, h.relay("agent", "list", "--project", apiProject))
		require.Equal(t, float64(2), getNum(m, "data", "count"))
	})

	t.Run("Phase3_ResourceLocks", func(t *testing.T) {
		m := requireSuccess(t, h.relay("lock", "claim", "--project", apiProject, "-r", "src/auth/"))
		require.Equal(t, h.agent, getStr(m, "data", "agent_id"))

		requireErrorCode(t, h.relayAs(beta, "lock", "claim", "--project", apiProject, "-r", "src/auth/"), "RESOURCE_HELD")

		// Release by a non-holder is a no-op.
		requireSuccess(t, h.relayAs(beta, "lock", "release", "--project", apiProject, "-r", "src/auth/"))
		out := h.relay("lock", "list", "--project", apiProject)
		requireSuccess(t, out)
		require.Contains(t, out, h.agent)

		// Handoff.
		requireSuccess(t, h.relay("lock", "release", "--project", apiProject, "-r", "src/auth/"))
		m = requireSuccess(t, h.relayAs(beta, "lock", "claim", "--project", apiProject, "-r", "src/auth/"))
		require.Equal(t, beta, getStr(m, "data", "agent_id"))
	})

	t.Run("Phase4_TaskBoard", func(t *testing.T) {
		m := requireSuccess(t, h.relay("task", "create", "--project", apiProject,
			"--title", "Implement token refresh",
			"--desc", "Access tokens expire after 15 minutes"))
		authTaskID = getStr(m, "data", "id")
		require.NotEmpty(t, authTaskID)
		require.Equal(t, "pending", getStr(m, "data", "status"))

		m = requireSuccess(t, h.relay("task", "create", "--project", apiProject,
			"--title", "Write integration tests"))
		testsTaskID := getStr(m, "data", "id")

		// Claim race: the second claimer loses.
		requireSuccess(t, h.relay("task", "claim", "--project", apiProject, "--id", authTaskID))
		requireErrorCode(t, h.relayAs(beta, "task", "claim", "--project", apiProject, "--id", authTaskID), "TASK_NOT_PENDING")

		m = requireSuccess(t, h.relay("task", "complete", "--project", apiProject, "--id", authTaskID))
		require.Equal(t, "completed", getStr(m, "data", "status"))

		// Terminal tasks stay terminal.
		m = mustJSON(t, h.relay("task", "complete", "--project", apiProject, "--id", authTaskID))
		require.Equal(t, false, m["success"])

		m = requireSuccess(t, h.relay("task", "cancel", "--project", apiProject, "--id", testsTaskID))
		require.Equal(t, "cancelled", getStr(m, "data", "status"))

		m = requireSuccess(t, h.relay("task", "list", "--project", apiProject, "--status", "completed"))
		require.Equal(t, float64(1), getNum(m, "data", "count"))
	})

	t.Run("Phase5_Delegation", func(t *testing.T) {
		m := requireSuccess(t, h.relay("--project", webProject, "delegate",
			"--to", apiProject,
			"--title", "Add rate limiting to payment endpoints",
			"--desc", "Checkout bursts are overwhelming the API",
			"--context", "seen during incident 42"))
		delegatedTaskID = getStr(m, "data", "task_id")
		require.NotEmpty(t, delegatedTaskID)
		require.False(t, getBool(m, "data", "is_duplicate"))

		// A retried request with trivial title drift is suppressed.
		m = requireSuccess(t, h.relay("--project", webProject, "delegate",
			"--to", apiProject,
			"--title", "add rate limiting to payment endpoints."))
		require.True(t, getBool(m, "data", "is_duplicate"))
		require.Equal(t, delegatedTaskID, getStr(m, "data", "task_id"))

		requireErrorCode(t, h.relay("--project", webProject, "delegate",
			"--to", "ghost-project", "--title", "Anything"), "PROJECT_NOT_FOUND")

		// The delegated task carries its origin and is claimable on the target.
		out := h.relay("task", "list", "--project", apiProject, "--status", "pending")
		requireSuccess(t, out)
		require.Contains(t, out, webProject)
	})

	t.Run("Phase6_SessionJournal", func(t *testing.T) {
		m := requireSuccess(t, h.relay("session", "log", "--project", apiProject,
			"-s", sessionID, "--type", "decision",
			"--data", `{"choice":"jwt"}`))
		require.True(t, getBool(m, "data", "logged"))

		requireSuccess(t, h.relay("session", "log", "--project", apiProject,
			"-s", sessionID, "--type", "read_file",
			"--data", `{"path":"src/auth/token.go"}`))

		// Empty session is a silent no-op.
		m = requireSuccess(t, h.relay("session", "log", "--project", apiProject, "--type", "decision"))
		require.False(t, getBool(m, "data", "logged"))

		out := h.relay("session", "history", "--project", apiProject, "-s", sessionID)
		m = requireSuccess(t, out)
		require.Equal(t, float64(2), getNum(m, "data", "count"))
		require.Contains(t, out, "jwt")
	})

	t.Run("Phase7_StatusAndIntrospection", func(t *testing.T) {
		m := requireSuccess(t, h.relay("status", "--project", apiProject))
		require.GreaterOrEqual(t, getNum(m, "data", "counts", "agents", "active"), float64(1))
		require.Equal(t, float64(2), getNum(m, "data", "counts", "events"))

		out := h.relay("schema", "commands")
		requireSuccess(t, out)
		require.Contains(t, out, "relay task create")
		require.Contains(t, out, "mutates")

		m = requireSuccess(t, h.relay("db", "version"))
		require.GreaterOrEqual(t, getNum(m, "data", "current"), float64(1))
	})
}

// TestBoardBackendScenario runs the core flows against the Markdown document
// backend instead of SQLite.
func TestBoardBackendScenario(t *testing.T) {
	h := newHarness(t)
	const project = "demo-board"

	requireSuccess(t, h.relay("--backend", "board", "agent", "register", "--project", project))
	requireSuccess(t, h.relay("--backend", "board", "lock", "claim", "--project", project, "-r", "docs/"))

	m := requireSuccess(t, h.relay("--backend", "board", "task", "create", "--project", project, "--title", "Refresh onboarding docs"))
	taskID := getStr(m, "data", "id")
	require.NotEmpty(t, taskID)

	requireSuccess(t, h.relay("--backend", "board", "task", "claim", "--project", project, "--id", taskID))
	requireErrorCode(t, h.relayAs("agent-beta", "--backend", "board", "task", "claim", "--project", project, "--id", taskID), "TASK_NOT_PENDING")

	// The board document on disk is human-readable.
	raw, err := os.ReadFile(filepath.Join(h.registryDir, project, "coordination.md"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "## Active Agents")
	require.Contains(t, string(raw), "docs/")
	require.Contains(t, string(raw), taskID)
}

// TestRegistryRecoversFromCorruption corrupts the registry file on disk and
// verifies reads keep working from the rebuilt file.
func TestRegistryRecoversFromCorruption(t *testing.T) {
	h := newHarness(t)

	// A board-backend write guarantees a project folder exists to recover from.
	requireSuccess(t, h.relay("--backend", "board", "agent", "register", "--project", "demo-board"))

	require.NoError(t, os.WriteFile(filepath.Join(h.registryDir, "projects.json"), []byte("{ not json"), 0o644))

	out := h.relay("project", "list")
	requireSuccess(t, out)
	require.Contains(t, out, "demo-board")
}

// TestConcurrentTaskClaims races several agents at one pending task and
// verifies exactly one claim wins.
func TestConcurrentTaskClaims(t *testing.T) {
	h := newHarness(t)
	const project = "demo-api"

	m := requireSuccess(t, h.relay("task", "create", "--project", project, "--title", "Contended work item"))
	taskID := getStr(m, "data", "id")
	require.NotEmpty(t, taskID)

	const workers = 5
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.relayAs(fmt.Sprintf("agent-%d", i), "task", "claim", "--project", project, "--id", taskID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, out := range results {
		m := mustJSON(t, out)
		if m["success"] == true {
			winners++
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent claim should win")
}
