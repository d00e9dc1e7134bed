package demo

// DemoContext holds shared state passed between steps.
type DemoContext struct {
	SessionID       string
	AuthTaskID      string
	TestsTaskID     string
	DelegatedTaskID string
}

// StepFunc is a function that runs a single demo step.
type StepFunc func(r *Runner, ctx *DemoContext) error

// Step represents a single named step within an act.
type Step struct {
	Name    string
	Fn      StepFunc
	Insight string
}

// Act represents a named act with narration and steps.
type Act struct {
	Number    int
	Name      string
	Narration []string
	Steps     []Step
}

// BuildActs returns all acts with their steps.
func BuildActs() []Act {
	return []Act{
		{
			Number: 1,
			Name:   "Two Projects, One Registry",
			Narration: []string{
				"Register projects in the shared registry so agents can find each other later.",
				"Cards carry a path, a description, and discovery keywords.",
			},
			Steps: []Step{
				{Name: "register_api_project", Fn: stepRegisterAPIProject, Insight: "One card per project. Registration merges: re-registering with blank fields never erases what is already recorded."},
				{Name: "register_web_project", Fn: stepRegisterWebProject, Insight: "A second project in the same registry. Delegation in Act 5 routes work between these two."},
				{Name: "fetch_project_card", Fn: stepFetchProjectCard, Insight: "Any agent can read any card. This is how a frontend agent learns where the API code lives."},
				{Name: "discover_by_keyword", Fn: stepDiscoverByKeyword, Insight: "Discovery matches id, description, and keywords. Agents find delegation targets without hardcoding project names."},
				{Name: "sync_registry", Fn: stepSyncRegistry, Insight: "Sync re-indexes every card for discovery. Safe to run any time."},
			},
		},
		{
			Number: 2,
			Name:   "Agents Come Online",
			Narration: []string{
				"Agents announce themselves per project with a session identity and a focus.",
				"Registration is idempotent, so agents can re-register on every startup.",
			},
			Steps: []Step{
				{Name: "mint_session", Fn: stepMintSession, Insight: "A fresh session ID. Everything the agent does this session is attributable to it."},
				{Name: "register_alpha", Fn: stepRegisterAlpha, Insight: "agent-alpha is now visible to every other agent in the project."},
				{Name: "register_beta", Fn: stepRegisterBeta, Insight: "Two agents, one project. From now on they coordinate through locks and the task board."},
				{Name: "set_focus", Fn: stepSetFocus, Insight: "Focus is a human-readable hint. Other agents see what alpha is working on before touching the same area."},
				{Name: "session_survives_reregister", Fn: stepSessionSurvivesReregister, Insight: "Re-registering without a session keeps the recorded one. Restarting an agent never loses its session identity."},
				{Name: "list_agents", Fn: stepListAgents, Insight: "The roster for the project. Supervisors poll this to see who is online."},
			},
		},
		{
			Number: 3,
			Name:   "Exclusive Locks",
			Narration: []string{
				"Advisory locks over named resources keep two agents out of the same files.",
				"Claims are exclusive, renewable by the holder, and released explicitly.",
			},
			Steps: []Step{
				{Name: "claim_resource", Fn: stepClaimResource, Insight: "alpha now holds src/auth/. The lock names a resource, not a file descriptor: globs and directories work too."},
				{Name: "conflicting_claim_fails", Fn: stepConflictingClaimFails, Insight: "beta's claim is refused with the holder's name. beta can wait, work elsewhere, or negotiate."},
				{Name: "foreign_release_is_noop", Fn: stepForeignReleaseIsNoop, Insight: "Only the holder can release. A stray release from another agent changes nothing."},
				{Name: "lock_handoff", Fn: stepLockHandoff, Insight: "alpha releases, beta claims. Locks hand off cleanly with a fresh acquisition timestamp."},
				{Name: "list_locks", Fn: stepListLocks, Insight: "The full lock table for the project. One glance shows who holds what."},
			},
		},
		{
			Number: 4,
			Name:   "The Task Board",
			Narration: []string{
				"A per-project board of claimable work items.",
				"Claiming is compare-and-set, so exactly one agent wins each task.",
			},
			Steps: []Step{
				{Name: "create_tasks", Fn: stepCreateTasks, Insight: "Two pending tasks on the board, unclaimed. Any agent in the project can pick them up."},
				{Name: "claim_race", Fn: stepClaimRace, Insight: "alpha claims first, so beta's claim fails with the current status. No double work."},
				{Name: "complete_task", Fn: stepCompleteTask, Insight: "Only an in-progress task can complete. The board records when and by whom."},
				{Name: "terminal_tasks_stay_terminal", Fn: stepTerminalTasksStayTerminal, Insight: "Completed and cancelled are terminal. Replayed completions fail instead of corrupting history."},
				{Name: "cancel_task", Fn: stepCancelTask, Insight: "Cancellation works from pending or in-progress. Obsolete work leaves the queue without being faked as done."},
				{Name: "list_by_status", Fn: stepListByStatus, Insight: "Status filters answer the everyday questions: what is pending, what is stuck in progress."},
			},
		},
		{
			Number: 5,
			Name:   "Cross-Project Delegation",
			Narration: []string{
				"An agent in one project files work onto another project's board.",
				"Near-duplicate titles are suppressed, so retried requests never mint duplicates.",
			},
			Steps: []Step{
				{Name: "delegate_across_projects", Fn: stepDelegateAcrossProjects, Insight: "The web project just created a task on the API project's board, stamped with its origin."},
				{Name: "retry_is_deduplicated", Fn: stepRetryIsDeduplicated, Insight: "Same request again: the existing task comes back with is_duplicate=true. Retries after timeouts are safe."},
				{Name: "unknown_target_rejected", Fn: stepUnknownTargetRejected, Insight: "Delegating to an unregistered project fails cleanly. Nothing is created anywhere."},
			},
		},
		{
			Number: 6,
			Name:   "The Session Journal",
			Narration: []string{
				"An append-only per-session event log reconstructs what an agent did.",
				"Unattributed events are silently dropped rather than failing the caller.",
			},
			Steps: []Step{
				{Name: "log_decision", Fn: stepLogDecision, Insight: "Decisions with JSON payloads. The next session reads why JWT was chosen without re-deriving it."},
				{Name: "log_file_read", Fn: stepLogFileRead, Insight: "Reads, searches, and indexing all land in the same journal, in insertion order."},
				{Name: "empty_session_is_noop", Fn: stepEmptySessionIsNoop, Insight: "No session ID means no row and no error. Instrumentation never breaks the tool it instruments."},
				{Name: "replay_history", Fn: stepReplayHistory, Insight: "The whole session replayed in order. This is the crash-recovery story: state lives here, not in a context window."},
			},
		},
		{
			Number: 7,
			Name:   "Recovery and Introspection",
			Narration: []string{
				"Project-level counters, registry self-healing, the document backend, and the machine-readable CLI surface.",
			},
			Steps: []Step{
				{Name: "status_counts", Fn: stepStatusCounts, Insight: "One call summarizes agents, tasks, locks, and events. Dashboards and supervisors start here."},
				{Name: "board_backend", Fn: stepBoardBackend, Insight: "The same commands against --backend board write human-readable Markdown instead of SQLite."},
				{Name: "registry_self_heals", Fn: stepRegistrySelfHeals, Insight: "A corrupted registry file is backed up and rebuilt from the project folders on disk. Reads keep working."},
				{Name: "inspect_schema", Fn: stepInspectSchema, Insight: "Full command argument schemas with mutation hints. Agents discover the CLI surface without parsing help text."},
				{Name: "db_introspection", Fn: stepDBIntrospection, Insight: "Schema version and database path on demand. The first thing to check when debugging an environment."},
			},
		},
	}
}
