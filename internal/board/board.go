package board

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/mutex"
)

// BoardFileName is the coordination document inside each project directory.
// It is also the advisory lock name serializing writers on that project.
const BoardFileName = "coordination.md"

// Store implements the coordination contract over per-project Markdown
// documents rooted at one directory: <root>/<projectID>/coordination.md plus
// <root>/<projectID>/sessions/<sessionID>.jsonl for event logs.
type Store struct {
	root  string
	locks *mutex.Service
}

// Open creates a document store rooted at dir. lockTimeout <= 0 uses the
// mutex service default.
func Open(dir string, lockTimeout time.Duration) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("board root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create board root: %w", err)
	}
	return &Store{
		root:  dir,
		locks: mutex.NewService(filepath.Join(dir, ".locks"), lockTimeout),
	}, nil
}

// Root returns the directory this store is rooted at.
func (s *Store) Root() string { return s.root }

// Close is a no-op; the document store holds no persistent handles.
func (s *Store) Close() error { return nil }

func (s *Store) boardPath(projectID string) string {
	return filepath.Join(s.root, projectID, BoardFileName)
}

func (s *Store) lockName(projectID string) string {
	return projectID + "/" + BoardFileName
}

// loadDoc reads a project's board without locking. A missing file yields a
// fresh empty board.
func (s *Store) loadDoc(projectID string) (*Document, error) {
	b, err := os.ReadFile(s.boardPath(projectID)) //nolint:gosec // G304: path derived from trusted root
	if errors.Is(err, os.ErrNotExist) {
		return NewDocument(projectID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	return ParseDocument(string(b)), nil
}

// saveDoc writes the document via temp-file-and-rename so a concurrent
// reader never observes a state mixing old and new data.
func (s *Store) saveDoc(projectID string, doc *Document) error {
	path := s.boardPath(projectID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(doc.String()), 0o644); err != nil { //nolint:gosec // board is shared state, world-readable
		return fmt.Errorf("write board: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace board: %w", err)
	}
	return nil
}

// withBoard runs fn inside the project's exclusive lock, holding it for the
// full read-modify-write span. When fn fails, nothing is written back.
func (s *Store) withBoard(projectID string, fn func(doc *Document) error) error {
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}
	return s.locks.WithExclusive(s.lockName(projectID), func() error {
		doc, err := s.loadDoc(projectID)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return s.saveDoc(projectID, doc)
	})
}

func (s *Store) RegisterAgent(projectID, agentID, sessionID string) (*models.Agent, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	var agent *models.Agent
	err := s.withBoard(projectID, func(doc *Document) error {
		t := ParseTable(doc.Section(SectionAgents))
		if t.Columns == nil {
			t.Columns = agentColumns
		}

		prior := ""
		if i := t.FindRow(0, agentID); i >= 0 {
			if existing := decodeAgentRow(projectID, t.Rows[i]); existing != nil {
				prior = existing.SessionID
			}
			t.RemoveRow(i)
		}
		if sessionID == "" {
			sessionID = prior
		}

		agent = &models.Agent{
			ID:            agentID,
			ProjectID:     projectID,
			SessionID:     sessionID,
			Status:        models.AgentStatusActive,
			Focus:         models.DefaultAgentFocus,
			LastHeartbeat: time.Now().UTC().Truncate(time.Second),
		}
		t.Rows = append(t.Rows, encodeAgentRow(agent))
		doc.ReplaceSection(SectionAgents, t.Render())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *Store) UpdateAgentStatus(projectID, agentID string, status models.AgentStatus, focus string) (*models.Agent, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if status != models.AgentStatusActive && status != models.AgentStatusInactive {
		return nil, fmt.Errorf("invalid agent status: %s", status)
	}
	if focus == "" {
		focus = models.DefaultAgentFocus
	}

	var agent *models.Agent
	err := s.withBoard(projectID, func(doc *Document) error {
		t := ParseTable(doc.Section(SectionAgents))
		if t.Columns == nil {
			t.Columns = agentColumns
		}

		prior := ""
		if i := t.FindRow(0, agentID); i >= 0 {
			// Legacy rows without a Session ID cell are normalized by the
			// decode; the preserved value is simply empty.
			if existing := decodeAgentRow(projectID, t.Rows[i]); existing != nil {
				prior = existing.SessionID
			}
			t.RemoveRow(i)
		}

		agent = &models.Agent{
			ID:            agentID,
			ProjectID:     projectID,
			SessionID:     prior,
			Status:        status,
			Focus:         focus,
			LastHeartbeat: time.Now().UTC().Truncate(time.Second),
		}
		t.Rows = append(t.Rows, encodeAgentRow(agent))
		doc.ReplaceSection(SectionAgents, t.Render())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *Store) GetSessionID(projectID, agentID string) (string, error) {
	doc, err := s.loadDoc(projectID)
	if err != nil {
		return "", err
	}
	t := ParseTable(doc.Section(SectionAgents))
	i := t.FindRow(0, agentID)
	if i < 0 {
		return "", nil
	}
	agent := decodeAgentRow(projectID, t.Rows[i])
	if agent == nil {
		return "", nil
	}
	return agent.SessionID, nil
}

func (s *Store) ListAgents(projectID string) ([]*models.Agent, error) {
	doc, err := s.loadDoc(projectID)
	if err != nil {
		return nil, err
	}
	t := ParseTable(doc.Section(SectionAgents))
	agents := make([]*models.Agent, 0, len(t.Rows))
	for _, row := range t.Rows {
		if a := decodeAgentRow(projectID, row); a != nil {
			agents = append(agents, a)
		}
	}
	return agents, nil
}

func (s *Store) ClaimResource(projectID, agentID, resource string) (*models.ResourceLock, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if resource == "" {
		return nil, fmt.Errorf("resource is required")
	}

	var lock *models.ResourceLock
	err := s.withBoard(projectID, func(doc *Document) error {
		t := ParseTable(doc.Section(SectionLocks))
		if t.Columns == nil {
			t.Columns = lockColumns
		}

		if i := t.FindRow(0, resource); i >= 0 {
			existing := decodeLockRow(projectID, t.Rows[i])
			if existing != nil && existing.AgentID != agentID {
				return &coord.ResourceHeldError{
					Resource:    resource,
					ProjectID:   projectID,
					HeldBy:      existing.AgentID,
					RequestedBy: agentID,
				}
			}
			t.RemoveRow(i) // self-held: renew below with a fresh timestamp
		}

		lock = &models.ResourceLock{
			Resource:   resource,
			ProjectID:  projectID,
			AgentID:    agentID,
			AcquiredAt: time.Now().UTC().Truncate(time.Second),
		}
		t.Rows = append(t.Rows, encodeLockRow(lock))
		doc.ReplaceSection(SectionLocks, t.Render())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func (s *Store) ReleaseResource(projectID, agentID, resource string) error {
	return s.withBoard(projectID, func(doc *Document) error {
		t := ParseTable(doc.Section(SectionLocks))
		if t.Columns == nil {
			t.Columns = lockColumns
		}
		i := t.FindRow(0, resource)
		if i < 0 {
			return nil
		}
		existing := decodeLockRow(projectID, t.Rows[i])
		if existing == nil || existing.AgentID != agentID {
			// Mismatched release is a silent no-op, not a fault.
			return nil
		}
		t.RemoveRow(i)
		doc.ReplaceSection(SectionLocks, t.Render())
		return nil
	})
}

func (s *Store) ListLocks(projectID string) ([]*models.ResourceLock, error) {
	doc, err := s.loadDoc(projectID)
	if err != nil {
		return nil, err
	}
	t := ParseTable(doc.Section(SectionLocks))
	locks := make([]*models.ResourceLock, 0, len(t.Rows))
	for _, row := range t.Rows {
		if l := decodeLockRow(projectID, row); l != nil {
			locks = append(locks, l)
		}
	}
	return locks, nil
}

func (s *Store) CreateTask(projectID, title, description string) (*models.Task, error) {
	return s.createTask(projectID, title, description, "", "")
}

func (s *Store) CreateExternalTask(projectID, title, description, fromProject, fromAgent string) (*models.Task, error) {
	if fromProject == "" {
		return nil, fmt.Errorf("from project is required for external tasks")
	}
	return s.createTask(projectID, title, description, fromProject, fromAgent)
}

func (s *Store) createTask(projectID, title, description, fromProject, fromAgent string) (*models.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	task := &models.Task{
		ID:          coord.GenerateTaskID(),
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		FromProject: fromProject,
		FromAgent:   fromAgent,
		Status:      models.TaskStatusPending,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	err := s.withBoard(projectID, func(doc *Document) error {
		if task.IsExternal() {
			t := ParseTable(doc.Section(SectionExternal))
			if t.Columns == nil {
				t.Columns = externalColumns
			}
			t.Rows = append(t.Rows, encodeExternalRow(task))
			doc.ReplaceSection(SectionExternal, t.Render())
			return nil
		}
		t := ParseTable(doc.Section(SectionTasks))
		if t.Columns == nil {
			t.Columns = taskColumns
		}
		t.Rows = append(t.Rows, encodeTaskRow(task))
		doc.ReplaceSection(SectionTasks, t.Render())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) ClaimTask(projectID, taskID, agentID string) (*models.Task, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	return s.transitionTask(projectID, taskID, func(task *models.Task) error {
		if task.Status != models.TaskStatusPending {
			return &coord.TaskNotPendingError{TaskID: taskID, Status: task.Status, RequestedBy: agentID}
		}
		now := time.Now().UTC().Truncate(time.Second)
		task.Status = models.TaskStatusInProgress
		task.ClaimedBy = agentID
		task.ClaimedAt = &now
		return nil
	})
}

func (s *Store) CompleteTask(projectID, taskID string) (*models.Task, error) {
	return s.transitionTask(projectID, taskID, func(task *models.Task) error {
		if task.Status != models.TaskStatusInProgress {
			if task.Status.IsTerminal() {
				return fmt.Errorf("%w: %s is %s", coord.ErrTaskTerminal, taskID, task.Status)
			}
			return &coord.TaskNotPendingError{TaskID: taskID, Status: task.Status, Required: models.TaskStatusInProgress}
		}
		now := time.Now().UTC().Truncate(time.Second)
		task.Status = models.TaskStatusCompleted
		task.CompletedAt = &now
		return nil
	})
}

func (s *Store) CancelTask(projectID, taskID string) (*models.Task, error) {
	return s.transitionTask(projectID, taskID, func(task *models.Task) error {
		if task.Status.IsTerminal() {
			return fmt.Errorf("%w: %s is %s", coord.ErrTaskTerminal, taskID, task.Status)
		}
		now := time.Now().UTC().Truncate(time.Second)
		task.Status = models.TaskStatusCancelled
		task.CompletedAt = &now
		return nil
	})
}

// transitionTask applies mutate to the named task wherever it lives (local
// section or external requests), rewriting only that section.
func (s *Store) transitionTask(projectID, taskID string, mutate func(*models.Task) error) (*models.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is required")
	}

	var task *models.Task
	err := s.withBoard(projectID, func(doc *Document) error {
		for _, section := range []string{SectionTasks, SectionExternal} {
			t := ParseTable(doc.Section(section))
			i := t.FindRow(0, taskID)
			if i < 0 {
				continue
			}

			if section == SectionTasks {
				task = decodeTaskRow(projectID, t.Rows[i])
			} else {
				task = decodeExternalRow(projectID, t.Rows[i])
			}
			if task == nil {
				return fmt.Errorf("malformed task row: %s", taskID)
			}
			if err := mutate(task); err != nil {
				return err
			}

			if section == SectionTasks {
				t.Rows[i] = encodeTaskRow(task)
			} else {
				t.Rows[i] = encodeExternalRow(task)
			}
			doc.ReplaceSection(section, t.Render())
			return nil
		}
		return fmt.Errorf("%w: %s", coord.ErrTaskNotFound, taskID)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetAllTasks merges the local task section and external requests. Pure read.
func (s *Store) GetAllTasks(projectID string) ([]*models.Task, error) {
	doc, err := s.loadDoc(projectID)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0)
	t := ParseTable(doc.Section(SectionTasks))
	for _, row := range t.Rows {
		if task := decodeTaskRow(projectID, row); task != nil {
			tasks = append(tasks, task)
		}
	}
	ext := ParseTable(doc.Section(SectionExternal))
	for _, row := range ext.Rows {
		if task := decodeExternalRow(projectID, row); task != nil {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (s *Store) AppendMessage(projectID, agentID, message string) error {
	if agentID == "" {
		return fmt.Errorf("agent id is required")
	}
	if message == "" {
		return fmt.Errorf("message is required")
	}

	return s.withBoard(projectID, func(doc *Document) error {
		body := doc.Section(SectionMessages)
		entry := fmt.Sprintf("- [%s] %s: %s",
			time.Now().UTC().Format(timeLayout), agentID, strings.ReplaceAll(message, "\n", " "))
		// Newest entries are prepended.
		doc.ReplaceSection(SectionMessages, append([]string{entry}, body...))
		return nil
	})
}

func (s *Store) ListMessages(projectID string) ([]*models.Message, error) {
	doc, err := s.loadDoc(projectID)
	if err != nil {
		return nil, err
	}

	messages := make([]*models.Message, 0)
	for _, line := range doc.Section(SectionMessages) {
		if m := decodeMessageLine(projectID, line); m != nil {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

// decodeMessageLine parses "- [timestamp] agent: message". Unstructured
// bullet lines are kept with empty agent and timestamp rather than dropped.
func decodeMessageLine(projectID, line string) *models.Message {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- ") {
		return nil
	}
	trimmed = strings.TrimPrefix(trimmed, "- ")

	m := &models.Message{ProjectID: projectID, Message: trimmed}
	if strings.HasPrefix(trimmed, "[") {
		if end := strings.IndexByte(trimmed, ']'); end > 0 {
			m.Timestamp = decodeTime(trimmed[1:end])
			rest := strings.TrimSpace(trimmed[end+1:])
			if agent, msg, ok := strings.Cut(rest, ": "); ok {
				m.AgentID = agent
				m.Message = msg
			} else {
				m.Message = rest
			}
		}
	}
	return m
}

func (s *Store) Status(projectID string) (*models.StatusCounts, error) {
	agents, err := s.ListAgents(projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.GetAllTasks(projectID)
	if err != nil {
		return nil, err
	}
	locks, err := s.ListLocks(projectID)
	if err != nil {
		return nil, err
	}

	counts := &models.StatusCounts{Locks: len(locks)}
	for _, a := range agents {
		switch a.Status {
		case models.AgentStatusActive:
			counts.Agents.Active++
		case models.AgentStatusInactive:
			counts.Agents.Inactive++
		}
	}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskStatusPending:
			counts.Tasks.Pending++
		case models.TaskStatusInProgress:
			counts.Tasks.InProgress++
		case models.TaskStatusCompleted:
			counts.Tasks.Completed++
		case models.TaskStatusCancelled:
			counts.Tasks.Cancelled++
		}
	}
	counts.Events, err = s.countEvents(projectID)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
