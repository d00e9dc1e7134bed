package board

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

const sessionsDirName = "sessions"

func (s *Store) sessionLogPath(projectID, sessionID string) string {
	return filepath.Join(s.root, projectID, sessionsDirName, sessionID+".jsonl")
}

// LogEvent appends one JSON line to the per-session log, creating the
// containing directory lazily. An empty sessionID is a deliberate no-op:
// untracked sessions are not logged. O_APPEND keeps concurrent single-line
// appends intact without taking the board lock.
func (s *Store) LogEvent(projectID, sessionID string, event models.SessionEvent) error {
	if sessionID == "" {
		return nil
	}
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}
	if !event.Type.Valid() {
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
	// The cap keeps every appended line well under the history scanner's
	// buffer: an accepted append must always be readable back.
	if len(event.Data) > models.MaxEventDataLength {
		return fmt.Errorf("event data exceeds max length (%d)", models.MaxEventDataLength)
	}
	if len(event.Data) > 0 && !json.Valid(event.Data) {
		return fmt.Errorf("event data must be valid JSON")
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.ProjectID = projectID
	event.SessionID = sessionID

	path := s.sessionLogPath(projectID, sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // G302/G304: shared session log under trusted root
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// GetHistory returns the full ordered event sequence for a session. A
// session with no log file yields an empty slice; absence is not an error.
func (s *Store) GetHistory(projectID, sessionID string) ([]models.SessionEvent, error) {
	events := make([]models.SessionEvent, 0)
	if sessionID == "" {
		return events, nil
	}

	f, err := os.Open(s.sessionLogPath(projectID, sessionID)) //nolint:gosec // G304: path derived from trusted root
	if errors.Is(err, os.ErrNotExist) {
		return events, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev models.SessionEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("decode event line: %w", err)
		}
		ev.ID = int64(len(events) + 1)
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session log: %w", err)
	}
	return events, nil
}

// countEvents totals events across every session log of a project.
func (s *Store) countEvents(projectID string) (int, error) {
	dir := filepath.Join(s.root, projectID, sessionsDirName)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sessions dir: %w", err)
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		sessionID := e.Name()[:len(e.Name())-len(".jsonl")]
		events, err := s.GetHistory(projectID, sessionID)
		if err != nil {
			return 0, err
		}
		total += len(events)
	}
	return total, nil
}
