package board

import (
	"strings"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

// Fixed column schemas per section.
//
//nolint:gochecknoglobals // stable schema constants shared by codec and tests
var (
	agentColumns    = []string{"Agent ID", "Status", "Current Focus", "Session ID", "Last Heartbeat"}
	lockColumns     = []string{"File Pattern", "Claimed By", "Since"}
	taskColumns     = []string{"ID", "Title", "Assigned To", "From", "Status", "Created At"}
	externalColumns = []string{"ID", "Title", "From Project", "Context", "Status", "Received At"}
)

const timeLayout = time.RFC3339

// emptyCell is written for absent values so every cell stays non-blank.
const emptyCell = "-"

func encodeCell(s string) string {
	if s == "" {
		return emptyCell
	}
	return s
}

func decodeCell(s string) string {
	if s == emptyCell {
		return ""
	}
	return s
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return emptyCell
	}
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Legacy or hand-edited cell: absence beats a parse error here.
		return time.Time{}
	}
	return t
}

func encodeAgentRow(a *models.Agent) []string {
	return []string{
		a.ID,
		string(a.Status),
		encodeCell(a.Focus),
		encodeCell(a.SessionID),
		encodeTime(a.LastHeartbeat),
	}
}

// decodeAgentRow tolerates legacy 4-column rows that predate session
// tracking: the Session ID cell is treated as absent.
func decodeAgentRow(projectID string, row []string) *models.Agent {
	if len(row) == len(agentColumns)-1 {
		row = []string{row[0], row[1], row[2], emptyCell, row[3]}
	}
	if len(row) < len(agentColumns) {
		return nil
	}
	return &models.Agent{
		ID:            row[0],
		ProjectID:     projectID,
		Status:        models.AgentStatus(row[1]),
		Focus:         row[2],
		SessionID:     decodeCell(row[3]),
		LastHeartbeat: decodeTime(row[4]),
	}
}

func encodeLockRow(l *models.ResourceLock) []string {
	return []string{l.Resource, l.AgentID, encodeTime(l.AcquiredAt)}
}

func decodeLockRow(projectID string, row []string) *models.ResourceLock {
	if len(row) < len(lockColumns) {
		return nil
	}
	return &models.ResourceLock{
		Resource:   row[0],
		ProjectID:  projectID,
		AgentID:    row[1],
		AcquiredAt: decodeTime(row[2]),
	}
}

func encodeTaskRow(t *models.Task) []string {
	return []string{
		t.ID,
		t.Title,
		encodeCell(t.ClaimedBy),
		encodeCell(t.FromAgent),
		string(t.Status),
		encodeTime(t.CreatedAt),
	}
}

func decodeTaskRow(projectID string, row []string) *models.Task {
	if len(row) < len(taskColumns) {
		return nil
	}
	return &models.Task{
		ID:        row[0],
		ProjectID: projectID,
		Title:     row[1],
		ClaimedBy: decodeCell(row[2]),
		FromAgent: decodeCell(row[3]),
		Status:    models.TaskStatus(row[4]),
		CreatedAt: decodeTime(row[5]),
	}
}

// External request rows have no Assigned To column; a claim is recorded in
// the Status cell as "in_progress (agent)".
func encodeExternalRow(t *models.Task) []string {
	status := string(t.Status)
	if t.ClaimedBy != "" && t.Status == models.TaskStatusInProgress {
		status = status + " (" + t.ClaimedBy + ")"
	}
	return []string{
		t.ID,
		t.Title,
		t.FromProject,
		encodeCell(t.Description),
		status,
		encodeTime(t.CreatedAt),
	}
}

func decodeExternalRow(projectID string, row []string) *models.Task {
	if len(row) < len(externalColumns) {
		return nil
	}
	status, claimedBy := decodeStatusCell(row[4])
	return &models.Task{
		ID:          row[0],
		ProjectID:   projectID,
		Title:       row[1],
		FromProject: row[2],
		Description: decodeCell(row[3]),
		Status:      status,
		ClaimedBy:   claimedBy,
		CreatedAt:   decodeTime(row[5]),
	}
}

func decodeStatusCell(cell string) (models.TaskStatus, string) {
	if i := strings.IndexByte(cell, '('); i > 0 {
		status := strings.TrimSpace(cell[:i])
		claimer := strings.TrimSuffix(strings.TrimSpace(cell[i+1:]), ")")
		return models.TaskStatus(status), claimer
	}
	return models.TaskStatus(cell), ""
}
