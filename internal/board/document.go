package board

import "strings"

// Section header names, fixed by the document layout.
const (
	SectionAgents   = "Active Agents"
	SectionLocks    = "File Locks"
	SectionTasks    = "Pending Tasks"
	SectionExternal = "External Requests"
	SectionMessages = "Agent Messages"
)

const sectionPrefix = "## "

// Document is one project's coordination board, kept as raw lines so that
// replacing one section leaves every other byte of the document untouched.
// A section runs from its "## Name" header line to the next header or EOF.
type Document struct {
	lines []string
}

// ParseDocument wraps raw document content. Line endings are normalized to \n.
func ParseDocument(content string) *Document {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if content == "" {
		return &Document{}
	}
	return &Document{lines: strings.Split(strings.TrimRight(content, "\n"), "\n")}
}

// NewDocument creates a fresh board with all sections present and empty.
func NewDocument(projectID string) *Document {
	d := &Document{lines: []string{"# Coordination Board: " + projectID}}
	d.ReplaceSection(SectionAgents, Table{Columns: agentColumns}.Render())
	d.ReplaceSection(SectionLocks, Table{Columns: lockColumns}.Render())
	d.ReplaceSection(SectionTasks, Table{Columns: taskColumns}.Render())
	d.ReplaceSection(SectionExternal, Table{Columns: externalColumns}.Render())
	d.ReplaceSection(SectionMessages, nil)
	return d
}

// Section returns the body lines of the named section (header excluded), or
// nil when the section is absent.
func (d *Document) Section(name string) []string {
	start, end := d.sectionBounds(name)
	if start < 0 {
		return nil
	}
	return d.lines[start+1 : end]
}

// ReplaceSection swaps the named section's body, preserving all other
// sections verbatim and their relative order. A missing section is appended
// at the end of the document.
func (d *Document) ReplaceSection(name string, body []string) {
	replacement := make([]string, 0, len(body)+2)
	replacement = append(replacement, sectionPrefix+name)
	replacement = append(replacement, body...)
	replacement = append(replacement, "")

	start, end := d.sectionBounds(name)
	if start < 0 {
		if n := len(d.lines); n > 0 && d.lines[n-1] != "" {
			d.lines = append(d.lines, "")
		}
		d.lines = append(d.lines, replacement...)
		return
	}

	rebuilt := make([]string, 0, len(d.lines)-(end-start)+len(replacement))
	rebuilt = append(rebuilt, d.lines[:start]...)
	rebuilt = append(rebuilt, replacement...)
	rebuilt = append(rebuilt, d.lines[end:]...)
	d.lines = rebuilt
}

// String serializes the document.
func (d *Document) String() string {
	if len(d.lines) == 0 {
		return ""
	}
	return strings.Join(d.lines, "\n") + "\n"
}

// sectionBounds returns the index of the section header line and the index
// one past the section's last body line (i.e. the next header or EOF).
// Trailing blank lines before the next header belong to the section.
func (d *Document) sectionBounds(name string) (start, end int) {
	header := sectionPrefix + name
	start = -1
	for i, line := range d.lines {
		if strings.TrimSpace(line) == header {
			start = i
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	for j := start + 1; j < len(d.lines); j++ {
		if strings.HasPrefix(strings.TrimSpace(d.lines[j]), sectionPrefix) {
			return start, j
		}
	}
	return start, len(d.lines)
}
