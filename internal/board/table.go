// Package board is the document coordination backend: one human-readable
// Markdown table document per project, with fixed sections for agents, file
// locks, tasks, external requests, and messages. Every read-modify-write
// holds the project's named advisory lock; a section write fully replaces
// that section and preserves all other sections verbatim.
package board

import "strings"

// Table is an ordered-row table with a stable column schema. It is the
// generic collection shape behind every board section; the Markdown document
// is one serialization of it, the relational schema another.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ParseTable reads a pipe-delimited table from section lines. The first pipe
// row is the column header; separator rows (cells of dashes) are skipped;
// cells are trimmed. Lines that are not pipe rows are ignored.
func ParseTable(lines []string) Table {
	var t Table
	for _, line := range lines {
		cells, ok := splitRow(line)
		if !ok {
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}
		if t.Columns == nil {
			t.Columns = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Render serializes the table as Markdown lines: column header, separator,
// then all rows. Rows shorter than the column set are padded so the document
// stays rectangular.
func (t Table) Render() []string {
	lines := make([]string, 0, len(t.Rows)+2)
	lines = append(lines, renderRow(t.Columns))

	sep := make([]string, len(t.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, renderRow(sep))

	for _, row := range t.Rows {
		padded := row
		if len(row) < len(t.Columns) {
			padded = append(append([]string{}, row...), make([]string, len(t.Columns)-len(row))...)
		}
		lines = append(lines, renderRow(padded))
	}
	return lines
}

// FindRow returns the index of the first row whose keyCol cell equals value,
// or -1.
func (t Table) FindRow(keyCol int, value string) int {
	for i, row := range t.Rows {
		if keyCol < len(row) && row[keyCol] == value {
			return i
		}
	}
	return -1
}

// RemoveRow deletes the row at index i.
func (t *Table) RemoveRow(i int) {
	t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
}

func splitRow(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") {
		return nil, false
	}
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells, true
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if c == "" {
			continue
		}
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

func renderRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = sanitizeCell(c)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

// sanitizeCell keeps a cell from breaking the row structure. Pipes and
// newlines cannot be represented in this format.
func sanitizeCell(c string) string {
	c = strings.ReplaceAll(c, "|", "/")
	c = strings.ReplaceAll(c, "\n", " ")
	return c
}
