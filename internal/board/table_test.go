package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTableRoundTrip(t *testing.T) {
	in := Table{
		Columns: []string{"ID", "Title", "Status"},
		Rows: [][]string{
			{"task_1", "Fix login", "pending"},
			{"task_2", "Add rate limiting", "in_progress"},
		},
	}

	out := ParseTable(in.Render())
	require.Equal(t, in.Columns, out.Columns)
	require.Equal(t, in.Rows, out.Rows)
}

func TestParseTableSkipsSeparatorsAndProse(t *testing.T) {
	lines := []string{
		"",
		"Some prose the parser must ignore.",
		"| ID | Title |",
		"| --- | --- |",
		"| :---: | ---- |",
		"| task_1 | Fix login |",
		"",
	}
	tbl := ParseTable(lines)
	require.Equal(t, []string{"ID", "Title"}, tbl.Columns)
	require.Equal(t, [][]string{{"task_1", "Fix login"}}, tbl.Rows)
}

func TestParseTableEmpty(t *testing.T) {
	tbl := ParseTable(nil)
	require.Nil(t, tbl.Columns)
	require.Empty(t, tbl.Rows)
}

func TestRenderPadsShortRows(t *testing.T) {
	tbl := Table{
		Columns: []string{"A", "B", "C"},
		Rows:    [][]string{{"1"}},
	}
	lines := tbl.Render()
	require.Len(t, lines, 3)
	require.Equal(t, 2, strings.Count(lines[2], "|")-1, "row should have one cell per column")

	reparsed := ParseTable(lines)
	require.Equal(t, [][]string{{"1", "", ""}}, reparsed.Rows)
}

func TestSanitizeCellNeutralizesStructure(t *testing.T) {
	tbl := Table{
		Columns: []string{"Msg"},
		Rows:    [][]string{{"a|b\nc"}},
	}
	out := ParseTable(tbl.Render())
	require.Equal(t, [][]string{{"a/b c"}}, out.Rows)
}

func TestFindRowAndRemoveRow(t *testing.T) {
	tbl := Table{
		Columns: []string{"ID", "Val"},
		Rows: [][]string{
			{"a", "1"},
			{"b", "2"},
			{"c", "3"},
		},
	}

	require.Equal(t, 1, tbl.FindRow(0, "b"))
	require.Equal(t, -1, tbl.FindRow(0, "zzz"))

	tbl.RemoveRow(1)
	require.Equal(t, [][]string{{"a", "1"}, {"c", "3"}}, tbl.Rows)
	require.Equal(t, -1, tbl.FindRow(0, "b"))
}
