package formatter

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable_Empty(t *testing.T) {
	assert.Empty(t, RenderTable(nil, nil))
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(
		[]string{"ID", "Status"},
		[][]string{
			{"abc123", "pending"},
			{"x", "posted"},
		})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "header, separator, two data rows")

	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[0], "Status")
	assert.Contains(t, lines[2], "abc123")
	assert.Contains(t, lines[3], "x")

	// Second column starts at the same offset in every data row.
	assert.Equal(t, strings.Index(lines[2], "pending"), strings.Index(lines[3], "posted"))
}

func TestRenderTable_StyledHeaderKeepsAlignment(t *testing.T) {
	out := RenderTable([]string{"Handle"}, [][]string{{"@alexander"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	// Width is measured on visible characters, so the separator matches
	// the widest cell regardless of styling escape codes.
	assert.Equal(t, lipgloss.Width(lines[2]), lipgloss.Width(lines[1]))
}
