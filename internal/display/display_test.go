package display

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/deeporganizer/internal/models"
)

func TestWarning_Display(t *testing.T) {
	var buf bytes.Buffer
	Warning{
		Title:      "Files not sampled",
		Message:    "The guard refused to read them",
		Files:      []string{"a.txt", "b.txt"},
		Suggestion: "Check the protected set",
	}.Display(&buf, false)

	out := buf.String()
	assert.Contains(t, out, "Warning: Files not sampled\n")
	assert.Contains(t, out, "    The guard refused to read them\n")
	assert.Contains(t, out, "    Affected files:\n      1. a.txt\n      2. b.txt\n")
	assert.Contains(t, out, "    Suggestion: Check the protected set\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestWarning_ColorAndLongLists(t *testing.T) {
	var files []string
	for i := 0; i < 12; i++ {
		files = append(files, fmt.Sprintf("f%d", i))
	}
	var buf bytes.Buffer
	Warning{Title: "Many", Files: files}.Display(&buf, true)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b[33m"))
	assert.True(t, strings.HasSuffix(out, "\x1b[0m"))
	assert.Contains(t, out, "10. f9")
	assert.Contains(t, out, "... and 2 more")
	assert.NotContains(t, out, "f10")
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	(&Table{
		Headers: []string{"A", "LONGER"},
		Rows:    [][]string{{"xyz", "1"}, {"q"}},
	}).Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A    LONGER", lines[0])
	assert.Equal(t, "---  ------", lines[1])
	assert.Equal(t, "xyz  1", lines[2])
	assert.Equal(t, "q", lines[3])
}

func TestRenderSummary(t *testing.T) {
	results := []models.ExecutionResult{
		{Action: models.CreateFolder("Docs"), Outcome: models.OutcomeSkippedDryRun, Preview: models.OutcomeApplied, Message: "would create folder Docs", FolderCreated: true},
		{Action: models.MoveFile(".env", "Docs"), Outcome: models.OutcomeSkippedDryRun, Preview: models.OutcomeRejected, Message: "would reject: protected"},
	}
	s := models.Summarize(results, 2)
	s.DryRun = true
	s.FilesScanned = 1
	s.RunID = "abc"

	var buf bytes.Buffer
	RenderSummary(&buf, s, false)
	out := buf.String()

	assert.Contains(t, out, "FILE  ACTION")
	assert.Contains(t, out, "Docs  create_folder  skipped_dry_run  would create folder Docs")
	assert.Contains(t, out, ".env  move_file      skipped_dry_run  would reject: protected")
	assert.Contains(t, out, "(dry run, nothing was changed)")
	assert.Contains(t, out, "A real run would reject 1 and fail 0 action(s).")
	assert.Contains(t, out, "Run ID: abc")
}

func TestRenderSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, &models.OrganizationSummary{}, false)
	assert.Contains(t, buf.String(), "No actions were executed.")

	buf.Reset()
	RenderSummary(&buf, nil, false)
	assert.Empty(t, buf.String())
}

func TestRenderInventory(t *testing.T) {
	entries := []models.DirectoryEntry{
		{RelPath: "Archive", IsDir: true},
		{RelPath: "link", IsSymlink: true},
		{RelPath: "notes.txt", Size: 12},
	}
	samples := []models.FileSample{{
		Entry:   entries[2],
		Snippet: models.ContentSnippet{Kind: models.ContentText, MIME: "text/plain", Text: "grocery\nlist"},
	}}

	var buf bytes.Buffer
	RenderInventory(&buf, entries, samples)
	out := buf.String()
	assert.Contains(t, out, "Archive    dir")
	assert.Contains(t, out, "link       symlink")
	assert.Contains(t, out, "notes.txt  file     12    text (text/plain)  grocery list")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
}

func TestColorEnabled_NonFile(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
}
