package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/deeporganizer/internal/models"
)

// maxCell bounds the width of a table cell.
const maxCell = 60

// ColorEnabled reports whether w is a terminal that should receive colors.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Table is a plain column-aligned text table.
type Table struct {
	Headers []string
	Rows    [][]string
	// Colorize, when set, may wrap a padded cell in color codes.
	Colorize func(row, col int, cell string) string
}

// Render writes the table with two spaces between columns.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		rows[r] = make([]string, len(t.Headers))
		for c := range t.Headers {
			if c < len(row) {
				rows[r][c] = clip(row[c], maxCell)
			}
			if n := utf8.RuneCountInString(rows[r][c]); n > widths[c] {
				widths[c] = n
			}
		}
	}

	writeRow := func(r int, cells []string) {
		parts := make([]string, len(cells))
		for c, cell := range cells {
			padded := cell
			if c < len(cells)-1 {
				padded = pad(cell, widths[c])
			}
			if r >= 0 && t.Colorize != nil {
				padded = t.Colorize(r, c, padded)
			}
			parts[c] = padded
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	writeRow(-1, t.Headers)
	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	fmt.Fprintln(w, strings.Join(sep, "  "))
	for r, row := range rows {
		writeRow(r, row)
	}
}

// RenderSummary prints one row per executed action followed by the counts.
func RenderSummary(w io.Writer, s *models.OrganizationSummary, useColor bool) {
	if s == nil {
		return
	}

	if len(s.Rows) == 0 {
		fmt.Fprintln(w, "No actions were executed.")
	} else {
		t := &Table{Headers: []string{"FILE", "ACTION", "OUTCOME", "MESSAGE"}}
		for _, r := range s.Rows {
			t.Rows = append(t.Rows, []string{r.File, r.Action, string(r.Outcome), r.Message})
		}
		if useColor {
			t.Colorize = func(row, col int, cell string) string {
				if col != 2 {
					return cell
				}
				return outcomeColor(s.Rows[row].Outcome).Sprint(cell)
			}
		}
		t.Render(w)
	}

	fmt.Fprintln(w)
	mode := ""
	if s.DryRun {
		mode = " (dry run, nothing was changed)"
	}
	fmt.Fprintf(w, "Scanned %d file(s): %d folder(s) created, %d file(s) moved, %d skipped, %d rejected, %d failed%s\n",
		s.FilesScanned, s.FoldersCreated, s.FilesMoved, s.Skipped, s.Rejected, s.Failed, mode)
	if s.DryRun && (s.WouldReject > 0 || s.WouldFail > 0) {
		fmt.Fprintf(w, "A real run would reject %d and fail %d action(s).\n", s.WouldReject, s.WouldFail)
	}
	if s.Canceled {
		fmt.Fprintf(w, "Run canceled: %d action(s) not attempted.\n", s.NotAttempted)
	}
	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", s.RunID)
	}
}

// RenderInventory prints scanned entries with their sample classification.
func RenderInventory(w io.Writer, entries []models.DirectoryEntry, samples []models.FileSample) {
	byPath := make(map[string]models.ContentSnippet, len(samples))
	for _, s := range samples {
		byPath[s.Entry.RelPath] = s.Snippet
	}

	t := &Table{Headers: []string{"PATH", "TYPE", "SIZE", "CONTENT", "PREVIEW"}}
	for _, e := range entries {
		kind := "file"
		switch {
		case e.IsSymlink:
			kind = "symlink"
		case e.IsDir:
			kind = "dir"
		}
		size := ""
		if !e.IsDir {
			size = fmt.Sprintf("%d", e.Size)
		}
		content, preview := "", ""
		if snip, ok := byPath[e.RelPath]; ok {
			content = snip.Kind.String()
			if snip.MIME != "" {
				content += " (" + snip.MIME + ")"
			}
			preview = strings.Join(strings.Fields(snip.Text), " ")
		}
		t.Rows = append(t.Rows, []string{e.RelPath, kind, size, content, preview})
	}
	t.Render(w)
}

func outcomeColor(o models.Outcome) *color.Color {
	switch o {
	case models.OutcomeApplied:
		return color.New(color.FgGreen)
	case models.OutcomeRejected:
		return color.New(color.FgYellow)
	case models.OutcomeFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
