package organizer

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/deeporganizer/internal/executor"
	"github.com/harrison/deeporganizer/internal/guard"
	"github.com/harrison/deeporganizer/internal/history"
	"github.com/harrison/deeporganizer/internal/models"
	"github.com/harrison/deeporganizer/internal/planner"
)

// fakePlanner returns a fixed plan and records the request it saw.
type fakePlanner struct {
	plan   *models.OrganizationPlan
	err    error
	calls  int
	req    planner.PlanRequest
	during func()
}

func (f *fakePlanner) Name() string { return "fake:planner" }

func (f *fakePlanner) Plan(ctx context.Context, req planner.PlanRequest) (*models.OrganizationPlan, error) {
	f.calls++
	f.req = req
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.plan, nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		if content == "/" {
			require.NoError(t, os.MkdirAll(path, 0755))
			continue
		}
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func standardPlan() *models.OrganizationPlan {
	return &models.OrganizationPlan{Actions: []models.PlannedAction{
		models.CreateFolder("Documents"),
		models.CreateFolder("Notes"),
		models.MoveFile("report.pdf", "Documents"),
		models.MoveFile("notes.txt", "Notes"),
	}}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	p := &fakePlanner{}

	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"empty root", Options{Planner: p}, "root"},
		{"missing root", Options{Root: filepath.Join(dir, "missing"), Planner: p}, "root"},
		{"root is a file", Options{Root: file, Planner: p}, "root"},
		{"negative read size", Options{Root: dir, MaxFileReadSize: -1, Planner: p}, "max_file_read_size"},
		{"read size too large", Options{Root: dir, MaxFileReadSize: math.MaxInt, Planner: p}, "max_file_read_size"},
		{"no planner", Options{Root: dir}, "planner"},
		{"bad pattern", Options{Root: dir, Planner: p, Protected: guard.ProtectedSet{Patterns: []string{"[x-"}}}, "protected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			var cerr *ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestOrganize_EmptyDirectory(t *testing.T) {
	p := &fakePlanner{plan: standardPlan()}
	o, err := New(Options{Root: t.TempDir(), Planner: p})
	require.NoError(t, err)

	summary, err := o.Organize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, p.calls, "planner must not be called for an empty directory")
	assert.Equal(t, 0, summary.FilesScanned)
	assert.Empty(t, summary.Rows)
	assert.NotEmpty(t, summary.RunID)
}

func TestOrganize_ProtectedOnly(t *testing.T) {
	root := writeFiles(t, map[string]string{
		".env":             "SECRET=1",
		"main.py":          "print()",
		".git/HEAD":        "ref: refs/heads/main",
		"venv/bin/python":  "bin",
		"requirements.txt": "pytest",
	})
	p := &fakePlanner{plan: standardPlan()}
	o, err := New(Options{Root: root, Planner: p, Recursive: true})
	require.NoError(t, err)

	summary, err := o.Organize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, 0, summary.FilesScanned)
	assert.FileExists(t, filepath.Join(root, ".env"))
}

func TestOrganize_StandardRun(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"report.pdf": "%PDF-1.4 binary\x00data",
		"notes.txt":  "grocery list",
		".env":       "SECRET=1",
	})
	p := &fakePlanner{plan: standardPlan()}
	o, err := New(Options{Root: root, Planner: p})
	require.NoError(t, err)

	summary, err := o.Organize(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, p.calls)
	require.Len(t, p.req.Files, 2)
	assert.Equal(t, "notes.txt", p.req.Files[0].Entry.RelPath)
	assert.Equal(t, "grocery list", p.req.Files[0].Snippet.Text)
	assert.Equal(t, models.ContentBinary, p.req.Files[1].Snippet.Kind)
	assert.Equal(t, "fake:planner", p.req.Model)

	assert.Equal(t, 2, summary.FilesScanned)
	assert.Equal(t, 2, summary.FoldersCreated)
	assert.Equal(t, 2, summary.FilesMoved)
	assert.Equal(t, 0, summary.Rejected)
	assert.Equal(t, "fake:planner", summary.Model)
	assert.Len(t, summary.Rows, 4)

	assert.FileExists(t, filepath.Join(root, "Documents", "report.pdf"))
	assert.FileExists(t, filepath.Join(root, "Notes", "notes.txt"))
	assert.FileExists(t, filepath.Join(root, ".env"))
}

func TestOrganize_PlannerErrorLeavesTreeUntouched(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "a"})
	p := &fakePlanner{err: errors.New("rate limited")}
	o, err := New(Options{Root: root, Planner: p})
	require.NoError(t, err)

	summary, err := o.Organize(context.Background())
	assert.Nil(t, summary)
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrPlanner)
	assert.ErrorContains(t, err, "rate limited")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOrganize_DryRun(t *testing.T) {
	root := writeFiles(t, map[string]string{"report.pdf": "pdf", "notes.txt": "n"})
	plan := standardPlan()
	plan.Actions = append(plan.Actions, models.MoveFile(".env", "Documents"))
	o, err := New(Options{Root: root, Planner: &fakePlanner{plan: plan}, DryRun: true})
	require.NoError(t, err)

	summary, err := o.Organize(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 5, summary.Skipped)
	assert.Equal(t, 0, summary.FilesMoved)
	assert.Equal(t, 1, summary.WouldReject)

	assert.FileExists(t, filepath.Join(root, "report.pdf"))
	assert.NoDirExists(t, filepath.Join(root, "Documents"))
}

func TestOrganize_PlanHook(t *testing.T) {
	root := writeFiles(t, map[string]string{"report.pdf": "pdf", "notes.txt": "n"})

	var seen *models.OrganizationPlan
	o, err := New(Options{
		Root:    root,
		Planner: &fakePlanner{plan: standardPlan()},
		PlanHook: func(p *models.OrganizationPlan) error {
			seen = p
			return errors.New("disk full")
		},
	})
	require.NoError(t, err)

	_, err = o.Organize(context.Background())
	assert.ErrorContains(t, err, "disk full")
	require.NotNil(t, seen)
	assert.Len(t, seen.Actions, 4)
	assert.FileExists(t, filepath.Join(root, "report.pdf"), "nothing runs after a failed hook")
}

func TestOrganize_CancelAfterPlanning(t *testing.T) {
	root := writeFiles(t, map[string]string{"report.pdf": "pdf", "notes.txt": "n"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o, err := New(Options{Root: root, Planner: &fakePlanner{plan: standardPlan(), during: cancel}})
	require.NoError(t, err)

	summary, err := o.Organize(ctx)
	assert.ErrorIs(t, err, executor.ErrCanceled)
	require.NotNil(t, summary)
	assert.True(t, summary.Canceled)
	assert.Equal(t, 4, summary.NotAttempted)
	assert.FileExists(t, filepath.Join(root, "report.pdf"))
}

func TestOrganize_HistoryExcludesPriorOutput(t *testing.T) {
	store, err := history.NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	root := writeFiles(t, map[string]string{"report.pdf": "pdf", "notes.txt": "n"})
	first, err := New(Options{Root: root, Planner: &fakePlanner{plan: standardPlan()}, History: store})
	require.NoError(t, err)
	summary, err := first.Organize(context.Background())
	require.NoError(t, err)

	run, err := store.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.FilesMoved)

	// A new file arrives; the second run must not see the folders made earlier.
	require.NoError(t, os.WriteFile(filepath.Join(root, "todo.txt"), []byte("todo"), 0644))
	second := &fakePlanner{plan: &models.OrganizationPlan{}}
	o, err := New(Options{Root: root, Planner: second, History: store, Recursive: true})
	require.NoError(t, err)

	inv, err := o.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Documents", "Notes"}, inv.Excluded)
	for _, e := range inv.Entries {
		assert.NotContains(t, []string{"Documents", "Documents/report.pdf", "Notes", "Notes/notes.txt"}, e.RelPath)
	}
	assert.ElementsMatch(t, []string{"Documents", "Notes"}, inv.Folders)

	_, err = o.Organize(context.Background())
	require.NoError(t, err)
	require.Len(t, second.req.Files, 1)
	assert.Equal(t, "todo.txt", second.req.Files[0].Entry.RelPath)
}

func TestOrganize_ExtraProtectionKeepsDefaults(t *testing.T) {
	root := writeFiles(t, map[string]string{
		".env":      "SECRET=1",
		"go.lock":   "lock",
		"notes.txt": "n",
	})
	p := &fakePlanner{plan: &models.OrganizationPlan{Actions: []models.PlannedAction{
		models.CreateFolder("Misc"),
		models.MoveFile(".env", "Misc"),
		models.MoveFile("go.lock", "Misc"),
		models.MoveFile("notes.txt", "Misc"),
	}}}
	o, err := New(Options{
		Root:      root,
		Planner:   p,
		Protected: guard.ProtectedSet{Patterns: []string{"**/*.lock"}},
	})
	require.NoError(t, err)

	summary, err := o.Organize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesScanned)
	assert.Equal(t, 2, summary.Rejected)
	assert.Equal(t, 1, summary.FilesMoved)
	assert.FileExists(t, filepath.Join(root, ".env"))
	assert.FileExists(t, filepath.Join(root, "go.lock"))
	assert.FileExists(t, filepath.Join(root, "Misc", "notes.txt"))
}

func TestPreview_DoesNotPlan(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "alpha", "sub/": "/"})
	p := &fakePlanner{}
	o, err := New(Options{Root: root, Planner: p, MaxFileReadSize: 2})
	require.NoError(t, err)

	inv, err := o.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, p.calls)
	require.Len(t, inv.Samples, 1)
	assert.Equal(t, "al", inv.Samples[0].Snippet.Text)
	assert.True(t, inv.Samples[0].Snippet.Truncated)
	assert.Equal(t, []string{"sub"}, inv.Folders)
}
