package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/deeporganizer/internal/config"
	"github.com/harrison/deeporganizer/internal/filelock"
	"github.com/harrison/deeporganizer/internal/models"
	"github.com/harrison/deeporganizer/internal/organizer"
)

const documentsPlan = `actions:
  - type: create_folder
    name: Documents
  - type: move_file
    source: report.pdf
    destination_folder: Documents
  - type: move_file
    source: .env
    destination_folder: Documents
`

func organizeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"report.pdf": "%PDF-1.4 quarterly report",
		"notes.txt":  "remember the milk",
		".env":       "SECRET=1",
	})
	return dir
}

func TestOrganize_AppliesPlan(t *testing.T) {
	home := t.TempDir()
	dir := organizeFixture(t)
	plan := writePlan(t, documentsPlan)

	out, _, err := runCLI(t, home, "organize", dir, "--model", "file:"+plan)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "Documents", "report.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "report.pdf"))
	assert.FileExists(t, filepath.Join(dir, ".env"), "protected file must stay")
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))

	assert.Contains(t, out, "Run ID:")
	assert.Contains(t, out, "rejected")
	assert.FileExists(t, filepath.Join(config.LogsDir(home), "latest.log"))
}

func TestOrganize_DryRunJSON(t *testing.T) {
	home := t.TempDir()
	dir := organizeFixture(t)
	plan := writePlan(t, documentsPlan)

	out, stderr, err := runCLI(t, home, "organize", dir, "--model", "file:"+plan, "--dry-run", "--json")
	require.NoError(t, err)

	var summary models.OrganizationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary), "stdout must be pure JSON, stderr: %s", stderr)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 1, summary.WouldReject)
	assert.Equal(t, 0, summary.FilesMoved)
	assert.NotEmpty(t, summary.RunID)

	assert.FileExists(t, filepath.Join(dir, "report.pdf"))
	assert.NoDirExists(t, filepath.Join(dir, "Documents"))
}

func TestOrganize_SavePlanThenValidate(t *testing.T) {
	home := t.TempDir()
	dir := organizeFixture(t)
	plan := writePlan(t, `actions:
  - {type: create_folder, name: Documents}
  - {type: move_file, source: report.pdf, destination_folder: Documents}
`)
	saved := filepath.Join(t.TempDir(), "saved.yaml")

	_, _, err := runCLI(t, home, "organize", dir, "--model", "file:"+plan, "--dry-run", "--save-plan", saved)
	require.NoError(t, err)
	require.FileExists(t, saved)

	out, _, err := runCLI(t, home, "validate", saved, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.FileExists(t, filepath.Join(dir, "report.pdf"), "validate never moves files")
}

func TestOrganize_Errors(t *testing.T) {
	dir := organizeFixture(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "bad model",
			args:    []string{"organize", dir, "--model", "bogus"},
			wantErr: "invalid configuration",
		},
		{
			name:    "unknown provider",
			args:    []string{"organize", dir, "--model", "mistral:large"},
			wantErr: "unknown planner provider",
		},
		{
			name:    "negative read size",
			args:    []string{"organize", dir, "--max-read", "-1"},
			wantErr: "max_file_read_size",
		},
		{
			name:    "read size too large",
			args:    []string{"organize", dir, "--max-read", "2000000"},
			wantErr: "max_file_read_size must be <=",
		},
		{
			name:    "malformed pattern",
			args:    []string{"organize", dir, "--exclude-pattern", "[abc"},
			wantErr: "invalid protected pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, t.TempDir(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOrganize_MissingDirectory(t *testing.T) {
	plan := writePlan(t, documentsPlan)
	_, _, err := runCLI(t, t.TempDir(), "organize", filepath.Join(t.TempDir(), "gone"), "--model", "file:"+plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, organizer.ErrConfiguration)
}

func TestOrganize_PlannerFailureLeavesTree(t *testing.T) {
	dir := organizeFixture(t)
	_, _, err := runCLI(t, t.TempDir(), "organize", dir, "--model", "file:"+filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read plan file")
	assert.FileExists(t, filepath.Join(dir, "report.pdf"))
}

func TestOrganize_RootLocked(t *testing.T) {
	home := t.TempDir()
	dir := organizeFixture(t)
	plan := writePlan(t, documentsPlan)

	canonical, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	lock, err := filelock.AcquireRootLock(config.LocksDir(home), canonical)
	require.NoError(t, err)
	defer lock.Unlock()

	_, _, err = runCLI(t, home, "organize", dir, "--model", "file:"+plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, filelock.ErrLocked)
	assert.FileExists(t, filepath.Join(dir, "report.pdf"))
}

func TestOrganize_ExcludeFile(t *testing.T) {
	home := t.TempDir()
	dir := organizeFixture(t)
	plan := writePlan(t, documentsPlan)

	out, _, err := runCLI(t, home, "organize", dir, "--model", "file:"+plan, "--exclude-file", "report.pdf", "--json")
	require.NoError(t, err)

	var summary models.OrganizationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Rejected)
	assert.Equal(t, 0, summary.FilesMoved)
	assert.FileExists(t, filepath.Join(dir, "report.pdf"))
}
