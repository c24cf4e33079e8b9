package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/deeporganizer/internal/guard"
	"github.com/harrison/deeporganizer/internal/models"
)

// buildTree creates files (and their parent directories) under a temp root.
// Entries ending in "/" are created as empty directories.
func buildTree(t *testing.T, paths ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if p[len(p)-1] == '/' {
			if err := os.MkdirAll(full, 0755); err != nil {
				t.Fatalf("failed to create directory: %v", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(full, []byte("test content"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
	return root
}

func relPaths(entries []models.DirectoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.RelPath)
	}
	return out
}

func TestScanDirectory_TopLevel(t *testing.T) {
	root := buildTree(t,
		"report.pdf",
		"photo.jpg",
		"notes/todo.txt",
		".env",
		"main.py",
		"venv/bin/python",
		"__pycache__/x.pyc",
		".git/HEAD",
	)

	result, err := ScanDirectory(root, ScanOptions{Protected: guard.DefaultProtectedSet()})
	require.NoError(t, err)

	assert.Equal(t, []string{"notes", "photo.jpg", "report.pdf"}, relPaths(result.Entries))
	assert.Equal(t, []string{"photo.jpg", "report.pdf"}, relPaths(result.Files()))
	assert.Equal(t, []string{"notes"}, result.Folders())
	assert.Empty(t, result.Errors)

	for _, e := range result.Files() {
		assert.Equal(t, int64(len("test content")), e.Size)
		assert.True(t, filepath.IsAbs(e.AbsPath))
	}
}

func TestScanDirectory_Recursive(t *testing.T) {
	root := buildTree(t,
		"a.txt",
		"project/readme.md",
		"project/venv/lib/site.py",
		"project/.git/config",
		"project/src/__pycache__/m.pyc",
		"project/src/app.go",
		"project/.gitignore",
	)

	result, err := ScanDirectory(root, ScanOptions{
		Protected: guard.DefaultProtectedSet(),
		Recursive: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a.txt",
		"project",
		"project/readme.md",
		"project/src",
		"project/src/app.go",
	}, relPaths(result.Entries))
}

func TestScanDirectory_MaxDepth(t *testing.T) {
	root := buildTree(t, "a.txt", "d1/b.txt", "d1/d2/c.txt")

	result, err := ScanDirectory(root, ScanOptions{Recursive: true, MaxDepth: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "d1", "d1/b.txt", "d1/d2"}, relPaths(result.Entries))
}

func TestScanDirectory_ProtectedOnly(t *testing.T) {
	root := buildTree(t, ".env", "venv/")

	result, err := ScanDirectory(root, ScanOptions{Protected: guard.DefaultProtectedSet(), Recursive: true})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestScanDirectory_Empty(t *testing.T) {
	result, err := ScanDirectory(t.TempDir(), ScanOptions{Protected: guard.DefaultProtectedSet()})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Files())
}

func TestScanDirectory_ExcludeDirs(t *testing.T) {
	root := buildTree(t, "Documents/old.pdf", "Images/", "new.pdf")

	result, err := ScanDirectory(root, ScanOptions{
		Protected:   guard.DefaultProtectedSet(),
		Recursive:   true,
		ExcludeDirs: []string{"Documents", "Images/"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"new.pdf"}, relPaths(result.Entries))
}

func TestScanDirectory_Extensions(t *testing.T) {
	root := buildTree(t, "a.PDF", "b.txt", "c", "docs/")

	result, err := ScanDirectory(root, ScanOptions{Extensions: []string{"pdf", ".txt"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.PDF", "b.txt", "docs"}, relPaths(result.Entries))
}

func TestScanDirectory_DoesNotFollowSymlinkedDirs(t *testing.T) {
	root := buildTree(t, "a.txt")
	outside := buildTree(t, "secret/one.txt", "two.txt")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked")))

	result, err := ScanDirectory(root, ScanOptions{Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "linked"}, relPaths(result.Entries))
	linked := result.Entries[1]
	assert.True(t, linked.IsSymlink)
	assert.True(t, linked.IsDir)
}

func TestScanDirectory_Deterministic(t *testing.T) {
	root := buildTree(t, "zeta.txt", "Alpha.txt", "beta/", "beta/x.txt", "alpha.txt")

	first, err := ScanDirectory(root, ScanOptions{Recursive: true})
	require.NoError(t, err)
	second, err := ScanDirectory(root, ScanOptions{Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, []string{"Alpha.txt", "alpha.txt", "beta", "beta/x.txt", "zeta.txt"}, relPaths(first.Entries))
}

func TestScanDirectory_InvalidRoot(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), ScanOptions{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = ScanDirectory(file, ScanOptions{})
	assert.ErrorContains(t, err, "not a directory")
}
