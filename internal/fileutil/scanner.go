package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/deeporganizer/internal/guard"
	"github.com/harrison/deeporganizer/internal/models"
)

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Protected names are never listed and never descended into, at any depth
	Protected guard.ProtectedSet
	// Recursive enables recursive directory scanning
	Recursive bool
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
	// ExcludeDirs lists slash-separated paths relative to the root to skip,
	// typically folders created by prior runs
	ExcludeDirs []string
	// Extensions restricts listed files to these extensions (e.g., ".pdf"); empty lists all
	Extensions []string
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Entries are the organizable entries, sorted by relative path
	Entries []models.DirectoryEntry
	// Errors contains any non-fatal errors encountered during scanning
	Errors []error
}

// Files returns only the non-directory entries.
func (r *ScanResult) Files() []models.DirectoryEntry {
	var out []models.DirectoryEntry
	for _, e := range r.Entries {
		if !e.IsDir {
			out = append(out, e)
		}
	}
	return out
}

// Folders returns the relative paths of directory entries.
func (r *ScanResult) Folders() []string {
	var out []string
	for _, e := range r.Entries {
		if e.IsDir {
			out = append(out, e.RelPath)
		}
	}
	return out
}

// ScanDirectory lists the organizable entries under root.
// Symbolic links are listed but never followed, so a linked directory is
// reported as an entry without being descended into.
func ScanDirectory(root string, opts ScanOptions) (*ScanResult, error) {
	// Validate directory exists
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	// WalkDir does not descend into a root that is itself a link.
	if absRoot, err = filepath.EvalSymlinks(absRoot); err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	result := &ScanResult{
		Entries: make([]models.DirectoryEntry, 0),
		Errors:  make([]error, 0),
	}

	excludeMap := make(map[string]bool)
	for _, dir := range opts.ExcludeDirs {
		dir = strings.Trim(filepath.ToSlash(filepath.Clean(dir)), "/")
		if dir != "" && dir != "." {
			excludeMap[dir] = true
		}
	}

	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil // Continue walking
		}

		// Skip the root directory itself
		if path == absRoot {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to relativize %s: %w", path, err))
			return nil
		}
		rel := filepath.ToSlash(relPath)

		if opts.Protected.Matches(rel) || excludeMap[rel] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entry := models.DirectoryEntry{
			RelPath:   rel,
			AbsPath:   path,
			IsDir:     d.IsDir(),
			IsSymlink: d.Type()&fs.ModeSymlink != 0,
		}

		if entry.IsSymlink {
			// Report the link by what it points at without walking into it.
			if target, statErr := os.Stat(path); statErr == nil {
				entry.IsDir = target.IsDir()
				if !entry.IsDir {
					entry.Size = target.Size()
				}
			}
		} else if !entry.IsDir {
			if fi, infoErr := d.Info(); infoErr == nil {
				entry.Size = fi.Size()
			} else {
				result.Errors = append(result.Errors, fmt.Errorf("failed to stat %s: %w", path, infoErr))
			}
		}

		if !entry.IsDir && len(extMap) > 0 && !extMap[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		result.Entries = append(result.Entries, entry)

		if d.IsDir() {
			// Check recursion settings
			if !opts.Recursive {
				return filepath.SkipDir
			}

			// Check max depth
			if opts.MaxDepth > 0 {
				depth := strings.Count(rel, "/") + 1
				if depth >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	// Sort entries for consistent output
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].RelPath < result.Entries[j].RelPath
	})

	return result, nil
}
