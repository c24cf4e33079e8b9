package guard

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ProtectedSet names the files and folders an organize run must never read,
// move, or shadow. Names match case-sensitively against any path component;
// Patterns are doublestar globs matched against the slash-separated path
// relative to the root (for example "**/*.lock" or "node_modules").
type ProtectedSet struct {
	Files    []string `yaml:"files"`
	Folders  []string `yaml:"folders"`
	Patterns []string `yaml:"patterns"`
}

// DefaultProtectedSet returns the built-in protected names.
func DefaultProtectedSet() ProtectedSet {
	return ProtectedSet{
		Files:   []string{".env", "main.py", ".gitignore", "requirements.txt"},
		Folders: []string{"venv", "__pycache__", ".git"},
	}
}

// Merge returns a new set containing the names of both sets, without
// duplicates. Neither receiver nor argument is modified.
func (p ProtectedSet) Merge(other ProtectedSet) ProtectedSet {
	return ProtectedSet{
		Files:    appendUnique(p.Files, other.Files),
		Folders:  appendUnique(p.Folders, other.Folders),
		Patterns: appendUnique(p.Patterns, other.Patterns),
	}
}

// IsProtectedFile reports whether name is a protected file name.
func (p ProtectedSet) IsProtectedFile(name string) bool {
	return contains(p.Files, name)
}

// IsProtectedFolder reports whether name is a protected folder name.
func (p ProtectedSet) IsProtectedFolder(name string) bool {
	return contains(p.Folders, name)
}

// CollidesFold reports whether name equals any protected file or folder
// name ignoring case.
func (p ProtectedSet) CollidesFold(name string) bool {
	for _, n := range p.Files {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	for _, n := range p.Folders {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// MatchPattern reports whether the slash-separated relative path matches a
// protected glob. A pattern without a slash also matches against every
// path component, so "node_modules" protects nested occurrences.
func (p ProtectedSet) MatchPattern(rel string) bool {
	if len(p.Patterns) == 0 || rel == "" {
		return false
	}
	parts := strings.Split(rel, "/")
	for _, pat := range p.Patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
		if strings.Contains(pat, "/") {
			continue
		}
		for _, part := range parts {
			if ok, err := doublestar.Match(pat, part); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Matches reports whether a slash-separated path relative to the root is
// protected: any directory component is a protected folder, the final
// element is a protected file or folder, or a pattern matches.
func (p ProtectedSet) Matches(rel string) bool {
	rel = strings.Trim(path.Clean("/"+rel), "/")
	if rel == "" {
		return false
	}
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		if p.IsProtectedFolder(part) {
			return true
		}
		if i == len(parts)-1 && p.IsProtectedFile(part) {
			return true
		}
	}
	return p.MatchPattern(rel)
}

// ValidatePatterns returns the first malformed glob, if any.
func (p ProtectedSet) ValidatePatterns() (string, bool) {
	for _, pat := range p.Patterns {
		if !doublestar.ValidatePattern(pat) {
			return pat, false
		}
	}
	return "", true
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, n := range list {
			n = strings.TrimSpace(n)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
