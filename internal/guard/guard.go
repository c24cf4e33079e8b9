// Package guard decides whether a path may be read, created, or moved during
// an organize run. Every filesystem mutation performed by the executor passes
// through a Guard first.
//
// Validation never mutates the filesystem: it only stats existing path
// prefixes to resolve symbolic links. A path is eligible only when its
// canonical (symlink-resolved) form is a strict descendant of the canonical
// root and it does not touch a protected name.
package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Intent states what the caller is about to do with a path.
type Intent int

// Validation intents.
const (
	IntentRead Intent = iota
	IntentCreateFolder
	IntentMoveSource
	IntentMoveDestination
)

// String returns the string representation of an Intent.
func (i Intent) String() string {
	switch i {
	case IntentRead:
		return "read"
	case IntentCreateFolder:
		return "create-folder"
	case IntentMoveSource:
		return "move-source"
	case IntentMoveDestination:
		return "move-destination"
	default:
		return "unknown"
	}
}

// RejectionCode classifies why a path was refused.
type RejectionCode string

// Rejection codes.
const (
	CodeEscape      RejectionCode = "escape"       // Resolves outside the root, or is the root itself
	CodeProtected   RejectionCode = "protected"    // Touches a protected name
	CodeInvalidName RejectionCode = "invalid_name" // Unusable folder name
	CodeInvalidRoot RejectionCode = "invalid_root" // Root cannot be resolved
)

// maxNameLength is the longest folder name accepted, in bytes.
const maxNameLength = 255

// ErrRejected matches every *Rejection via errors.Is.
var ErrRejected = errors.New("path rejected")

// Rejection is returned when a path fails validation. It is always
// recoverable: the caller skips the action and continues.
type Rejection struct {
	Path   string        // Path as supplied by the caller
	Intent Intent        // Intent it was validated for
	Code   RejectionCode // Machine-readable reason
	Reason string        // Human-readable reason
}

// Error implements the error interface for Rejection.
func (r *Rejection) Error() string {
	return fmt.Sprintf("%s %q rejected: %s", r.Intent, r.Path, r.Reason)
}

// Is reports whether target is ErrRejected.
func (r *Rejection) Is(target error) bool {
	return target == ErrRejected
}

func reject(path string, intent Intent, code RejectionCode, format string, args ...interface{}) *Rejection {
	return &Rejection{
		Path:   path,
		Intent: intent,
		Code:   code,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Guard validates paths against one root directory and protected set.
// It holds no mutable state and is safe for concurrent use.
type Guard struct {
	root      string // Canonical root
	rawRoot   string // Absolute, unresolved root
	protected ProtectedSet
}

// New resolves root and returns a Guard bound to it.
func New(root string, protected ProtectedSet) (*Guard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, reject(root, IntentRead, CodeInvalidRoot, "cannot make root absolute: %v", err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, reject(root, IntentRead, CodeInvalidRoot, "cannot resolve root: %v", err)
	}
	return &Guard{root: canon, rawRoot: filepath.Clean(abs), protected: protected}, nil
}

// Validate checks path against root for intent using a one-off Guard.
func Validate(path, root string, intent Intent, protected ProtectedSet) (string, error) {
	g, err := New(root, protected)
	if err != nil {
		return "", err
	}
	return g.Validate(path, intent)
}

// Root returns the canonical root directory.
func (g *Guard) Root() string {
	return g.root
}

// Protected returns the protected set the guard enforces.
func (g *Guard) Protected() ProtectedSet {
	return g.protected
}

// Validate returns the canonical form of path if it is eligible for intent.
//
// For IntentCreateFolder, path is a folder name directly under the root.
// For every other intent, a relative path is resolved against the root and
// an absolute path is taken as given.
func (g *Guard) Validate(path string, intent Intent) (string, error) {
	if intent == IntentCreateFolder {
		if err := g.ValidateFolderName(path); err != nil {
			return "", err
		}
	}

	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(g.root, target)
	}
	target = filepath.Clean(target)

	canon, err := canonicalize(target)
	if err != nil {
		return "", reject(path, intent, CodeEscape, "cannot resolve path: %v", err)
	}

	rel, ok := descendant(g.root, canon)
	if !ok {
		return "", reject(path, intent, CodeEscape, "resolves outside %s", g.root)
	}

	if intent == IntentCreateFolder {
		if strings.Contains(rel, "/") {
			return "", reject(path, intent, CodeEscape, "folder resolves to nested path %s", rel)
		}
		if g.protected.CollidesFold(rel) {
			return "", reject(path, intent, CodeProtected, "resolves to protected name %s", rel)
		}
		if g.protected.MatchPattern(rel) {
			return "", reject(path, intent, CodeProtected, "%s matches a protected pattern", rel)
		}
		return canon, nil
	}

	if g.protected.Matches(rel) {
		return "", reject(path, intent, CodeProtected, "%s is protected", rel)
	}
	if lexical, ok := g.lexicalRel(target); ok && lexical != rel && g.protected.Matches(lexical) {
		return "", reject(path, intent, CodeProtected, "%s is protected", lexical)
	}

	return canon, nil
}

// ValidateFolderName checks that name is usable as a single folder directly
// under the root: not empty, not "." or "..", no separators, and no
// case-insensitive collision with a protected name.
func (g *Guard) ValidateFolderName(name string) error {
	intent := IntentCreateFolder
	switch {
	case strings.TrimSpace(name) == "":
		return reject(name, intent, CodeInvalidName, "folder name is empty")
	case name == "." || name == "..":
		return reject(name, intent, CodeInvalidName, "folder name %q is reserved", name)
	case strings.ContainsAny(name, `/\`):
		return reject(name, intent, CodeInvalidName, "folder name contains a path separator")
	case strings.ContainsRune(name, 0):
		return reject(name, intent, CodeInvalidName, "folder name contains a NUL byte")
	case filepath.IsAbs(name) || filepath.VolumeName(name) != "":
		return reject(name, intent, CodeInvalidName, "folder name is an absolute path")
	case len(name) > maxNameLength:
		return reject(name, intent, CodeInvalidName, "folder name longer than %d bytes", maxNameLength)
	case g.protected.CollidesFold(name):
		return reject(name, intent, CodeProtected, "folder name collides with protected name %q", name)
	}
	return nil
}

// lexicalRel returns target relative to the root without resolving links,
// so a link named like a protected file is still caught.
func (g *Guard) lexicalRel(target string) (string, bool) {
	for _, root := range []string{g.rawRoot, g.root} {
		if rel, ok := descendant(root, target); ok {
			return rel, true
		}
	}
	return "", false
}

// canonicalize resolves symbolic links in the longest existing prefix of
// path and re-appends the components that do not exist yet.
func canonicalize(path string) (string, error) {
	var missing []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}

// descendant reports whether path lies strictly below root and returns the
// slash-separated relative path.
func descendant(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
