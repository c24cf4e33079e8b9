// Package models defines the data types shared by the scanning, planning and
// execution stages of an organize run.
package models

// ContentKind classifies a sampled file prefix.
type ContentKind int

// Content kinds produced by the sampler.
const (
	ContentUnknown ContentKind = iota // File could not be read
	ContentText                       // Prefix decoded as UTF-8 text
	ContentBinary                     // Prefix contains NUL bytes or invalid UTF-8
)

// String returns the lowercase name of the kind.
func (k ContentKind) String() string {
	switch k {
	case ContentText:
		return "text"
	case ContentBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// DirectoryEntry is one organizable entry found by a scan.
// Entries are recomputed on every scan and never persisted.
type DirectoryEntry struct {
	RelPath   string // Slash-separated path relative to the scan root
	AbsPath   string // Absolute path as listed (not symlink-resolved)
	IsDir     bool   // Entry is a directory
	IsSymlink bool   // Entry itself is a symbolic link
	Size      int64  // Size in bytes (0 for directories)
}

// Name returns the final element of the entry's relative path.
func (e DirectoryEntry) Name() string {
	for i := len(e.RelPath) - 1; i >= 0; i-- {
		if e.RelPath[i] == '/' {
			return e.RelPath[i+1:]
		}
	}
	return e.RelPath
}

// ContentSnippet is the bounded preview of a file handed to the planner.
type ContentSnippet struct {
	Path      string      // Path the snippet was read from
	Text      string      // Decoded prefix; empty for binary or unreadable files
	Kind      ContentKind // Closed classification of the prefix
	Truncated bool        // File was larger than the read limit
	MIME      string      // Detected media type of the prefix, informational only
	BytesRead int         // Number of bytes kept in the prefix
	Err       error       // Read error when Kind is ContentUnknown
}

// Binary reports whether the snippet could not be decoded as text.
func (s ContentSnippet) Binary() bool {
	return s.Kind == ContentBinary
}

// FileSample pairs a scanned entry with its content snippet.
type FileSample struct {
	Entry   DirectoryEntry
	Snippet ContentSnippet
}
