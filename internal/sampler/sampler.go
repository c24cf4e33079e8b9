// Package sampler reads bounded content previews of files for the planner.
package sampler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/harrison/deeporganizer/internal/models"
)

// DefaultMaxBytes is the preview size used when the caller passes a
// non-positive limit.
const DefaultMaxBytes = 1000

// MaxBytesLimit is the largest preview size. Larger limits are clamped.
const MaxBytesLimit = 1 << 20

// Sample reads at most maxBytes from the start of path and classifies them.
// It never returns an error: unreadable files produce a ContentUnknown
// snippet with Err set, undecodable content produces a ContentBinary snippet
// with empty text.
func Sample(path string, maxBytes int) models.ContentSnippet {
	f, err := os.Open(path)
	if err != nil {
		return models.ContentSnippet{
			Path: path,
			Kind: models.ContentUnknown,
			Err:  fmt.Errorf("failed to open %s: %w", path, err),
		}
	}
	defer f.Close()

	return SampleReader(path, f, maxBytes)
}

// SampleReader classifies at most maxBytes read from r. path is recorded on
// the snippet and used in error messages only.
func SampleReader(path string, r io.Reader, maxBytes int) models.ContentSnippet {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxBytes > MaxBytesLimit {
		maxBytes = MaxBytesLimit
	}
	snippet := models.ContentSnippet{Path: path, Kind: models.ContentUnknown}

	// One extra byte tells us whether the file continues past the limit
	// without reading the rest of it.
	buf, err := io.ReadAll(io.LimitReader(r, int64(maxBytes)+1))
	if err != nil {
		snippet.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return snippet
	}
	if len(buf) > maxBytes {
		snippet.Truncated = true
		buf = buf[:maxBytes]
	}
	snippet.BytesRead = len(buf)
	if len(buf) > 0 {
		snippet.MIME = mimetype.Detect(buf).String()
	}

	if isBinary(buf, snippet.Truncated) {
		snippet.Kind = models.ContentBinary
		return snippet
	}
	snippet.Kind = models.ContentText
	if snippet.Truncated {
		buf = trimPartialRune(buf)
	}
	snippet.Text = string(buf)
	return snippet
}

// isBinary reports whether buf cannot be presented as text. When the prefix
// was cut at the limit, an incomplete trailing rune is not held against it.
func isBinary(buf []byte, truncated bool) bool {
	if bytes.IndexByte(buf, 0) >= 0 {
		return true
	}
	if utf8.Valid(buf) {
		return false
	}
	if !truncated {
		return true
	}
	return !utf8.Valid(trimPartialRune(buf))
}

// trimPartialRune drops a trailing, incomplete UTF-8 sequence of at most
// utf8.UTFMax-1 bytes.
func trimPartialRune(buf []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
		b := buf[len(buf)-i]
		if !utf8.RuneStart(b) {
			continue
		}
		if !utf8.FullRune(buf[len(buf)-i:]) {
			return buf[:len(buf)-i]
		}
		break
	}
	return buf
}
