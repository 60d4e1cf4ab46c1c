// Package media stores uploaded post images.
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Dir is the directory post images are stored under, and the prefix of the
// names stored on Post.Image.
const Dir = "posts"

// ErrNotFound is returned by Open for unknown names.
var ErrNotFound = errors.New("media file not found")

// Store persists uploads and hands them back by stored name.
type Store interface {
	// Save stores content under a name derived from filename and returns
	// the stored name, e.g. "posts/small.gif".
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// cleanName strips any directories and unsafe characters from an uploaded
// file name.
func cleanName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == '-' || r == '_':
			return r
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." || strings.Trim(base, "._") == "" {
		return "upload"
	}
	return base
}

// altName appends a short random suffix before the extension.
func altName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:7] + ext
}

// validName reports whether name is a stored name this package could have produced.
func validName(name string) bool {
	if !strings.HasPrefix(name, Dir+"/") {
		return false
	}
	base := strings.TrimPrefix(name, Dir+"/")
	return base != "" && cleanName(base) == base
}
