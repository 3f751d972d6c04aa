// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import (
	"errors"
	"io/fs"
	"strings"
)

// ErrUnsafePath is returned for names that would resolve outside the
// extraction root or are not clean relative paths.
var ErrUnsafePath = errors.New("unsafe path")

// Base returns the last element of a slash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Clean validates an entry name for extraction and returns it without a
// directory marker. The result is an fs.ValidPath: no leading slash, no
// empty, "." or ".." elements, and no backslashes.
func Clean(name string) (clean string, isDir bool, err error) {
	isDir = strings.HasSuffix(name, "/")
	clean = strings.TrimSuffix(name, "/")
	if clean == "" || clean == "." || strings.ContainsRune(clean, '\\') || !fs.ValidPath(clean) {
		return "", isDir, ErrUnsafePath
	}
	return clean, isDir, nil
}
