// Package docid derives stable document IDs from corpus file paths.
package docid

import (
	"path/filepath"
	"strings"
)

// FromPath returns the document ID for a file under the given corpus root:
// the root-relative path with forward slashes. The same file always yields
// the same ID, and IDs sort lexically the way results are tie-broken.
// Falls back to the cleaned absolute path when the file is outside root.
func FromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}

// Title returns a display title for a document ID: the base filename.
func Title(id string) string {
	return filepath.Base(filepath.FromSlash(id))
}
