package fsutil

import (
	"fmt"
	"path/filepath"
)

// NormalizePath expresses p relative to root using forward slashes. Relative
// inputs are resolved against root first, so normalizing an already
// normalized path returns it unchanged.
func NormalizePath(root, p string) (string, error) {
	abs := filepath.FromSlash(p)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, abs)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("path %q is not expressible relative to %q: %w", p, root, err)
	}
	return filepath.ToSlash(rel), nil
}

