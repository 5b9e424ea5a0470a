// Package tempfs stages generated files under a project-local temporary
// directory. Every file is created exclusively with a random name, tracked
// until it is released, and removed by Cleanup if the process exits first.
package tempfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// DefaultDir is the staging directory name, relative to the project root.
const DefaultDir = "tmp"

// createAttempts bounds retries on the (practically impossible) name collision.
const createAttempts = 3

// Stager allocates temporary files under <root>/<dir>.
type Stager struct {
	dir string
}

// NewStager returns a Stager for <root>/<dir>. An empty dir means DefaultDir.
func NewStager(root, dir string) *Stager {
	if dir == "" {
		dir = DefaultDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return &Stager{dir: dir}
}

// Dir returns the absolute staging directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Create allocates a new, exclusively owned file with the given extension
// (e.g. ".vy") and registers it for process-exit cleanup.
func (s *Stager) Create(ext string) (*Handle, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory %s: %w", s.dir, err)
	}

	var lastErr error
	for i := 0; i < createAttempts; i++ {
		path := filepath.Join(s.dir, "tmp-"+uuid.NewString()+ext)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			lastErr = err
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			break
		}
		track(path)
		return &Handle{Path: path, f: f}, nil
	}
	return nil, fmt.Errorf("failed to create temp file in %s: %w", s.dir, lastErr)
}

// Handle is an open temporary file owned by a single request.
type Handle struct {
	Path string
	f    *os.File
}

// Write writes the full text and flushes it to disk.
func (h *Handle) Write(text string) error {
	if h.f == nil {
		return fmt.Errorf("temp file %s is closed", h.Path)
	}
	if _, err := h.f.WriteString(text); err != nil {
		return fmt.Errorf("failed to write temp file %s: %w", h.Path, err)
	}
	if err := h.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file %s: %w", h.Path, err)
	}
	return nil
}

// Close closes the write handle, leaving the file in place.
func (h *Handle) Close() error {
	if h.f == nil {
		return nil
	}
	err := h.f.Close()
	h.f = nil
	return err
}

// Release closes and deletes the file. Releasing twice is a no-op.
func (h *Handle) Release() error {
	var result *multierror.Error
	if err := h.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		result = multierror.Append(result, err)
	}
	untrack(h.Path)
	return result.ErrorOrNil()
}

// ReleaseAll releases every non-nil handle and reports all failures.
func ReleaseAll(handles []*Handle) error {
	var result *multierror.Error
	for _, h := range handles {
		if h == nil {
			continue
		}
		if err := h.Release(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
