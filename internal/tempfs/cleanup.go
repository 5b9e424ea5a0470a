package tempfs

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// tracked holds every path created by this process and not yet released.
var tracked = struct {
	mu       sync.Mutex
	paths    map[string]struct{}
	graceful bool
}{paths: make(map[string]struct{})}

func track(path string) {
	tracked.mu.Lock()
	defer tracked.mu.Unlock()
	tracked.paths[path] = struct{}{}
}

func untrack(path string) {
	tracked.mu.Lock()
	defer tracked.mu.Unlock()
	delete(tracked.paths, path)
}

// SetGracefulCleanup enables removal of unreleased temp files by Cleanup.
// Calling it more than once has no further effect.
func SetGracefulCleanup() {
	tracked.mu.Lock()
	defer tracked.mu.Unlock()
	tracked.graceful = true
}

// Pending returns the number of created files not yet released.
func Pending() int {
	tracked.mu.Lock()
	defer tracked.mu.Unlock()
	return len(tracked.paths)
}

// Cleanup removes every tracked file that was never released. It only acts
// after SetGracefulCleanup and is meant to run once, at process exit.
func Cleanup() error {
	tracked.mu.Lock()
	defer tracked.mu.Unlock()
	if !tracked.graceful {
		return nil
	}

	var result *multierror.Error
	for path := range tracked.paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, err)
			continue
		}
		delete(tracked.paths, path)
	}
	return result.ErrorOrNil()
}
