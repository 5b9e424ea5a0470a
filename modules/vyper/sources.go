package vyper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/vyperpp/internal/config"
	"github.com/specialistvlad/vyperpp/internal/fsutil"
)

// SourceExtension is the extension of compilable Vyper sources.
const SourceExtension = ".vy"

// resolveSources returns absolute source paths. Explicit paths are used as
// given. Otherwise paths.sources is searched, skipping the temp directory
// and the preprocessor's include directories, which only hold fragments.
func resolveSources(p *config.Project, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		sources := make([]string, len(explicit))
		for i, s := range explicit {
			sources[i] = p.Abs(s)
		}
		return sources, nil
	}

	dir := p.Abs(p.Paths.Sources)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sources directory: %w", err)
	}

	found, err := fsutil.FindFilesByExtension(dir, SourceExtension, filepath.Base(p.Paths.Tmp))
	if err != nil {
		return nil, fmt.Errorf("failed to find sources in %s: %w", dir, err)
	}

	excluded := make([]string, 0, len(p.Preprocessor.IncludePaths))
	for _, inc := range p.Preprocessor.IncludePaths {
		excluded = append(excluded, p.Abs(inc))
	}

	sources := found[:0]
	for _, f := range found {
		if !underAny(f, excluded) {
			sources = append(sources, f)
		}
	}
	return sources, nil
}

func underAny(path string, dirs []string) bool {
	for _, d := range dirs {
		rel, err := filepath.Rel(d, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
