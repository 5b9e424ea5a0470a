package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/vyperpp/internal/config"
	"github.com/specialistvlad/vyperpp/internal/ctxlog"
	"github.com/specialistvlad/vyperpp/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found in paths, in order, and applies each on
// top of the defaults. Relative paths are resolved against root.
func (l *Loader) Load(ctx context.Context, root string, paths ...string) (*config.Project, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "root", root, "path_count", len(paths))

	project := config.Default(root)

	hclFiles, err := l.findAllHCLFiles(root, paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		logger.Debug("No configuration files found, using defaults.")
	}

	parser := hclparse.NewParser()
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var fr fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &fr)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if err := l.apply(ctx, project, &fr); err != nil {
			return nil, fmt.Errorf("invalid configuration in %s: %w", file, err)
		}
		project.Files = append(project.Files, file)
		logger.Debug("Applied configuration file.", "file", file)
	}

	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("HCL loading complete.",
		"files", len(project.Files),
		"vyper_version", project.Vyper.Version,
		"networks", project.NetworkNames(),
		"defines", len(project.Preprocessor.Defines),
	)
	return project, nil
}

// findAllHCLFiles returns a flat, de-duplicated list of all .hcl files in
// paths. Paths that do not exist are not an error.
func (l *Loader) findAllHCLFiles(root string, paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, wasSeen := seen[f]; !wasSeen {
				allFiles = append(allFiles, f)
				seen[f] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
