package app

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/vyperpp/internal/ctxlog"
	"github.com/specialistvlad/vyperpp/modules/preprocessor"
	"github.com/specialistvlad/vyperpp/modules/vyper"
)

// Compile compiles the given sources, or every project source when paths is
// empty, and writes their artifacts.
func (a *App) Compile(ctx context.Context, paths []string) (*vyper.Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Compile method started.", "paths", paths)

	res, err := a.registry.Run(ctx, vyper.TaskCompile, &vyper.CompileArgs{Project: a.project, Sources: paths})
	if err != nil {
		return nil, fmt.Errorf("compilation failed: %w", err)
	}
	summary, ok := res.(*vyper.Summary)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want *vyper.Summary", vyper.TaskCompile, res)
	}

	a.logger.Debug("App.Compile method finished.")
	return summary, nil
}

// Preprocess writes the preprocessed text of path to w.
func (a *App) Preprocess(ctx context.Context, path string, w io.Writer) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Preprocess method started.", "path", path)

	res, err := a.registry.Run(ctx, preprocessor.TaskPreprocess, &preprocessor.PreprocessArgs{Project: a.project, Path: path})
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}
	text, ok := res.(string)
	if !ok {
		return fmt.Errorf("%s returned %T, want string", preprocessor.TaskPreprocess, res)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
