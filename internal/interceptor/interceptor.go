// Package interceptor wraps a compile step with a preprocessing stage.
//
// Every input file is preprocessed and staged to a temporary file, the
// delegate compiles the staged files, and the delegate's output is re-keyed
// from the staged paths back to the caller's original paths. Neither the
// caller nor the delegate can observe the preprocessing step.
//
// # Path keys
//
// Output keys are normalized paths: relative to the project root and always
// using forward slashes. The delegate must key its output the same way.
//
// # Failures
//
// Any failure aborts the whole batch. Preprocessing failures are reported as
// [PreprocessError], staging failures as [ResourceError] and delegate
// failures as [CompileError]. A delegate result lacking an entry for a staged
// file is a [CompileError] wrapping [ErrMissingArtifact]. Staged files are
// released before Intercept returns, on success and failure alike.
package interceptor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/specialistvlad/vyperpp/internal/compiler"
	"github.com/specialistvlad/vyperpp/internal/ctxlog"
	"github.com/specialistvlad/vyperpp/internal/fsutil"
	"github.com/specialistvlad/vyperpp/internal/preprocess"
	"github.com/specialistvlad/vyperpp/internal/tempfs"
	"golang.org/x/sync/errgroup"
)

// Delegate is the wrapped compile step.
type Delegate func(ctx context.Context, req *compiler.Request) (*compiler.Output, error)

// Config holds the configuration for an Interceptor.
type Config struct {
	// Root is the project root all output keys are relative to. A relative
	// Root is resolved against the working directory. Required.
	Root string

	// Preprocessor expands each source file.
	// Required.
	Preprocessor preprocess.Preprocessor

	// Stager allocates temporary files. Defaults to <Root>/tmp.
	Stager *tempfs.Stager

	// Timeout bounds the delegate call. Zero means no timeout.
	Timeout time.Duration
}

// Interceptor runs the preprocess, stage, compile, remap sequence.
type Interceptor struct {
	root    string
	pre     preprocess.Preprocessor
	stager  *tempfs.Stager
	timeout time.Duration
}

// New validates cfg and returns an Interceptor.
func New(cfg Config) (*Interceptor, error) {
	if cfg.Root == "" {
		return nil, errors.New("interceptor: Root is required")
	}
	if cfg.Preprocessor == nil {
		return nil, errors.New("interceptor: Preprocessor is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("interceptor: invalid Root: %w", err)
	}
	stager := cfg.Stager
	if stager == nil {
		stager = tempfs.NewStager(root, tempfs.DefaultDir)
	}
	return &Interceptor{
		root:    root,
		pre:     cfg.Preprocessor,
		stager:  stager,
		timeout: cfg.Timeout,
	}, nil
}

// Intercept preprocesses req.InputPaths, compiles the staged copies with
// delegate and returns the delegate's output keyed by the original paths.
// req itself is never modified.
func (i *Interceptor) Intercept(ctx context.Context, req *compiler.Request, delegate Delegate) (*compiler.Output, error) {
	if len(req.InputPaths) == 0 {
		return nil, ErrNoInputs
	}
	ctx, logger := ctxlog.With(ctx, "component", "interceptor")
	logger.Debug("Intercepting compile request.", "inputs", len(req.InputPaths))

	handles, err := i.stage(ctx, req.InputPaths)
	defer func() {
		if err := tempfs.ReleaseAll(handles); err != nil {
			logger.Warn("Failed to release temp files.", "error", err)
		}
	}()
	if err != nil {
		logger.Debug("Staging failed.", "error", err)
		return nil, err
	}

	staged := make([]string, len(handles))
	for idx, h := range handles {
		staged[idx] = h.Path
	}
	stagedReq := req.Clone()
	stagedReq.InputPaths = staged

	dctx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	logger.Debug("Delegating compile of staged files.", "staged", staged)
	out, err := delegate(dctx, stagedReq)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	if out == nil {
		return nil, &CompileError{Err: errors.New("delegate returned no output")}
	}

	result, err := remap(i.root, req.InputPaths, staged, out)
	if err != nil {
		return nil, err
	}
	logger.Debug("Remapped compile output.", "version", result.Version, "artifacts", len(result.Contracts))
	return result, nil
}

// stage preprocesses every input concurrently and writes each result to its
// own temp file. handles[i] always belongs to paths[i]; entries stay nil for
// inputs that never reached the staging step.
func (i *Interceptor) stage(ctx context.Context, paths []string) ([]*tempfs.Handle, error) {
	handles := make([]*tempfs.Handle, len(paths))
	g, gctx := errgroup.WithContext(ctx)

	for idx, path := range paths {
		idx, path := idx, path
		g.Go(func() error {
			text, err := i.pre.PreprocessFile(gctx, path)
			if err != nil {
				return &PreprocessError{Path: path, Err: err}
			}

			h, err := i.stager.Create(filepath.Ext(path))
			if err != nil {
				return &ResourceError{Path: path, Err: err}
			}
			handles[idx] = h

			if err := h.Write(text); err != nil {
				return &ResourceError{Path: path, Err: err}
			}
			if err := h.Close(); err != nil {
				return &ResourceError{Path: path, Err: err}
			}
			ctxlog.FromContext(gctx).Debug("Staged preprocessed file.", "source", path, "staged", h.Path)
			return nil
		})
	}

	return handles, g.Wait()
}

// remap builds a new output keyed by the normalized original paths, taking
// each artifact from the entry of the staged file at the same index.
func remap(root string, original, staged []string, out *compiler.Output) (*compiler.Output, error) {
	result := &compiler.Output{
		Version:   out.Version,
		Contracts: make(map[string]compiler.Artifact, len(original)),
	}
	for idx := range original {
		stagedKey, err := fsutil.NormalizePath(root, staged[idx])
		if err != nil {
			return nil, &CompileError{Path: original[idx], Err: err}
		}
		origKey, err := fsutil.NormalizePath(root, original[idx])
		if err != nil {
			return nil, &CompileError{Path: original[idx], Err: err}
		}
		artifact, ok := out.Contracts[stagedKey]
		if !ok {
			return nil, &CompileError{
				Path: original[idx],
				Err:  fmt.Errorf("%w: no output for staged file %s", ErrMissingArtifact, stagedKey),
			}
		}
		result.Contracts[origKey] = artifact
	}
	return result, nil
}
