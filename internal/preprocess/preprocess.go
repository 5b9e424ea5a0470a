// Package preprocess implements a C-style textual preprocessor for Vyper
// sources: object-like and function-like macros, conditional inclusion and
// file inclusion.
//
// Directives are recognized only when a line starts (after indentation) with
// '#' immediately followed by a known keyword. Every other line beginning with
// '#' is a Vyper comment and passes through unchanged. Lines consumed by
// directives or excluded by a conditional are emitted as empty lines so the
// line numbers of the top-level file are preserved.
package preprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/vyperpp/internal/ctxlog"
)

// Preprocessor expands a source file into plain text.
type Preprocessor interface {
	PreprocessFile(ctx context.Context, path string) (string, error)
}

// Options configures an Engine.
type Options struct {
	// BasePath is the last directory searched for #include. Empty means the
	// working directory.
	BasePath string
	// IncludePaths are searched for #include after the including file's
	// own directory.
	IncludePaths []string
	// Defines are predefined object-like macros.
	Defines map[string]string
}

// SyntaxError reports a malformed directive or an unresolvable construct.
type SyntaxError struct {
	Path string
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Engine is the built-in Preprocessor. It is stateless between calls and safe
// for concurrent use.
type Engine struct {
	opts Options
}

var _ Preprocessor = (*Engine)(nil)

// New returns an Engine configured with opts.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// PreprocessFile reads path and returns its expanded text.
func (e *Engine) PreprocessFile(ctx context.Context, path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e.Preprocess(ctx, path, string(src))
}

// Preprocess expands src, using name for diagnostics and for resolving
// relative includes.
func (e *Engine) Preprocess(ctx context.Context, name, src string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	r := &run{
		ctx:    ctx,
		opts:   e.opts,
		macros: make(map[string]*macro, len(e.opts.Defines)),
		once:   make(map[string]bool),
	}
	for k, v := range e.opts.Defines {
		r.macros[k] = &macro{name: k, body: v}
	}

	var out strings.Builder
	if err := r.file(name, src, &out); err != nil {
		return "", err
	}
	logger.Debug("Preprocessed file.", "file", name, "macros", len(r.macros), "bytes", out.Len())
	return out.String(), nil
}

// run holds the mutable state of one top-level Preprocess call.
type run struct {
	ctx    context.Context
	opts   Options
	macros map[string]*macro
	once   map[string]bool
	stack  []string
}

// resolveInclude finds target relative to the including file, then the
// include paths, then the base path.
func (r *run) resolveInclude(from, target string) (string, bool) {
	if filepath.IsAbs(target) {
		_, err := os.Stat(target)
		return target, err == nil
	}
	dirs := []string{filepath.Dir(from)}
	dirs = append(dirs, r.opts.IncludePaths...)
	dirs = append(dirs, r.opts.BasePath)
	for _, d := range dirs {
		candidate := filepath.Join(d, target)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
