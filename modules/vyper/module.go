// Package vyper registers the tasks that compile Vyper sources and write
// their artifacts.
//
// compile:vyper discovers the sources, builds a compile request and hands it
// to compile:vyper:run-binary. Other modules override run-binary to change
// how sources reach the compiler; compile:vyper does not notice.
package vyper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/vyperpp/internal/artifacts"
	"github.com/specialistvlad/vyperpp/internal/compiler"
	"github.com/specialistvlad/vyperpp/internal/config"
	"github.com/specialistvlad/vyperpp/internal/ctxlog"
	"github.com/specialistvlad/vyperpp/internal/registry"
)

// Task names registered by this module.
const (
	TaskCompile   = "compile:vyper"
	TaskRunBinary = "compile:vyper:run-binary"
)

// CompileArgs are the arguments of compile:vyper.
type CompileArgs struct {
	Project *config.Project
	// Sources to compile. Relative paths are resolved against the project
	// root. When empty, every source under paths.sources is compiled.
	Sources []string
}

// RunBinaryArgs are the arguments of compile:vyper:run-binary.
type RunBinaryArgs struct {
	Project *config.Project
	Request *compiler.Request
}

// Summary is the result of compile:vyper.
type Summary struct {
	// Version is the version reported by the compiler.
	Version   string
	Sources   []string
	Artifacts []string
	Duration  time.Duration
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// NewCompiler builds the compiler used by run-binary. Defaults to the
	// configured vyper executable.
	NewCompiler func(p *config.Project) compiler.Compiler
}

// Register registers the compile tasks with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(TaskRunBinary, "Runs the vyper compiler on a batch of sources", m.runBinary)
	r.Register(TaskCompile, "Compiles the project's Vyper sources and writes artifacts", func(ctx context.Context, args any, _ registry.Super) (any, error) {
		return compile(ctx, r, args)
	})
}

func (m *Module) newCompiler(p *config.Project) compiler.Compiler {
	if m.NewCompiler != nil {
		return m.NewCompiler(p)
	}
	return &compiler.Binary{Path: p.Vyper.Binary, Root: p.Root}
}

// runBinary is the base action of run-binary.
func (m *Module) runBinary(ctx context.Context, args any, _ registry.Super) (any, error) {
	in, ok := args.(*RunBinaryArgs)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected arguments %T", TaskRunBinary, args)
	}
	if in.Project.Vyper.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Project.Vyper.Timeout)
		defer cancel()
	}
	return m.newCompiler(in.Project).Compile(ctx, in.Request)
}

func compile(ctx context.Context, r *registry.Registry, args any) (any, error) {
	in, ok := args.(*CompileArgs)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected arguments %T", TaskCompile, args)
	}
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	p := in.Project

	sources, err := resolveSources(p, in.Sources)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		logger.Warn("No Vyper sources found.", "path", p.Abs(p.Paths.Sources))
		return &Summary{Duration: time.Since(start)}, nil
	}
	logger.Info("Compiling Vyper sources.", "count", len(sources), "version", p.Vyper.Version)

	req := &compiler.Request{
		InputPaths: sources,
		Version:    p.Vyper.Version,
		Format:     p.Vyper.Format,
	}
	res, err := r.Run(ctx, TaskRunBinary, &RunBinaryArgs{Project: p, Request: req})
	if err != nil {
		return nil, err
	}
	out, ok := res.(*compiler.Output)
	if !ok || out == nil {
		return nil, fmt.Errorf("%s returned %T, want *compiler.Output", TaskRunBinary, res)
	}

	if !versionMatches(p.Vyper.Version, out.Version) {
		logger.Warn("Compiler version differs from the configured version.", "configured", p.Vyper.Version, "reported", out.Version)
	}

	w := &artifacts.Writer{Dir: p.Abs(p.Paths.Artifacts)}
	files, err := w.Write(ctx, out)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Version:   out.Version,
		Sources:   out.Paths(),
		Artifacts: files,
		Duration:  time.Since(start),
	}
	logger.Info("Compilation finished.", "artifacts", len(files), "duration", summary.Duration)
	return summary, nil
}

// versionMatches compares a configured version with the one a compiler
// reports, ignoring build metadata such as "+commit.48e326f0".
func versionMatches(configured, reported string) bool {
	if configured == "" || reported == "" {
		return true
	}
	base, _, _ := strings.Cut(reported, "+")
	return strings.TrimPrefix(base, "v") == strings.TrimPrefix(configured, "v")
}
