// Package preprocessor runs every Vyper source through the preprocessor
// before it reaches the compiler.
//
// It overrides compile:vyper:run-binary. The previous action, usually the one
// that runs the vyper binary, becomes the interceptor's delegate, so the
// compiler sees staged, preprocessed files while callers keep seeing results
// keyed by their own source paths.
package preprocessor

import (
	"context"
	"fmt"

	"github.com/specialistvlad/vyperpp/internal/compiler"
	"github.com/specialistvlad/vyperpp/internal/config"
	"github.com/specialistvlad/vyperpp/internal/interceptor"
	"github.com/specialistvlad/vyperpp/internal/preprocess"
	"github.com/specialistvlad/vyperpp/internal/registry"
	"github.com/specialistvlad/vyperpp/internal/tempfs"
	"github.com/specialistvlad/vyperpp/modules/vyper"
)

// TaskPreprocess expands a single source file and returns the result.
const TaskPreprocess = "preprocess"

// PreprocessArgs are the arguments of the preprocess task.
type PreprocessArgs struct {
	Project *config.Project
	Path    string
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register overrides run-binary and adds the preprocess task. The vyper
// module must be registered first.
func (m *Module) Register(r *registry.Registry) {
	r.Override(vyper.TaskRunBinary, runBinary)
	r.Register(TaskPreprocess, "Prints a Vyper source after preprocessing", preprocessFile)
}

// NewEngine builds the preprocessor configured for p.
func NewEngine(p *config.Project) *preprocess.Engine {
	includes := make([]string, len(p.Preprocessor.IncludePaths))
	for i, inc := range p.Preprocessor.IncludePaths {
		includes[i] = p.Abs(inc)
	}
	base := p.Root
	if p.Preprocessor.BasePath != "" {
		base = p.Abs(p.Preprocessor.BasePath)
	}
	return preprocess.New(preprocess.Options{
		BasePath:     base,
		IncludePaths: includes,
		Defines:      p.Preprocessor.Defines,
	})
}

func runBinary(ctx context.Context, args any, runSuper registry.Super) (any, error) {
	in, ok := args.(*vyper.RunBinaryArgs)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected arguments %T", vyper.TaskRunBinary, args)
	}
	p := in.Project

	i, err := interceptor.New(interceptor.Config{
		Root:         p.Root,
		Preprocessor: NewEngine(p),
		Stager:       tempfs.NewStager(p.Root, p.Paths.Tmp),
	})
	if err != nil {
		return nil, err
	}

	delegate := func(ctx context.Context, req *compiler.Request) (*compiler.Output, error) {
		res, err := runSuper(ctx, &vyper.RunBinaryArgs{Project: p, Request: req})
		if err != nil {
			return nil, err
		}
		out, ok := res.(*compiler.Output)
		if !ok {
			return nil, fmt.Errorf("%s returned %T, want *compiler.Output", vyper.TaskRunBinary, res)
		}
		return out, nil
	}
	return i.Intercept(ctx, in.Request, delegate)
}

func preprocessFile(ctx context.Context, args any, _ registry.Super) (any, error) {
	in, ok := args.(*PreprocessArgs)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected arguments %T", TaskPreprocess, args)
	}
	return NewEngine(in.Project).PreprocessFile(ctx, in.Project.Abs(in.Path))
}
