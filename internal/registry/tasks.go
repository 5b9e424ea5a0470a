package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/vyperpp/internal/ctxlog"
)

var (
	// ErrUnknownTask is returned by Run for a name nothing was registered under.
	ErrUnknownTask = errors.New("unknown task")

	// ErrNoSuper is returned when the base action of a task calls runSuper.
	ErrNoSuper = errors.New("task has no parent action")
)

// Super runs the action a task had before it was overridden.
type Super func(ctx context.Context, args any) (any, error)

// Action implements a task. runSuper is never nil.
type Action func(ctx context.Context, args any, runSuper Super) (any, error)

// Task is a named action together with its override chain.
type Task struct {
	Name        string
	Description string

	// Overrides counts how many times the base action has been wrapped.
	Overrides int

	run Super
}

// Register adds a new task. It panics when name is already taken, since that
// can only be a wiring mistake between modules.
func (r *Registry) Register(name, description string, action Action) {
	if _, exists := r.tasks[name]; exists {
		panic(fmt.Sprintf("task with name '%s' already registered", name))
	}
	if action == nil {
		panic(fmt.Sprintf("task '%s' registered without an action", name))
	}
	slog.Debug("Registering task.", "name", name)
	r.tasks[name] = &Task{
		Name:        name,
		Description: description,
		run:         bind(action, noSuper),
	}
}

// Override replaces the action of an existing task. The replaced action is
// passed to the new one as runSuper. It panics when no task with that name
// has been registered.
func (r *Registry) Override(name string, action Action) {
	t, exists := r.tasks[name]
	if !exists {
		panic(fmt.Sprintf("cannot override task '%s': not registered", name))
	}
	if action == nil {
		panic(fmt.Sprintf("task '%s' overridden without an action", name))
	}
	slog.Debug("Overriding task.", "name", name, "depth", t.Overrides+1)
	t.run = bind(action, t.run)
	t.Overrides++
}

// Run executes the named task with args.
func (r *Registry) Run(ctx context.Context, name string, args any) (any, error) {
	t, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	ctx, logger := ctxlog.With(ctx, "task", name)
	logger.Debug("Running task.")
	return t.run(ctx, args)
}

func bind(action Action, super Super) Super {
	return func(ctx context.Context, args any) (any, error) {
		return action(ctx, args, super)
	}
}

func noSuper(context.Context, any) (any, error) {
	return nil, ErrNoSuper
}
