package registry

import (
	"sort"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered tasks for a single application instance.
type Registry struct {
	tasks map[string]*Task
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		tasks: make(map[string]*Task),
	}
}

// Names returns the names of all registered tasks in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the task registered under name.
func (r *Registry) Lookup(name string) (*Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}
