package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/vyperpp/internal/ctxlog"
)

// Validate checks that every required task has been registered. All missing
// tasks are reported at once.
func (r *Registry) Validate(ctx context.Context, required ...string) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range required {
		t, ok := r.tasks[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("task '%s' is required but no module registers it", name))
			continue
		}
		if t.Description == "" {
			logger.Warn("Task has no description.", "task", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
