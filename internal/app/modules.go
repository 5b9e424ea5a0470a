package app

import (
	"github.com/specialistvlad/vyperpp/internal/registry"
	"github.com/specialistvlad/vyperpp/modules/preprocessor"
	"github.com/specialistvlad/vyperpp/modules/vyper"
)

// coreModules is the definitive list of all modules that are compiled into
// the vyperpp binary. Order matters: preprocessor overrides a vyper task.
var coreModules = []registry.Module{
	&vyper.Module{},
	&preprocessor.Module{},
}

// requiredTasks must be registered by whatever modules an App runs with.
var requiredTasks = []string{
	vyper.TaskCompile,
	vyper.TaskRunBinary,
}
