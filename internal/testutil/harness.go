package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/vyperpp/internal/app"
	"github.com/specialistvlad/vyperpp/internal/compiler"
	"github.com/specialistvlad/vyperpp/internal/config"
	"github.com/specialistvlad/vyperpp/internal/registry"
	"github.com/specialistvlad/vyperpp/modules/preprocessor"
	"github.com/specialistvlad/vyperpp/modules/vyper"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Root      string
	LogOutput string
	Err       error
	App       *app.App
	Summary   *vyper.Summary
	Compiler  *EchoCompiler
}

// WriteProject creates a temporary project root containing files, keyed by
// slash-separated relative path.
func WriteProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// Modules returns the core modules with the vyper binary replaced by c.
func Modules(c compiler.Compiler) []registry.Module {
	return []registry.Module{
		&vyper.Module{NewCompiler: func(*config.Project) compiler.Compiler { return c }},
		&preprocessor.Module{},
	}
}

// RunIntegrationTest compiles a project made of files with an EchoCompiler
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, sources ...string) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, sources...)
}

// RunIntegrationTestWithContext compiles a project made of files with an
// EchoCompiler and the context provided by the caller. Startup panics are
// reported through HarnessResult.Err.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, sources ...string) *HarnessResult {
	t.Helper()

	root := WriteProject(t, files)
	ec := NewEchoCompiler(root)
	result := &HarnessResult{Root: root, Compiler: ec}

	var panicErr any
	var logs *app.SafeBuffer
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		result.App, logs = app.SetupAppTest(t, root, Modules(ec)...)
	}()
	if panicErr != nil {
		result.Err = fmt.Errorf("application startup panicked | %v", panicErr)
		return result
	}

	result.Summary, result.Err = result.App.Compile(ctx, sources)
	result.LogOutput = logs.String()
	return result
}
