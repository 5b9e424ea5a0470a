package integration_tests

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/vyperpp/internal/app"
	"github.com/specialistvlad/vyperpp/internal/compiler"
	"github.com/specialistvlad/vyperpp/internal/interceptor"
	"github.com/specialistvlad/vyperpp/internal/testutil"
	"github.com/stretchr/testify/require"
)

// TestCompile_PreprocessFailureAbortsBatch checks that one bad source fails
// the whole batch before the compiler runs.
func TestCompile_PreprocessFailureAbortsBatch(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{
		"contracts/a.vy": "#include \"nowhere.vy\"\n",
		"contracts/b.vy": "b: uint256\n",
	})

	require.ErrorIs(t, result.Err, interceptor.ErrPreprocess)
	var ppErr *interceptor.PreprocessError
	require.ErrorAs(t, result.Err, &ppErr)
	require.Equal(t, filepath.Join(result.Root, "contracts", "a.vy"), ppErr.Path)

	require.Empty(t, result.Compiler.Requests(), "compiler must not run")
	require.NoDirExists(t, filepath.Join(result.Root, "artifacts"))
	testutil.AssertNoStagedFiles(t, result)
}

// TestCompile_CompilerFailureIsPropagated checks that a compiler error
// reaches the caller unchanged and staged files are still removed.
func TestCompile_CompilerFailureIsPropagated(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root := testutil.WriteProject(t, map[string]string{
		"contracts/a.vy": "a: uint256\n",
		"contracts/b.vy": "b: uint256\n",
	})
	ec := testutil.NewEchoCompiler(root)
	compilerErr := &compiler.BinaryError{ExitCode: 1, Stderr: "vyper.exceptions.SyntaxException"}
	ec.Err = compilerErr
	a, _ := app.SetupAppTest(t, root, testutil.Modules(ec)...)

	// --- Act ---
	_, err := a.Compile(context.Background(), nil)

	// --- Assert ---
	require.ErrorIs(t, err, interceptor.ErrCompile)
	var compileErr *interceptor.CompileError
	require.ErrorAs(t, err, &compileErr)
	require.Same(t, compilerErr, errors.Unwrap(compileErr))
	require.Len(t, ec.Requests(), 1)
	testutil.AssertNoStagedFiles(t, &testutil.HarnessResult{Root: root, App: a})
}

// TestCompile_InvalidConfigFailsStartup checks that a broken configuration
// is reported instead of compiling with defaults.
func TestCompile_InvalidConfigFailsStartup(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{
		"vyperpp.hcl":    "preprocessor {\n  defines = [1, 2]\n}\n",
		"contracts/a.vy": "a: uint256\n",
	})

	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "application startup panicked")
	require.Contains(t, result.Err.Error(), "must be an object")
	require.Nil(t, result.App)
}

// TestCompile_CancelledContext checks that cancellation stops the batch.
func TestCompile_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := testutil.RunIntegrationTestWithContext(ctx, t, map[string]string{
		"contracts/a.vy": "a: uint256\n",
	})

	require.ErrorIs(t, result.Err, context.Canceled)
	testutil.AssertNoStagedFiles(t, result)
}
