package integration_tests

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/vyperpp/internal/app"
	"github.com/specialistvlad/vyperpp/internal/testutil"
	"github.com/stretchr/testify/require"
)

// TestCompile_ConcurrentRunsShareTempDir runs two compiles of many sources in
// the same project at once. Every staged file must be unique and every
// artifact must come from its own source.
func TestCompile_ConcurrentRunsShareTempDir(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	const perRun = 60
	files := make(map[string]string, perRun)
	sources := make([]string, perRun)
	for i := range sources {
		sources[i] = fmt.Sprintf("contracts/C%03d.vy", i)
		files[sources[i]] = fmt.Sprintf("#define ID %d\nid: constant(uint256) = ID\n", i)
	}
	root := testutil.WriteProject(t, files)
	ec := testutil.NewEchoCompiler(root)
	a, _ := app.SetupAppTest(t, root, testutil.Modules(ec)...)

	// --- Act ---
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = a.Compile(context.Background(), sources)
		}(i)
	}
	wg.Wait()

	// --- Assert ---
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	staged := make(map[string]bool)
	for _, req := range ec.Requests() {
		for _, p := range req.InputPaths {
			require.False(t, staged[p], "staged path %s was allocated twice", p)
			staged[p] = true
		}
	}
	require.Len(t, staged, 2*perRun)

	result := &testutil.HarnessResult{Root: root, App: a}
	for i, name := range sources {
		testutil.AssertCompiledSource(t, result, name, fmt.Sprintf("\nid: constant(uint256) = %d\n", i))
	}
	testutil.AssertNoStagedFiles(t, result)
}
