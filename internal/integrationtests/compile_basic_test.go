package integration_tests

import (
	"fmt"
	"testing"

	"github.com/specialistvlad/vyperpp/internal/testutil"
	"github.com/stretchr/testify/require"
)

// TestCompile_SingleFileWithoutMacros compiles one plain contract and checks
// that the result is keyed by its own path and carries the compiler version.
func TestCompile_SingleFileWithoutMacros(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := `# @version 0.3.3
totalSupply: public(uint256)

@external
def __init__(supply: uint256):
    self.totalSupply = supply
`
	files := map[string]string{"contracts/Token.vy": src}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Equal(t, testutil.EchoVersion, result.Summary.Version)
	require.Equal(t, []string{"contracts/Token.vy"}, result.Summary.Sources)
	testutil.AssertCompiledSource(t, result, "contracts/Token.vy", src)
	testutil.AssertNoStagedFiles(t, result)
	testutil.AssertLogged(t, result, "Compilation finished.")
}

// TestCompile_OneArtifactPerSource checks that every input yields exactly one
// artifact, under its original path, however deeply it is nested.
func TestCompile_OneArtifactPerSource(t *testing.T) {
	t.Parallel()

	dirs := []string{"", "amm/", "amm/pools/", "lib/math/v2/"}
	files := make(map[string]string)
	var want []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("contracts/%sC%02d.vy", dirs[i%len(dirs)], i)
		files[name] = fmt.Sprintf("id: constant(uint256) = %d\n", i)
		want = append(want, name)
	}

	result := testutil.RunIntegrationTest(t, files)
	require.NoError(t, result.Err)
	require.ElementsMatch(t, want, result.Summary.Sources)
	require.Len(t, result.Summary.Artifacts, len(want))

	for name, content := range files {
		testutil.AssertCompiledSource(t, result, name, content)
	}
}

// TestCompile_ExplicitSources compiles only the requested file.
func TestCompile_ExplicitSources(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"contracts/A.vy": "a: uint256\n",
		"contracts/B.vy": "b: uint256\n",
	}
	result := testutil.RunIntegrationTest(t, files, "contracts/B.vy")

	require.NoError(t, result.Err)
	require.Equal(t, []string{"contracts/B.vy"}, result.Summary.Sources)
	requests := result.Compiler.Requests()
	require.Len(t, requests, 1)
	require.Len(t, requests[0].InputPaths, 1)
}
