package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/vyperpp/internal/artifacts"
	"github.com/stretchr/testify/require"
)

// AssertCompiledSource checks that the artifact written for sourceName was
// compiled from exactly want.
func AssertCompiledSource(t *testing.T, result *HarnessResult, sourceName, want string) {
	t.Helper()
	require.NotNil(t, result.App, "app did not start")

	w := &artifacts.Writer{Dir: result.App.Project().Abs(result.App.Project().Paths.Artifacts)}
	file, err := w.Path(sourceName)
	require.NoError(t, err)

	a, err := artifacts.Read(file)
	require.NoError(t, err, "no artifact for %s", sourceName)
	require.Equal(t, sourceName, a.SourceName)

	got, err := Decode(a.Bytecode)
	require.NoError(t, err)
	require.Equal(t, want, got, "compiled text of %s", sourceName)
}

// AssertNoStagedFiles checks that the staging directory holds no files.
func AssertNoStagedFiles(t *testing.T, result *HarnessResult) {
	t.Helper()
	dir := filepath.Join(result.Root, "tmp")
	if result.App != nil {
		dir = result.App.Project().Abs(result.App.Project().Paths.Tmp)
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	require.NoError(t, err)
	require.Empty(t, entries, "staged files were left behind")
}

// AssertLogged checks that the log output contains substr.
func AssertLogged(t *testing.T, result *HarnessResult, substr string) {
	t.Helper()
	require.True(t,
		strings.Contains(result.LogOutput, substr),
		"expected %q in log output", substr,
	)
}
