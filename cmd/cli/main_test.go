package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/vyperpp/internal/cli"
	"github.com/specialistvlad/vyperpp/internal/tempfs"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A configuration file with a syntax error makes app.NewApp panic.
	root := t.TempDir()
	writeFile(t, root, "vyperpp.hcl", `
vyper {
  version = "0.3.3"
  // Missing closing brace here
`)
	args := []string{"--root", root, "config"}
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, logs, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
	require.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_Preprocess(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "vyperpp.hcl", `
preprocessor {
  include_paths = ["contracts/include"]
  defines       = { DECIMALS = 18 }
}
`)
	writeFile(t, root, "contracts/include/math.vy", "#define SCALE(x) (x * 10 ** DECIMALS)\n")
	src := writeFile(t, root, "contracts/Token.vy", "#include \"math.vy\"\nsupply: uint256 = SCALE(1000)\n")

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--root", root, "preprocess", src})
	require.NoError(t, err)
	require.Equal(t, "\n\nsupply: uint256 = (1000 * 10 ** 18)\n", out.String())
}

func TestRun_Config(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "vyperpp.hcl", "vyper {\n  version = \"0.3.10\"\n}\n")

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--root", root, "--log-format", "json", "config"})
	require.NoError(t, err)

	var project struct {
		Root  string
		Vyper struct{ Version string }
		Paths struct{ Cache string }
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &project))
	require.Equal(t, root, project.Root)
	require.Equal(t, "0.3.10", project.Vyper.Version)
	require.Equal(t, "hh-cache", project.Paths.Cache)
}

func TestRun_CompileWithoutSources(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	err := run(context.Background(), out, logs, []string{"--root", root, "compile"})
	require.NoError(t, err)
	require.Equal(t, "Compiled 0 Vyper source(s)\n", out.String())
	require.Contains(t, logs.String(), "No Vyper sources found.")
}

func TestRun_CompileMissingCompiler(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "vyperpp.hcl", "vyper {\n  binary = \"/definitely/not/a/vyper\"\n}\n")
	writeFile(t, root, "contracts/A.vy", "a: uint256\n")

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--root", root, "compile"})
	require.ErrorContains(t, err, "compilation failed")

	entries, readErr := os.ReadDir(filepath.Join(root, "tmp"))
	require.NoError(t, readErr)
	require.Empty(t, entries, "staged files must be released after a failed compile")
}

func TestCleanupTempFiles_LogsFailure(t *testing.T) {
	// Not parallel: the cleanup registry is process-wide.
	tempfs.SetGracefulCleanup()
	root := t.TempDir()
	h, err := tempfs.NewStager(root, "tmp").Create(".vy")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	// A non-empty directory in place of the staged file cannot be removed.
	require.NoError(t, os.Remove(h.Path))
	writeFile(t, h.Path, "blocker", "x")

	var logs bytes.Buffer
	cleanupTempFiles(slog.New(slog.NewTextHandler(&logs, nil)))
	require.Contains(t, logs.String(), "Failed to remove temp files at exit.")
	require.Contains(t, logs.String(), filepath.Base(h.Path))

	require.NoError(t, os.RemoveAll(h.Path))
	logs.Reset()
	cleanupTempFiles(slog.New(slog.NewTextHandler(&logs, nil)))
	require.Empty(t, logs.String())
}
