package preprocess

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func preprocess(t *testing.T, opts Options, src string) string {
	t.Helper()
	out, err := New(opts).Preprocess(context.Background(), filepath.Join(t.TempDir(), "main.vy"), src)
	require.NoError(t, err)
	return out
}

func TestPreprocess_NoDirectivesIsIdentity(t *testing.T) {
	t.Parallel()
	src := `# @version 0.3.3
# A regular comment mentioning #define is not a directive.
#comment without a space
owner: public(address)

@external
def __init__():
    self.owner = msg.sender  # inline comment
`
	require.Equal(t, src, preprocess(t, Options{}, src))
}

func TestPreprocess_Directives(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		opts     Options
		src      string
		expected string
	}{
		{
			name:     "object-like define",
			src:      "#define SUPPLY 1000\ntotal: uint256 = SUPPLY\n",
			expected: "\ntotal: uint256 = 1000\n",
		},
		{
			name:     "predefined macro",
			opts:     Options{Defines: map[string]string{"OWNER": "msg.sender"}},
			src:      "self.owner = OWNER\n",
			expected: "self.owner = msg.sender\n",
		},
		{
			name:     "trailing comment is not part of the body",
			src:      "#define N 5 # five\n#define TAG \"#1\"  # label\ny = N + 1\nt = TAG\n",
			expected: "\n\ny = 5 + 1\nt = \"#1\"\n",
		},
		{
			name:     "function-like define",
			src:      "#define MAX(a, b) max(a, b)\nx = MAX(1, y + 2)\n",
			expected: "\nx = max(1, y + 2)\n",
		},
		{
			name:     "nested macro arguments",
			src:      "#define TWICE(x) (x * 2)\n#define N 3\ny = TWICE(TWICE(N))\n",
			expected: "\n\ny = ((3 * 2) * 2)\n",
		},
		{
			name:     "self reference does not recurse",
			src:      "#define X X + 1\nv = X\n",
			expected: "\nv = X + 1\n",
		},
		{
			name:     "no expansion in strings or comments",
			src:      "#define NAME Token\nn: String[8] = \"NAME\"  # NAME\nm = NAME\n",
			expected: "\nn: String[8] = \"NAME\"  # NAME\nm = Token\n",
		},
		{
			name:     "identifier boundaries",
			src:      "#define A 1\nAB = A_ + A\n",
			expected: "\nAB = A_ + 1\n",
		},
		{
			name:     "function-like name without call is untouched",
			src:      "#define F(x) x\ng = F\n",
			expected: "\ng = F\n",
		},
		{
			name:     "undef",
			src:      "#define A 1\n#undef A\nv = A\n",
			expected: "\n\nv = A\n",
		},
		{
			name:     "ifdef else",
			opts:     Options{Defines: map[string]string{"DEBUG": "1"}},
			src:      "#ifdef DEBUG\nlog Debug()\n#else\npass\n#endif\n",
			expected: "\nlog Debug()\n\n\n\n",
		},
		{
			name:     "ifndef",
			src:      "#ifndef DEBUG\npass\n#endif\n",
			expected: "\npass\n\n",
		},
		{
			name:     "if elif else",
			opts:     Options{Defines: map[string]string{"LEVEL": "2"}},
			src:      "#if LEVEL == 1\none\n#elif LEVEL == 2\ntwo\n#else\nother\n#endif\n",
			expected: "\n\n\ntwo\n\n\n\n",
		},
		{
			name:     "nested conditionals inside inactive branch",
			src:      "#if 0\n#ifdef X\na\n#else\nb\n#endif\n#else\nc\n#endif\n",
			expected: "\n\n\n\n\n\n\nc\n\n",
		},
		{
			name:     "defined operator",
			opts:     Options{Defines: map[string]string{"A": "0"}},
			src:      "#if defined(A) && !defined B\nyes\n#endif\n",
			expected: "\nyes\n\n",
		},
		{
			name:     "line continuation",
			src:      "#define SUM(a, b) \\\n  (a + b)\nz = SUM(1, 2)\n",
			expected: "\n\nz = (1 + 2)\n",
		},
		{
			name:     "vyper pragma passes through",
			src:      "#pragma version 0.3.10\nx: uint256\n",
			expected: "#pragma version 0.3.10\nx: uint256\n",
		},
		{
			name:     "missing trailing newline",
			src:      "#define A 5\nv = A",
			expected: "\nv = 5",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, preprocess(t, tc.opts, tc.src))
		})
	}
}

func TestPreprocess_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		src     string
		wantMsg string
		line    int
	}{
		{name: "unterminated if", src: "x\n#ifdef A\ny\n", wantMsg: "unterminated conditional", line: 2},
		{name: "else without if", src: "#else\n", wantMsg: "#else without #if", line: 1},
		{name: "endif without if", src: "a\n#endif\n", wantMsg: "#endif without #if", line: 2},
		{name: "elif after else", src: "#if 1\n#else\n#elif 1\n#endif\n", wantMsg: "#elif after #else", line: 3},
		{name: "duplicate else", src: "#if 1\n#else\n#else\n#endif\n", wantMsg: "duplicate #else", line: 3},
		{name: "error directive", src: "#error unsupported network\n", wantMsg: "#error unsupported network", line: 1},
		{name: "unresolvable include", src: "#include \"missing.vy\"\n", wantMsg: "cannot resolve #include", line: 1},
		{name: "malformed include", src: "#include missing.vy\n", wantMsg: "malformed #include", line: 1},
		{name: "bad if expression", src: "#if 1 +\n#endif\n", wantMsg: "unexpected end of expression", line: 1},
		{name: "division by zero", src: "#if 1 / 0\n#endif\n", wantMsg: "division by zero", line: 1},
		{name: "wrong macro arity", src: "#define F(a, b) a\nx = F(1)\n", wantMsg: "expects 2 arguments", line: 2},
		{name: "unterminated macro call", src: "#define F(a) a\nx = F(1\n", wantMsg: "unterminated macro argument list", line: 2},
		{name: "define without name", src: "#define\n", wantMsg: "requires a macro name", line: 1},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(Options{}).Preprocess(context.Background(), "main.vy", tc.src)
			var synErr *SyntaxError
			require.ErrorAs(t, err, &synErr)
			require.Contains(t, synErr.Msg, tc.wantMsg)
			require.Equal(t, tc.line, synErr.Line)
			require.Equal(t, "main.vy", synErr.Path)
		})
	}
}

func TestPreprocessFile_Includes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	write := func(rel, content string) string {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	write("lib/consts.vy", "#pragma once\n#define FEE 30\n")
	write("contracts/local.vy", "#include <consts.vy>\nlocal: uint256\n")
	main := write("contracts/Pool.vy", "#include \"local.vy\"\n#include \"consts.vy\"\nfee: uint256 = FEE")

	e := New(Options{IncludePaths: []string{filepath.Join(root, "lib")}})
	out, err := e.PreprocessFile(context.Background(), main)
	require.NoError(t, err)
	require.Equal(t, "\n\n\nlocal: uint256\n\n\nfee: uint256 = 30", out)
}

func TestPreprocessFile_BasePath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "header.vy"), []byte("#define N 7\n"), 0o644))
	src := filepath.Join(t.TempDir(), "main.vy")
	require.NoError(t, os.WriteFile(src, []byte("#include \"header.vy\"\nn = N\n"), 0o644))

	out, err := New(Options{BasePath: root}).PreprocessFile(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, "\n\nn = 7\n", out)
}

func TestPreprocessFile_IncludeCycle(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	a := filepath.Join(root, "a.vy")
	require.NoError(t, os.WriteFile(a, []byte("#include \"b.vy\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.vy"), []byte("#include \"a.vy\"\n"), 0o644))

	_, err := New(Options{}).PreprocessFile(context.Background(), a)
	require.ErrorContains(t, err, "include cycle")
}

func TestPreprocessFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := New(Options{}).PreprocessFile(context.Background(), filepath.Join(t.TempDir(), "nope.vy"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPreprocess_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).Preprocess(ctx, "main.vy", "x\n")
	require.ErrorIs(t, err, context.Canceled)
}

func TestEvalExpr(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 / 3", 3},
		{"10 % 3", 1},
		{"0x10 == 16", 1},
		{"010", 8},
		{"5UL", 5},
		{"1 << 4", 16},
		{"-3 < 0", 1},
		{"!0 && ~0", 1},
		{"0 || 0", 0},
		{"1 ? 4 : 5", 4},
		{"0 ? 4 : 1 ? 6 : 7", 6},
		{"UNDEFINED_NAME", 0},
		{"3 & 5 | 8 ^ 1", 9},
		{"0 && 1 / 0", 0},
		{"1 || 1 / 0", 1},
	}
	for _, tc := range testCases {
		got, err := evalExpr(tc.expr)
		require.NoError(t, err, tc.expr)
		require.Equal(t, tc.want, got, tc.expr)
	}

	for _, bad := range []string{"", "(1", "1 ?", "1 ? 2", "1 2", "08", "1 $ 2"} {
		_, err := evalExpr(bad)
		require.Error(t, err, bad)
	}
}
