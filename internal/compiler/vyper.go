package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/specialistvlad/vyperpp/internal/ctxlog"
	"github.com/specialistvlad/vyperpp/internal/fsutil"
)

// BinaryError is returned when the vyper process exits unsuccessfully.
type BinaryError struct {
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *BinaryError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("vyper exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("vyper exited with code %d: %s", e.ExitCode, msg)
}

// Binary runs a local vyper executable.
type Binary struct {
	// Path is the executable name or path. Defaults to "vyper".
	Path string
	// Root is the working directory of the process; input paths are passed
	// relative to it and output keys are normalized against it.
	Root string
}

var _ Compiler = (*Binary)(nil)

// Compile runs `vyper -f <format> <paths...>` and parses its output.
func (b *Binary) Compile(ctx context.Context, req *Request) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	bin := b.Path
	if bin == "" {
		bin = "vyper"
	}
	format := req.Format
	if format == "" {
		format = DefaultFormat
	}
	if format != DefaultFormat {
		return nil, fmt.Errorf("unsupported output format %q: only %q can be parsed", format, DefaultFormat)
	}

	args := []string{"-f", format}
	args = append(args, optionFlags(req.Options)...)
	for _, p := range req.InputPaths {
		rel, err := fsutil.NormalizePath(b.Root, p)
		if err != nil {
			return nil, err
		}
		args = append(args, filepath.FromSlash(rel))
	}

	logger.Debug("Running vyper.", "binary", bin, "args", args, "dir", b.Root)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = b.Root
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &BinaryError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("failed to run %s: %w", bin, err)
	}

	out, err := ParseOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]Artifact, len(out.Contracts))
	for key, a := range out.Contracts {
		n, err := fsutil.NormalizePath(b.Root, key)
		if err != nil {
			return nil, err
		}
		normalized[n] = a
	}
	out.Contracts = normalized

	logger.Debug("vyper finished.", "version", out.Version, "artifacts", len(out.Contracts))
	return out, nil
}

// optionFlags turns pass-through options into command line flags in a stable
// order. An empty value produces a bare flag.
func optionFlags(opts map[string]string) []string {
	if len(opts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var flags []string
	for _, k := range keys {
		flags = append(flags, "--"+k)
		if v := opts[k]; v != "" {
			flags = append(flags, v)
		}
	}
	return flags
}
