package interceptor

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrPreprocess indicates that a source file could not be preprocessed.
	ErrPreprocess = errors.New("preprocess error")

	// ErrResource indicates that a temporary file could not be allocated or
	// written.
	ErrResource = errors.New("resource error")

	// ErrCompile indicates that the delegate compile step failed or returned
	// an incomplete result.
	ErrCompile = errors.New("compile error")

	// ErrMissingArtifact indicates that the delegate returned no entry for
	// one of the staged files.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrNoInputs indicates a request without input paths.
	ErrNoInputs = errors.New("no input paths")
)

// PreprocessError reports the source file whose preprocessing failed.
type PreprocessError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PreprocessError) Error() string {
	return fmt.Sprintf("preprocessing %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *PreprocessError) Unwrap() error { return e.Err }

// Is reports whether this error matches the target.
func (e *PreprocessError) Is(target error) bool { return target == ErrPreprocess }

// ResourceError reports a temporary file that could not be staged for Path.
type ResourceError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("staging %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ResourceError) Unwrap() error { return e.Err }

// Is reports whether this error matches the target.
func (e *ResourceError) Is(target error) bool { return target == ErrResource }

// CompileError wraps a failure of the delegate compile step. Unwrap returns
// the delegate's error unchanged.
type CompileError struct {
	// Path is the original source path, set when a single file is at fault.
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("compiling %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("compile failed: %v", e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CompileError) Unwrap() error { return e.Err }

// Is reports whether this error matches the target.
func (e *CompileError) Is(target error) bool { return target == ErrCompile }
