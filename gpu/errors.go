package gpu

import (
	"errors"
	"fmt"
)

// Canonical errors shared by every operation in the package. Callers match
// with errors.Is; most failure sites wrap these with operation detail.
var (
	// ErrUnavailable means the native WebGPU runtime produced no usable
	// adapter or device. Nothing in this package works after that.
	ErrUnavailable = errors.New("gpu runtime unavailable")

	// ErrCompile is the root of every kernel build failure. Use errors.As
	// with *CompileError to read the diagnostic log.
	ErrCompile = errors.New("kernel compile failed")

	// ErrAllocation means the device rejected a buffer request, or the
	// request exceeds the adapter's buffer limits.
	ErrAllocation = errors.New("device allocation failed")

	// ErrSizeMismatch means a copy or binding disagrees with a buffer's
	// fixed element count. Always a caller logic error; never truncated.
	ErrSizeMismatch = errors.New("element count mismatch")

	// ErrIncompleteBinding means a launch was attempted before every
	// positional argument of the kernel was bound.
	ErrIncompleteBinding = errors.New("incomplete argument binding")

	// ErrUseAfterRelease means an operation touched a released buffer or
	// managed array.
	ErrUseAfterRelease = errors.New("use after release")

	// ErrInvalidWorkSize means the launch grid does not fit the kernel:
	// wrong dimension count, zero extent, a global size that is not a
	// multiple of the local size, or a local size that disagrees with the
	// kernel's declared workgroup size.
	ErrInvalidWorkSize = errors.New("invalid work size")
)

// CompileError carries the native compiler's diagnostic output for a kernel
// that failed to build.
type CompileError struct {
	Path  string // source file, or the label for in-memory sources
	Entry string
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s (entry %q): %s", e.Path, e.Entry, e.Log)
}

func (e *CompileError) Unwrap() error { return ErrCompile }
