// Package bazel invokes bazelisk to extract Bazel's flag metadata.
// Bazelisk selects the Bazel release through the USE_BAZEL_VERSION
// environment variable and keeps its download cache under the
// invoking user's home directory, so the child environment carries
// exactly those two variables.
package bazel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Invoker runs a resolved bazelisk executable once per requested
// version.
type Invoker struct {
	Path    string // Resolved executable path
	HomeDir string // HOME passed to the child process
}

// NewInvoker resolves the bazelisk executable via the process search
// path and returns an invoker bound to it.
//
// Error handling:
//   - Executable not found: returns error (caller should exit 127)
//   - Other lookup failures: returns error (caller should exit 1)
func NewInvoker(executable, homeDir string) (*Invoker, error) {
	path, err := exec.LookPath(executable)
	if err != nil {
		return nil, err
	}
	return &Invoker{Path: path, HomeDir: homeDir}, nil
}

// InvocationError reports a non-zero exit from the external tool.
// Stderr holds the captured standard-error text verbatim.
type InvocationError struct {
	Version  string
	ExitCode int
	Stderr   string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("bazel %s: help flags-as-proto exited with code %d: %s",
		e.Version, e.ExitCode, strings.TrimSpace(e.Stderr))
}

// DumpFlags runs `help flags-as-proto` for the given version and
// returns the captured standard output (a base64-encoded serialized
// protobuf message). A non-zero exit yields an *InvocationError
// carrying the captured stderr.
func (b *Invoker) DumpFlags(ctx context.Context, version string) (string, error) {
	cmd := exec.CommandContext(ctx, b.Path, "help", "flags-as-proto")
	cmd.Env = []string{
		"USE_BAZEL_VERSION=" + version,
		"HOME=" + b.HomeDir,
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &InvocationError{
				Version:  version,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return "", fmt.Errorf("run %s: %w", b.Path, err)
	}

	return stdout.String(), nil
}

// IsNotFound checks if the error indicates the executable was not
// found on the search path.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return os.IsNotExist(err) || errors.Is(err, exec.ErrNotFound)
}
