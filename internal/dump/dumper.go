// Package dump implements the flag-dump operation: invoke the external
// tool for one Bazel version, decode its base64 output, and persist
// the decoded bytes to the corpus.
package dump

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"flagdump/internal/corpus"
)

// Invoker produces the base64-encoded flag metadata for a Bazel
// version. Implemented by bazel.Invoker; tests substitute a fake.
type Invoker interface {
	DumpFlags(ctx context.Context, version string) (string, error)
}

// DecodeError reports tool output that is not valid base64.
type DecodeError struct {
	Version string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("flag dump for %s is not valid base64: %v", e.Version, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Dumper extracts flag dumps and persists them.
type Dumper struct {
	invoker Invoker
	store   *corpus.Store
}

// New creates a dumper writing to the given store.
func New(invoker Invoker, store *corpus.Store) *Dumper {
	return &Dumper{invoker: invoker, store: store}
}

// Dump extracts the flag metadata for one version and writes the
// decoded payload to <dir>/<version>.data, overwriting any previous
// dump for that version. Nothing is written when the invocation or
// decoding fails. Returns the written file path.
func (d *Dumper) Dump(ctx context.Context, version string) (string, error) {
	encoded, err := d.invoker.DumpFlags(ctx, version)
	if err != nil {
		return "", err
	}

	// Bazel terminates the payload with a newline; the strict decoder
	// rejects it, so surrounding whitespace is trimmed up front.
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", &DecodeError{Version: version, Err: err}
	}

	return d.store.Save(version, raw)
}

// DumpAll dumps the given versions sequentially, in order, stopping at
// the first failure. Dumps written before the failure stay in place.
// Returns the paths written.
func (d *Dumper) DumpAll(ctx context.Context, versions []string) ([]string, error) {
	paths := make([]string, 0, len(versions))
	for _, version := range versions {
		path, err := d.Dump(ctx, version)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
