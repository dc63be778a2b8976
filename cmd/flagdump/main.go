package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flagdump/internal/bazel"
	"flagdump/internal/cli"
	"flagdump/internal/config"
	"flagdump/internal/corpus"
	"flagdump/internal/dump"
	"flagdump/internal/manifest"
	"flagdump/internal/version"
)

func main() {
	exitCode := run(os.Args[1:], os.Environ(), ".")
	os.Exit(exitCode)
}

// run orchestrates the full execution flow.
// It returns an exit code: 0 success, 1 generic or invocation failure,
// 2 decode failure, 3 config failure, 4 not found (resolve against an
// empty corpus, verify without a manifest), 127 executable not found.
// This function is separated from main() to enable testing.
func run(args []string, environ []string, defaultDir string) int {
	cmd, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	// Load config: an explicitly named file must exist, the default
	// location is optional.
	configPath := config.ResolvePath(cmd.ConfigPath, environ, defaultDir)
	cfg, err := config.Load(configPath, environ)
	if err != nil {
		if os.IsNotExist(err) {
			if cmd.ConfigPath != "" {
				fmt.Fprintf(os.Stderr, "Error: config file not found: %s\n", configPath)
				return 3
			}
			cfg = config.Default(environ)
		} else {
			fmt.Fprintf(os.Stderr, "Error: failed to parse config: %v\n", err)
			return 3
		}
	}

	// Flags override the config file.
	if cmd.OutputDir != "" {
		cfg.OutputDir = cmd.OutputDir
	}
	if cmd.Bazelisk != "" {
		cfg.Bazelisk = cmd.Bazelisk
	}

	store := corpus.NewStore(cfg.OutputDir)

	switch cmd.Subcommand {
	case cli.SubcommandDump:
		return runDump(cmd, cfg, store)
	case cli.SubcommandList:
		return runList(cmd, store)
	case cli.SubcommandResolve:
		return runResolve(cmd, store)
	case cli.SubcommandVerify:
		return runVerify(cmd, cfg, store)
	}

	return 1
}

// runDump handles the dump subcommand: one sequential dump per
// requested version, then a manifest rewrite.
func runDump(cmd cli.Command, cfg config.Config, store *corpus.Store) int {
	versions := cmd.Versions
	if len(versions) == 0 {
		versions = cfg.Versions
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no versions to dump: list them in the config file or pass them as arguments")
		return 1
	}

	invoker, err := bazel.NewInvoker(cfg.Bazelisk, cfg.HomeDir)
	if err != nil {
		if bazel.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "Error: executable not found: %s\n", cfg.Bazelisk)
			return 127
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	dumper := dump.New(invoker, store)
	ctx := context.Background()

	for _, ver := range versions {
		path, err := dumper.Dump(ctx, ver)
		if err != nil {
			var decodeErr *dump.DecodeError
			if errors.As(err, &decodeErr) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return 2
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Dumped flags for %s -> %s\n", ver, path)
	}

	m, err := manifest.Build(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot build manifest: %v\n", err)
		return 1
	}
	manifestPath := filepath.Join(cfg.OutputDir, manifest.FileName)
	if err := m.WriteToFile(manifestPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write manifest: %s: %v\n", manifestPath, err)
		return 1
	}

	fmt.Printf("Dumped %d version(s), corpus %s\n", len(versions), m.CorpusHash)
	return 0
}

// runList handles the list subcommand.
func runList(cmd cli.Command, store *corpus.Store) int {
	entries, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot list dumps: %v\n", err)
		return 1
	}

	if len(entries) == 0 {
		if cmd.JSONOutput {
			fmt.Println("[]")
		} else {
			fmt.Println("No flag dumps found")
		}
		return 0
	}

	if cmd.JSONOutput {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot serialize dumps: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else {
		for _, e := range entries {
			fmt.Printf("%s  %d bytes  %s\n", e.Version, e.Size, e.ModTime.Format(time.RFC3339))
		}
	}

	return 0
}

// runResolve handles the resolve subcommand: print the dumped version
// closest to the given hint.
func runResolve(cmd cli.Command, store *corpus.Store) int {
	versions, err := store.Versions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot list dumps: %v\n", err)
		return 1
	}

	closest, err := version.FindClosest(versions, cmd.Hint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 4
	}

	fmt.Println(closest)
	return 0
}

// runVerify handles the verify subcommand: compare the corpus on disk
// against the manifest written by the last dump.
func runVerify(cmd cli.Command, cfg config.Config, store *corpus.Store) int {
	manifestPath := filepath.Join(cfg.OutputDir, manifest.FileName)
	m, err := manifest.Load(manifestPath)
	if err != nil {
		if errors.Is(err, manifest.ErrManifestNotFound) {
			fmt.Fprintf(os.Stderr, "Error: manifest not found: %s\n", manifestPath)
			return 4
		}
		fmt.Fprintf(os.Stderr, "Error: cannot load manifest: %v\n", err)
		return 1
	}

	report, err := manifest.Verify(m, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot verify corpus: %v\n", err)
		return 1
	}

	if cmd.JSONOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot serialize report: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else if report.HasDrift {
		for _, change := range report.Changes {
			switch change.Type {
			case manifest.DriftAdded:
				fmt.Fprintf(os.Stderr, "drift: %s: dump present but not in manifest\n", change.Version)
			case manifest.DriftRemoved:
				fmt.Fprintf(os.Stderr, "drift: %s: dump missing from corpus\n", change.Version)
			case manifest.DriftChanged:
				fmt.Fprintf(os.Stderr, "drift: %s: dump changed since manifest was written\n", change.Version)
			}
		}
	} else {
		fmt.Printf("Corpus matches manifest (%d dump(s), %s)\n", len(m.Dumps), m.CorpusHash)
	}

	if report.HasDrift {
		return 1
	}
	return 0
}
