package main

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"flagdump/internal/manifest"
)

// writeStub writes an executable shell script standing in for bazelisk.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub executables are shell scripts")
	}

	path := filepath.Join(t.TempDir(), "bazelisk")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("writing stub failed: %v", err)
	}
	return path
}

// writeConfig writes a flagdump.yaml into a fresh directory and
// returns that directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "flagdump.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("writing config failed: %v", err)
	}
	return dir
}

func TestRunDumpWritesCorpus(t *testing.T) {
	stub := writeStub(t, "printf 'aGVsbG8='\n")
	outputDir := filepath.Join(t.TempDir(), "proto", "flag-dumps")
	dir := writeConfig(t, `
bazelisk: `+stub+`
outputDir: `+outputDir+`
versions:
  - 7.0.0
  - 7.1.0
`)

	code := run([]string{"dump"}, []string{"HOME=/home/test"}, dir)
	if code != 0 {
		t.Fatalf("run = %d, want 0", code)
	}

	for _, ver := range []string{"7.0.0", "7.1.0"} {
		data, err := os.ReadFile(filepath.Join(outputDir, ver+".data"))
		if err != nil {
			t.Fatalf("reading dump for %s failed: %v", ver, err)
		}
		if string(data) != "hello" {
			t.Errorf("dump for %s = %q, want %q", ver, data, "hello")
		}
	}

	m, err := manifest.Load(filepath.Join(outputDir, manifest.FileName))
	if err != nil {
		t.Fatalf("loading manifest failed: %v", err)
	}
	if len(m.Dumps) != 2 {
		t.Errorf("manifest has %d dumps, want 2", len(m.Dumps))
	}
}

func TestRunDumpPositionalVersionsOverrideConfig(t *testing.T) {
	stub := writeStub(t, "printf 'aGVsbG8='\n")
	outputDir := filepath.Join(t.TempDir(), "dumps")
	dir := writeConfig(t, `
bazelisk: `+stub+`
outputDir: `+outputDir+`
versions:
  - 6.0.0
`)

	code := run([]string{"dump", "6.4.0"}, []string{"HOME=/home/test"}, dir)
	if code != 0 {
		t.Fatalf("run = %d, want 0", code)
	}

	if _, err := os.Stat(filepath.Join(outputDir, "6.4.0.data")); err != nil {
		t.Error("dump for the requested version should exist")
	}
	if _, err := os.Stat(filepath.Join(outputDir, "6.0.0.data")); err == nil {
		t.Error("config versions should be ignored when versions are passed as arguments")
	}
}

func TestRunDumpToolFailure(t *testing.T) {
	stub := writeStub(t, "printf 'unknown version' >&2\nexit 1\n")
	outputDir := filepath.Join(t.TempDir(), "dumps")
	dir := writeConfig(t, `
bazelisk: `+stub+`
outputDir: `+outputDir+`
`)

	code := run([]string{"dump", "1.0.0"}, []string{"HOME=/home/test"}, dir)
	if code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}

	if _, err := os.Stat(filepath.Join(outputDir, "1.0.0.data")); err == nil {
		t.Error("no dump should exist for a failed version")
	}
}

func TestRunDumpInvalidBase64(t *testing.T) {
	stub := writeStub(t, "printf 'not base64!'\n")
	outputDir := filepath.Join(t.TempDir(), "dumps")
	dir := writeConfig(t, `
bazelisk: `+stub+`
outputDir: `+outputDir+`
`)

	code := run([]string{"dump", "7.1.0"}, []string{"HOME=/home/test"}, dir)
	if code != 2 {
		t.Fatalf("run = %d, want 2", code)
	}

	if _, err := os.Stat(filepath.Join(outputDir, "7.1.0.data")); err == nil {
		t.Error("no dump should exist after a decode failure")
	}
}

func TestRunDumpExecutableNotFound(t *testing.T) {
	dir := writeConfig(t, "bazelisk: definitely-not-a-real-executable-1b9d\n")

	code := run([]string{"dump", "7.1.0"}, []string{"HOME=/home/test"}, dir)
	if code != 127 {
		t.Fatalf("run = %d, want 127", code)
	}
}

func TestRunDumpNoVersions(t *testing.T) {
	dir := t.TempDir() // No config file, no positional versions

	code := run([]string{"dump"}, []string{"HOME=/home/test"}, dir)
	if code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}
}

func TestRunExplicitConfigMissing(t *testing.T) {
	code := run([]string{"dump", "--config", "missing.yaml", "7.1.0"}, nil, t.TempDir())
	if code != 3 {
		t.Fatalf("run = %d, want 3", code)
	}
}

// captureStderr runs fn with os.Stderr redirected and returns what it
// wrote.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe failed: %v", err)
	}
	old := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = old }()

	fn()

	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured stderr failed: %v", err)
	}
	return string(data)
}

func TestRunConfigDiagnosticsCarryErrorPrefix(t *testing.T) {
	missing := captureStderr(t, func() {
		if code := run([]string{"dump", "--config", "missing.yaml", "7.1.0"}, nil, t.TempDir()); code != 3 {
			t.Errorf("run = %d, want 3", code)
		}
	})
	if !strings.HasPrefix(missing, "Error: config file not found:") {
		t.Errorf("missing-config diagnostic = %q, want Error: prefix", missing)
	}

	dir := writeConfig(t, "versions: [unclosed")
	malformed := captureStderr(t, func() {
		if code := run([]string{"dump", "7.1.0"}, nil, dir); code != 3 {
			t.Errorf("run = %d, want 3", code)
		}
	})
	if !strings.HasPrefix(malformed, "Error: failed to parse config:") {
		t.Errorf("malformed-config diagnostic = %q, want Error: prefix", malformed)
	}
}

func TestRunMalformedConfig(t *testing.T) {
	dir := writeConfig(t, "versions: [unclosed")

	code := run([]string{"dump", "7.1.0"}, nil, dir)
	if code != 3 {
		t.Fatalf("run = %d, want 3", code)
	}
}

func TestRunUnknownSubcommand(t *testing.T) {
	if code := run([]string{"frobnicate"}, nil, t.TempDir()); code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}
}

func TestRunListAndResolve(t *testing.T) {
	stub := writeStub(t, "printf 'aGVsbG8='\n")
	outputDir := filepath.Join(t.TempDir(), "dumps")
	dir := writeConfig(t, `
bazelisk: `+stub+`
outputDir: `+outputDir+`
versions:
  - 7.0.0
  - 7.1.0
`)
	environ := []string{"HOME=/home/test"}

	if code := run([]string{"dump"}, environ, dir); code != 0 {
		t.Fatalf("dump = %d, want 0", code)
	}
	if code := run([]string{"list"}, environ, dir); code != 0 {
		t.Errorf("list = %d, want 0", code)
	}
	if code := run([]string{"list", "--json"}, environ, dir); code != 0 {
		t.Errorf("list --json = %d, want 0", code)
	}
	if code := run([]string{"resolve", "7.0.5"}, environ, dir); code != 0 {
		t.Errorf("resolve = %d, want 0", code)
	}
}

func TestRunResolveEmptyCorpus(t *testing.T) {
	dir := writeConfig(t, "outputDir: "+filepath.Join(t.TempDir(), "empty")+"\n")

	if code := run([]string{"resolve", "7.1.0"}, nil, dir); code != 4 {
		t.Fatalf("resolve = %d, want 4", code)
	}
}

func TestRunVerify(t *testing.T) {
	stub := writeStub(t, "printf 'aGVsbG8='\n")
	outputDir := filepath.Join(t.TempDir(), "dumps")
	dir := writeConfig(t, `
bazelisk: `+stub+`
outputDir: `+outputDir+`
versions:
  - 7.1.0
`)
	environ := []string{"HOME=/home/test"}

	// No manifest yet
	if code := run([]string{"verify"}, environ, dir); code != 4 {
		t.Fatalf("verify before dump = %d, want 4", code)
	}

	if code := run([]string{"dump"}, environ, dir); code != 0 {
		t.Fatalf("dump = %d, want 0", code)
	}
	if code := run([]string{"verify"}, environ, dir); code != 0 {
		t.Errorf("verify on fresh corpus = %d, want 0", code)
	}

	// Corrupt a dump behind the manifest's back
	if err := os.WriteFile(filepath.Join(outputDir, "7.1.0.data"), []byte("tampered"), 0644); err != nil {
		t.Fatalf("tampering failed: %v", err)
	}
	if code := run([]string{"verify"}, environ, dir); code != 1 {
		t.Errorf("verify on tampered corpus = %d, want 1", code)
	}
	if code := run([]string{"verify", "--json"}, environ, dir); code != 1 {
		t.Errorf("verify --json on tampered corpus = %d, want 1", code)
	}
}
