// Package config holds the explicit run configuration: which
// executable to invoke, the home directory handed to it, where dumps
// land, and the ordered list of versions to dump. Nothing in this
// package reads ambient process state; callers pass their environ
// slice in.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"flagdump/internal/corpus"
)

// DefaultFileName is the config file looked up when no --config flag
// is given.
const DefaultFileName = "flagdump.yaml"

// DefaultExecutable is the executable resolved via the search path
// when the config names none.
const DefaultExecutable = "bazelisk"

// Config describes a full dump run.
type Config struct {
	Bazelisk  string   `yaml:"bazelisk"`  // Executable name or path
	HomeDir   string   `yaml:"homeDir"`   // HOME for the child process
	OutputDir string   `yaml:"outputDir"` // Corpus directory
	Versions  []string `yaml:"versions"`  // Ordered versions to dump
}

// Parse parses YAML content into a Config, applying defaults for
// missing fields. The home directory falls back to HOME from the given
// environ slice.
func Parse(content []byte, environ []string) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid YAML: %w", err)
	}

	cfg.applyDefaults(environ)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a config file.
func Load(path string, environ []string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(content, environ)
}

// Default returns the configuration used when no config file exists:
// all defaults, no versions.
func Default(environ []string) Config {
	cfg := Config{}
	cfg.applyDefaults(environ)
	return cfg
}

func (c *Config) applyDefaults(environ []string) {
	if c.Bazelisk == "" {
		c.Bazelisk = DefaultExecutable
	}
	if c.OutputDir == "" {
		c.OutputDir = corpus.DefaultDir()
	}
	if c.HomeDir == "" {
		c.HomeDir = homeFromEnviron(environ)
	}
}

func (c *Config) validate() error {
	for i, version := range c.Versions {
		if version == "" {
			return fmt.Errorf("version at index %d is empty", i)
		}
		if strings.ContainsAny(version, "/\\") {
			return fmt.Errorf("version '%s' contains a path separator", version)
		}
	}
	return nil
}

// homeFromEnviron extracts HOME from an environ slice.
func homeFromEnviron(environ []string) string {
	for _, env := range environ {
		if strings.HasPrefix(env, "HOME=") {
			return strings.TrimPrefix(env, "HOME=")
		}
	}
	return ""
}

// ResolvePath determines the config path from flag, env var, or
// default. Flag takes precedence, then FLAGDUMP_CONFIG, then
// flagdump.yaml in the default directory.
func ResolvePath(flagValue string, environ []string, defaultDir string) string {
	if flagValue != "" {
		if filepath.IsAbs(flagValue) {
			return flagValue
		}
		return filepath.Join(defaultDir, flagValue)
	}

	for _, env := range environ {
		if strings.HasPrefix(env, "FLAGDUMP_CONFIG=") {
			path := strings.TrimPrefix(env, "FLAGDUMP_CONFIG=")
			if filepath.IsAbs(path) {
				return path
			}
			return filepath.Join(defaultDir, path)
		}
	}

	return filepath.Join(defaultDir, DefaultFileName)
}
