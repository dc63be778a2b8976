package cli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSubcommand is returned when no subcommand is provided
var ErrNoSubcommand = errors.New("missing subcommand: usage: flagdump <dump|list|resolve|verify> [flags] [version...]")

// ErrMissingFlagValue is returned when a flag requires a value but none is provided
var ErrMissingFlagValue = errors.New("flag requires a value")

// ErrNoHint is returned when "resolve" is called without a version hint
var ErrNoHint = errors.New("no version hint provided: usage: flagdump resolve [flags] <hint>")

// Subcommand represents the CLI subcommand
type Subcommand string

const (
	SubcommandDump    Subcommand = "dump"
	SubcommandList    Subcommand = "list"
	SubcommandResolve Subcommand = "resolve"
	SubcommandVerify  Subcommand = "verify"
)

// Command represents the parsed CLI input
type Command struct {
	Subcommand Subcommand

	ConfigPath string // --config <path>
	OutputDir  string // --output-dir <dir>
	Bazelisk   string // --bazelisk <path>
	JSONOutput bool   // --json

	Versions []string // Positional versions - only for dump
	Hint     string   // Positional version hint - only for resolve
}

// ParseArgs parses CLI arguments into a Command.
// It expects args to be os.Args[1:] (excluding the program name).
func ParseArgs(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrNoSubcommand
	}

	subcommand := Subcommand(args[0])
	switch subcommand {
	case SubcommandDump, SubcommandList, SubcommandResolve, SubcommandVerify:
	default:
		return Command{}, ErrNoSubcommand
	}

	cmd := Command{
		Subcommand: subcommand,
	}

	var positional []string

	i := 1 // Start after subcommand
	for i < len(args) {
		arg := args[i]

		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			switch flagName {
			case "config":
				if i+1 >= len(args) {
					return Command{}, ErrMissingFlagValue
				}
				i++
				cmd.ConfigPath = args[i]
			case "output-dir":
				if i+1 >= len(args) {
					return Command{}, ErrMissingFlagValue
				}
				i++
				cmd.OutputDir = args[i]
			case "bazelisk":
				if i+1 >= len(args) {
					return Command{}, ErrMissingFlagValue
				}
				i++
				cmd.Bazelisk = args[i]
			case "json":
				cmd.JSONOutput = true
			default:
				return Command{}, fmt.Errorf("unknown flag: --%s", flagName)
			}
			i++
			continue
		}

		positional = append(positional, arg)
		i++
	}

	switch cmd.Subcommand {
	case SubcommandDump:
		cmd.Versions = positional
	case SubcommandResolve:
		if len(positional) == 0 {
			return Command{}, ErrNoHint
		}
		cmd.Hint = positional[0]
	}

	return cmd, nil
}
