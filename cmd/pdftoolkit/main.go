package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
)

// Version is set at build time via ldflags.
var Version = "dev"

// commandFunc runs one document command.
type commandFunc func(ctx context.Context, args []string, env *Environment) error

var commands = map[string]commandFunc{
	"merge":    runMerge,
	"split":    runSplit,
	"reorder":  runReorder,
	"images":   runImages,
	"pptx":     runPPTX,
	"markdown": runMarkdown,
	"pages":    runPages,
}

func main() {
	verbose := slices.Contains(os.Args, "-v") || slices.Contains(os.Args, "--verbose")

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches args[1] and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	name, rest := args[1], args[2:]
	switch name {
	case "help", "-h", "--help":
		return runHelp(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "pdftoolkit %s\n", Version)
		return ExitSuccess
	case "doctor":
		return runDoctorCmd(rest, env)
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", name)
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	err := cmd(ctx, rest, env)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		printError(env, err, slices.Contains(rest, "-v") || slices.Contains(rest, "--verbose"))
	}
	return exitCodeFor(err)
}

// printError writes err to stderr with a hint for engine failures. In
// verbose mode the underlying cause of a user-facing error follows.
func printError(env *Environment, err error, verbose bool) {
	fmt.Fprintf(env.Stderr, "Error: %v%s\n", err, hintFor(err))

	var e *pdftoolkit.Error
	if verbose && errors.As(err, &e) && e.Err != nil && e.Err.Error() != e.Message {
		fmt.Fprintf(env.Stderr, "  cause: %v\n", e.Err)
	}
}
