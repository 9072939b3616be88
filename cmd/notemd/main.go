package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// commands lists the subcommands runMain dispatches.
var commands = []string{"convert", "watch", "outline", "version", "help"}

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches a command and returns the process exit code.
// A bare markdown path is shorthand for "convert <path>".
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	if !isCommand(cmd) {
		if !looksLikeMarkdown(cmd) {
			fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
			printUsage(env.Stderr)
			return ExitUsage
		}
		cmd, rest = "convert", args[1:]
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	var err error
	switch cmd {
	case "version":
		fmt.Fprintf(env.Stdout, "notemd %s\n", Version)
		return ExitSuccess
	case "help":
		return runHelp(rest, env)
	case "convert":
		err = runConvertCmd(ctx, rest, env)
	case "watch":
		err = runWatchCmd(ctx, rest, env)
	case "outline":
		err = runOutlineCmd(rest, env)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		}
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// setMaxProcs configures GOMAXPROCS for the container quota, logging the
// decision only when verbose.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(env *Environment, verbose bool) {
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
		return
	}
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
}

// isCommand reports whether name is a known subcommand.
func isCommand(name string) bool {
	return slices.Contains(commands, name)
}

// looksLikeMarkdown reports whether arg names a note file.
func looksLikeMarkdown(arg string) bool {
	return strings.HasSuffix(arg, ".md") || strings.HasSuffix(arg, ".markdown")
}
