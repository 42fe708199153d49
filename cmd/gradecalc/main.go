package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mind-engage/mindengage-grades/internal/gradebook"
	"github.com/mind-engage/mindengage-grades/internal/grading"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1 // a course or request failed
	exitUsage   = 2 // bad flags, selection or configuration
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// stdin is read by init; tests swap it.
var stdin io.Reader = os.Stdin

// Run is the entrypoint for testing
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runGradesCmd(nil, stdout, stderr)
	}
	switch args[1] {
	case "grades":
		return runGradesCmd(args[2:], stdout, stderr)
	case "week":
		return runWeekCmd(args[2:], stdout, stderr)
	case "serve", "server":
		return runServeCmd(args[2:], stdout, stderr)
	case "init":
		return runInitCmd(args[2:], stdout, stderr)
	case "hash-password":
		return runHashPasswordCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return exitOK
	default:
		if args[1][0] == '-' {
			return runGradesCmd(args[1:], stdout, stderr)
		}
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: gradecalc [command] [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  grades   compute running and final grades (default)")
	fmt.Fprintln(w, "  week     list assignments due in the next 7 days")
	fmt.Fprintln(w, "  serve    serve grades over HTTP with scheduled refresh")
	fmt.Fprintln(w, "  init     write a config file interactively")
	fmt.Fprintln(w, "  hash-password  print a bcrypt hash for the serve admin")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'gradecalc <command> -h' for flags.")
}

// exitCode maps an error to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, grading.ErrConfiguration),
		errors.Is(err, gradebook.ErrSelection),
		errors.Is(err, gradebook.ErrNoMatch),
		errors.Is(err, gradebook.ErrAmbiguous),
		errors.As(err, new(*usageError)):
		return exitUsage
	default:
		return exitFailure
	}
}

// usageError is a bad flag combination or missing required input.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error {
	return &usageError{msg: fmt.Sprintf(format, a...)}
}

func fail(stderr io.Writer, err error) int {
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitCode(err)
}
