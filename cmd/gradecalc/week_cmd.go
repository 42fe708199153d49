package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mind-engage/mindengage-grades/internal/export"
	"github.com/mind-engage/mindengage-grades/internal/gradebook"
)

// runWeekCmd implements `gradecalc week`: published assignments due in the
// next 7 days across the caller's courses.
func runWeekCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("week", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		cf         commonFlags
		jsonOutput bool
	)
	cf.register(cmd)
	cmd.BoolVar(&jsonOutput, "json", false, "Print items as JSON")

	if err := cmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cf, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	items, werr := a.runner(cf, gradebook.Overrides{}).Week(ctx, cf.includeCompleted)
	if werr != nil && len(items) == 0 {
		return fail(stderr, werr)
	}

	if jsonOutput {
		if items == nil {
			items = []gradebook.DueItem{}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			return fail(stderr, err)
		}
	} else if err := export.RenderWeek(stdout, items); err != nil {
		return fail(stderr, err)
	}

	if werr != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: some courses could not be listed: %v\n", werr)
		return exitFailure
	}
	return exitOK
}
