package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"

	auth "github.com/mind-engage/mindengage-grades/internal/auth/middleware"
)

// runHashPasswordCmd prints a bcrypt hash for ADMIN_PASS_HASH / serve.admin_pass_hash.
func runHashPasswordCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	p := &prompter{in: bufio.NewReader(stdin), out: stderr}
	pass, err := p.secret("Admin password")
	if err != nil {
		return fail(stderr, err)
	}
	if pass == "" {
		return fail(stderr, usagef("password must not be empty"))
	}
	h, err := auth.HashPassword(pass)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, h)
	return exitOK
}
