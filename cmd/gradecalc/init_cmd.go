package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/mind-engage/mindengage-grades/internal/config"
	"github.com/mind-engage/mindengage-grades/internal/grading"
)

// runInitCmd implements `gradecalc init`: prompts for connection details,
// exclusions, weights and policies, then writes a YAML config.
func runInitCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("init", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		out   string
		force bool
	)
	cmd.StringVar(&out, "out", config.DefaultPath, "Path to write the config file (YAML)")
	cmd.BoolVar(&force, "force", false, "Overwrite an existing file")

	if err := cmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if _, err := os.Stat(out); err == nil && !force {
		return fail(stderr, usagef("%s already exists; use --force to overwrite", out))
	}

	p := &prompter{in: bufio.NewReader(stdin), out: stdout}
	f, err := p.collect()
	if err != nil {
		return fail(stderr, err)
	}
	if err := f.Validate(); err != nil {
		return fail(stderr, err)
	}
	if err := config.Save(out, f); err != nil {
		return fail(stderr, err)
	}

	fmt.Fprintf(stdout, "\nWrote %s\n\n", out)
	fmt.Fprintln(stdout, "Next steps:")
	fmt.Fprintf(stdout, "  gradecalc --all-courses --config %s\n", out)
	fmt.Fprintf(stdout, "  gradecalc --course-id 12345 --show-assignments --config %s\n", out)
	fmt.Fprintf(stdout, "  gradecalc week --config %s\n", out)
	return exitOK
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) line(msg, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", msg, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", msg)
	}
	s, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if s = strings.TrimSpace(s); s == "" {
		return def, nil
	}
	return s, nil
}

// secret reads without echo when stdin is a terminal.
func (p *prompter) secret(msg string) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(p.out, "%s: ", msg)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		return strings.TrimSpace(string(b)), err
	}
	return p.line(msg, "")
}

func (p *prompter) weights(kind string) (config.Weights, error) {
	fmt.Fprintf(p.out, "\nEnter %s weights (blank name to stop). Raw numbers or percents; they are normalized to 100%%.\n", kind)
	w := config.Weights{}
	for {
		name, err := p.line("  Category name", "")
		if err != nil || name == "" {
			return w, err
		}
		for {
			raw, err := p.line("  Weight (number or %)", "")
			if err != nil {
				return w, err
			}
			if raw == "" {
				fmt.Fprintf(p.out, "    No weight; skipping %s.\n", name)
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
			if err == nil && v >= 0 {
				w[name] = v
				break
			}
			fmt.Fprintln(p.out, "    Invalid number; try again.")
		}
	}
}

func (p *prompter) courseID() (string, error) {
	for {
		s, err := p.line("  Course ID", "")
		if err != nil || s == "" {
			return "", err
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return s, nil
		}
		fmt.Fprintln(p.out, "    Course ID must be an integer; try again.")
	}
}

func (p *prompter) policy(msg, def string) (string, error) {
	for {
		s, err := p.line(msg, def)
		if err != nil || s == "" {
			return s, err
		}
		if grading.FinalPolicy(s).Valid() {
			return s, nil
		}
		fmt.Fprintf(p.out, "    Invalid policy; choose one of: %s\n", policyNames())
	}
}

func (p *prompter) collect() (*config.File, error) {
	f := &config.File{}
	var err error

	fmt.Fprintln(p.out, "\n=== Canvas connection ===")
	if f.Canvas.BaseURL, err = p.line("Canvas base URL", firstSet(os.Getenv("CANVAS_BASE_URL"), "https://school.instructure.com")); err != nil {
		return nil, err
	}
	if f.Canvas.Token, err = p.secret("Canvas API token (input hidden)"); err != nil {
		return nil, err
	}

	fmt.Fprintln(p.out, "\n=== Exclusions ===")
	ids, err := p.line("Exclude course IDs (comma-separated)", "")
	if err != nil {
		return nil, err
	}
	for _, x := range strings.Split(ids, ",") {
		if x = strings.TrimSpace(x); x == "" {
			continue
		}
		id, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			fmt.Fprintf(p.out, "  Skipping non-integer: %s\n", x)
			continue
		}
		f.Exclusions.IDs = append(f.Exclusions.IDs, id)
	}
	for {
		s, err := p.line("Exclude courses whose name contains (blank to stop)", "")
		if err != nil {
			return nil, err
		}
		if s == "" {
			break
		}
		f.Exclusions.NameContains = append(f.Exclusions.NameContains, s)
	}

	fmt.Fprintln(p.out, "\n=== Weights ===")
	if f.Weights.Default, err = p.weights("DEFAULT"); err != nil {
		return nil, err
	}
	fmt.Fprintln(p.out, "\nAdd per-course weight overrides (blank Course ID to stop).")
	for {
		id, err := p.courseID()
		if err != nil {
			return nil, err
		}
		if id == "" {
			break
		}
		w, err := p.weights("course " + id)
		if err != nil {
			return nil, err
		}
		if f.Weights.ByCourseID == nil {
			f.Weights.ByCourseID = map[string]config.Weights{}
		}
		f.Weights.ByCourseID[id] = w
	}

	fmt.Fprintln(p.out, "\n=== Final policy ===")
	fmt.Fprintln(p.out, "Options:", policyNames())
	if f.FinalPolicy.Default, err = p.policy("Default final policy", string(grading.DefaultPolicy)); err != nil {
		return nil, err
	}
	fmt.Fprintln(p.out, "\nAdd per-course final policy overrides (blank Course ID to stop).")
	for {
		id, err := p.courseID()
		if err != nil {
			return nil, err
		}
		if id == "" {
			break
		}
		pol, err := p.policy("  Final policy", "")
		if err != nil {
			return nil, err
		}
		if pol == "" {
			continue
		}
		if f.FinalPolicy.ByCourseID == nil {
			f.FinalPolicy.ByCourseID = map[string]string{}
		}
		f.FinalPolicy.ByCourseID[id] = pol
	}
	return f, nil
}

func policyNames() string {
	names := make([]string, len(grading.Policies))
	for i, p := range grading.Policies {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
