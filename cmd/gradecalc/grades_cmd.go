package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mind-engage/mindengage-grades/internal/export"
	"github.com/mind-engage/mindengage-grades/internal/gradebook"
	"github.com/mind-engage/mindengage-grades/internal/grading"
	"github.com/mind-engage/mindengage-grades/internal/storage"
)

// runGradesCmd implements `gradecalc grades`.
//
// Exit codes:
//
//	0 = every selected course computed
//	1 = at least one course failed
//	2 = usage or configuration error
func runGradesCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("grades", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		cf              commonFlags
		of              overrideFlags
		courseID        int64
		courseName      string
		allCourses      bool
		showAssignments bool
		csvPath         string
		jsonOutput      bool
	)
	cf.register(cmd)
	of.register(cmd)
	cmd.Int64Var(&courseID, "course-id", 0, "Single course id to process")
	cmd.StringVar(&courseName, "course-name", "", "Select a course by case-insensitive name substring; must match exactly one")
	cmd.BoolVar(&allCourses, "all-courses", false, "Process all active courses")
	cmd.BoolVar(&showAssignments, "show-assignments", false, "Print every assignment and its status per course")
	cmd.StringVar(&csvPath, "csv", "", "Write results to this CSV file (single or multi-course layout)")
	cmd.BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	if err := cmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if cmd.NArg() > 0 {
		return fail(stderr, usagef("unexpected arguments: %v", cmd.Args()))
	}
	if courseID != 0 && courseName != "" {
		return fail(stderr, usagef("provide only one of --course-id or --course-name"))
	}
	if courseID == 0 && courseName == "" && !allCourses {
		return fail(stderr, usagef("must provide --course-id, --course-name, or --all-courses"))
	}
	sel := gradebook.Selection{CourseID: courseID, CourseName: courseName, All: allCourses && courseID == 0 && courseName == "", IncludeCompleted: cf.includeCompleted}

	over, err := of.resolve()
	if err != nil {
		return fail(stderr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cf, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	r := a.runner(cf, over)
	courses, err := r.Select(ctx, sel)
	if err != nil {
		if errors.Is(err, gradebook.ErrNoMatch) && !cf.includeCompleted {
			err = fmt.Errorf("%w; use --include-completed to search completed courses or specify --course-id", err)
		}
		return fail(stderr, err)
	}
	if len(courses) == 0 {
		_, _ = fmt.Fprintln(stdout, "No courses to process.")
		return exitOK
	}
	if sel.CourseID != 0 && a.excl.Skip(courses[0].ID, courses[0].Name) {
		_, _ = fmt.Fprintf(stderr, "Note: course %d is on the exclusion list; processing it because it was requested by id.\n", courses[0].ID)
	}

	res := r.Run(ctx, courses)

	if jsonOutput {
		if err := writeRunJSON(stdout, res); err != nil {
			return fail(stderr, err)
		}
	} else {
		for _, o := range res.Courses {
			if !o.OK() {
				_, _ = fmt.Fprintf(stderr, "Error: course %d (%s): %v\n", o.CourseID, o.CourseName, o.Err)
				continue
			}
			_ = export.RenderCourse(stdout, *o.Result)
			if showAssignments {
				_ = export.RenderAssignments(stdout, *o.Result)
			}
		}
		if len(res.Courses) > 1 {
			fmt.Fprintln(stdout)
			_ = export.RenderSummary(stdout, res.Report)
		}
	}

	if csvPath != "" {
		if err := writeCSVFile(csvPath, res.Report); err != nil {
			return fail(stderr, err)
		}
		_, _ = fmt.Fprintf(stderr, "CSV results written to %s\n", csvPath)
	}

	code := exitOK
	for _, o := range res.Courses {
		if !o.OK() {
			code = max(code, exitCode(o.Err))
		}
	}
	return code
}

// writeCSVFile writes the report through a filesystem sink rooted at the
// target's directory.
func writeCSVFile(path string, rep grading.Report) error {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rep); err != nil {
		return fmt.Errorf("render csv: %w", err)
	}
	sink, err := storage.NewFSStore(filepath.Dir(path))
	if err != nil {
		return err
	}
	if _, err := sink.Put(filepath.Base(path), &buf); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

type courseJSON struct {
	CourseID   int64                 `json:"course_id"`
	CourseName string                `json:"course_name"`
	Result     *grading.CourseDetail `json:"result,omitempty"`
	Error      string                `json:"error,omitempty"`
}

type runJSON struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Failed     int          `json:"failed"`
	Courses    []courseJSON `json:"courses"`
}

func writeRunJSON(w io.Writer, res gradebook.RunResult) error {
	out := runJSON{RunID: res.RunID, StartedAt: res.StartedAt, FinishedAt: res.FinishedAt, Failed: res.Failed}
	for _, o := range res.Courses {
		c := courseJSON{CourseID: o.CourseID, CourseName: o.CourseName}
		if o.OK() {
			d := grading.Detail(*o.Result)
			c.Result = &d
		} else if o.Err != nil {
			c.Error = o.Err.Error()
		}
		out.Courses = append(out.Courses, c)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
