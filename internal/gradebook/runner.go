// Package gradebook drives grade computation across courses: selection,
// retrieval, per-course isolation and scheduled refresh.
package gradebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-grades/internal/canvas"
	"github.com/mind-engage/mindengage-grades/internal/grading"
)

const defaultConcurrency = 4

type Runner struct {
	src      Source
	engine   *grading.Engine
	settings CourseSettings
	over     Overrides
	excl     Exclusions
	limit    int
	now      grading.Clock
	log      *slog.Logger
}

type Option func(*Runner)

func WithSettings(s CourseSettings) Option {
	return func(r *Runner) {
		if s != nil {
			r.settings = s
		}
	}
}
func WithOverrides(o Overrides) Option   { return func(r *Runner) { r.over = o } }
func WithExclusions(e Exclusions) Option { return func(r *Runner) { r.excl = e } }
func WithConcurrency(n int) Option       { return func(r *Runner) { r.limit = n } }
func WithClock(c grading.Clock) Option   { return func(r *Runner) { r.now = c } }
func WithLogger(l *slog.Logger) Option   { return func(r *Runner) { r.log = l } }

func NewRunner(src Source, engine *grading.Engine, opts ...Option) *Runner {
	r := &Runner{
		src:      src,
		engine:   engine,
		settings: noSettings{},
		limit:    defaultConcurrency,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.limit <= 0 {
		r.limit = defaultConcurrency
	}
	if r.engine == nil {
		r.engine = grading.NewEngine(grading.WithClock(r.now), grading.WithLogger(r.log))
	}
	return r
}

// Select resolves a selection to courses. An explicit course id bypasses exclusions.
func (r *Runner) Select(ctx context.Context, sel Selection) ([]canvas.Course, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}
	if sel.CourseID != 0 {
		c, err := r.src.GetCourse(ctx, sel.CourseID)
		if err != nil {
			return nil, fmt.Errorf("course %d: %w", sel.CourseID, err)
		}
		return []canvas.Course{c}, nil
	}

	all, err := r.listCourses(ctx, sel.states())
	if err != nil {
		return nil, err
	}
	if sel.All {
		return all, nil
	}

	query := strings.ToLower(strings.TrimSpace(sel.CourseName))
	var matches []canvas.Course
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), query) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w %q", ErrNoMatch, sel.CourseName)
	case 1:
		return matches, nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, fmt.Sprintf("%s (%d)", m.Name, m.ID))
		}
		return nil, fmt.Errorf("%w %q: %s", ErrAmbiguous, sel.CourseName, strings.Join(names, "; "))
	}
}

// listCourses lists courses across states, dropping duplicates and exclusions.
func (r *Runner) listCourses(ctx context.Context, states []canvas.EnrollmentState) ([]canvas.Course, error) {
	seen := map[int64]bool{}
	var out []canvas.Course
	for _, st := range states {
		cs, err := r.src.ListCourses(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("list %s courses: %w", st, err)
		}
		for _, c := range cs {
			if c.ID == 0 || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			if r.excl.Skip(c.ID, c.Name) {
				r.log.Debug("course excluded", "course_id", c.ID, "course_name", c.Name)
				continue
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// Input retrieves one course's groups and assignments and converts them.
func (r *Runner) Input(ctx context.Context, course canvas.Course) (grading.CourseInput, error) {
	var (
		groups      []canvas.AssignmentGroup
		assignments []canvas.Assignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groups, err = r.src.ListAssignmentGroups(gctx, course.ID)
		if err != nil {
			return fmt.Errorf("assignment groups: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		assignments, err = r.src.ListAssignments(gctx, course.ID)
		if err != nil {
			return fmt.Errorf("assignments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return grading.CourseInput{}, fmt.Errorf("course %d: %w", course.ID, err)
	}
	return canvas.ToCourseInput(course, groups, assignments), nil
}

// Compute retrieves and grades a single course.
func (r *Runner) Compute(ctx context.Context, course canvas.Course) (grading.CourseGradeResult, error) {
	in, err := r.Input(ctx, course)
	if err != nil {
		return grading.CourseGradeResult{}, err
	}
	courseW, defW := r.settings.WeightsFor(course.ID)
	courseP, defP := r.settings.PolicyFor(course.ID)
	return r.engine.Compute(in,
		grading.WeightSources{CLI: r.over.Weights, Course: courseW, Default: defW},
		grading.PolicySources{CLI: r.over.Policy, Course: courseP, Default: defP},
	)
}

// Run grades courses concurrently. Input order is kept, and a failing course
// never stops its siblings.
func (r *Runner) Run(ctx context.Context, courses []canvas.Course) RunResult {
	res := RunResult{RunID: uuid.NewString(), StartedAt: r.now()}
	log := r.log.With("run_id", res.RunID)

	outcomes := make([]grading.CourseOutcome, len(courses))
	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, c := range courses {
		g.Go(func() error {
			o := grading.CourseOutcome{CourseID: c.ID, CourseName: c.Name}
			cr, err := r.Compute(ctx, c)
			if err != nil {
				o.Err = err
				log.Error("course failed", "course_id", c.ID, "course_name", c.Name, "err", err)
			} else {
				o.Result = &cr
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()

	res.Report = grading.BuildReport(outcomes)
	res.FinishedAt = r.now()
	log.Info("run finished", "courses", len(courses), "failed", res.Failed, "elapsed", res.FinishedAt.Sub(res.StartedAt))
	return res
}

// Week lists published assignments due within [now, now+7d] across the
// caller's courses, sorted by due time then course name. Courses that fail to
// load are skipped and reported in the returned error.
func (r *Runner) Week(ctx context.Context, includeCompleted bool) ([]DueItem, error) {
	states := Selection{IncludeCompleted: includeCompleted}.states()
	courses, err := r.listCourses(ctx, states)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	end := now.Add(7 * 24 * time.Hour)

	perCourse := make([][]DueItem, len(courses))
	errs := make([]error, len(courses))
	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, c := range courses {
		g.Go(func() error {
			as, err := r.src.ListAssignments(ctx, c.ID)
			if err != nil {
				errs[i] = fmt.Errorf("course %d: %w", c.ID, err)
				return nil
			}
			for _, a := range as {
				if !a.IsPublished() {
					continue
				}
				due := canvas.ParseDue(a.DueAt)
				if due == nil || due.Before(now) || due.After(end) {
					continue
				}
				pts := 0.0
				if a.PointsPossible != nil {
					pts = *a.PointsPossible
				}
				perCourse[i] = append(perCourse[i], DueItem{Due: *due, CourseID: c.ID, CourseName: c.Name, Assignment: a.Name, Points: pts})
			}
			return nil
		})
	}
	_ = g.Wait()

	var items []DueItem
	for _, p := range perCourse {
		items = append(items, p...)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Due.Equal(items[j].Due) {
			return items[i].Due.Before(items[j].Due)
		}
		return strings.ToLower(items[i].CourseName) < strings.ToLower(items[j].CourseName)
	})
	return items, errors.Join(errs...)
}
