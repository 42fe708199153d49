package grading

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Clock returns the time used for due-date comparisons.
type Clock func() time.Time

// Engine computes course grades. It holds no per-course state and is safe for
// concurrent use.
type Engine struct {
	now Clock
	log *slog.Logger
}

// Option configures an Engine built by NewEngine.
type Option func(*Engine)

func WithClock(c Clock) Option          { return func(e *Engine) { e.now = c } }
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// NewEngine builds an engine using the wall clock and slog.Default unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now, log: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Compute runs the full per-course pipeline: resolve policy, validate input,
// resolve weights, classify, aggregate, project.
func (e *Engine) Compute(in CourseInput, ws WeightSources, ps PolicySources) (CourseGradeResult, error) {
	policy, err := ResolvePolicy(ps)
	if err != nil {
		return CourseGradeResult{}, fmt.Errorf("course %d: %w", in.CourseID, err)
	}
	if err := validate(in); err != nil {
		return CourseGradeResult{}, err
	}

	observed := make([]string, 0, len(in.Categories))
	known := make(map[string]bool, len(in.Categories))
	for _, c := range in.Categories {
		observed = append(observed, c.Name)
		known[c.Name] = true
	}
	if ws.Native == nil {
		ws.Native = NativeWeights(in.Categories)
	}
	wr, err := ResolveWeights(in.CourseID, observed, ws)
	if err != nil {
		return CourseGradeResult{}, fmt.Errorf("course %d: %w", in.CourseID, err)
	}

	now := e.now()
	notices := wr.Notices
	byCategory := make(map[string][]ClassifiedAssignment, len(in.Categories))
	classified := make([]ClassifiedAssignment, 0, len(in.Assignments))
	var unmatched []ClassifiedAssignment
	for _, a := range in.Assignments {
		ca := ClassifiedAssignment{Assignment: a, Bucket: Classify(a, now)}
		classified = append(classified, ca)
		if !known[a.Category] {
			unmatched = append(unmatched, ca)
			notices = append(notices, Notice{
				Kind:     NoticeAssignmentDropped,
				CourseID: in.CourseID,
				Category: a.Category,
				Message:  fmt.Sprintf("assignment %q has no matching assignment group; excluded", a.Name),
			})
			continue
		}
		byCategory[a.Category] = append(byCategory[a.Category], ca)
	}

	names := uniqueSorted(observed)
	sortCategoryNames(names)
	cats := make([]CategoryResult, 0, len(names))
	for _, name := range names {
		cr := Aggregate(name, byCategory[name], policy)
		cr.Weight = wr.Weights[name]
		if cr.Current == nil {
			notices = append(notices, Notice{
				Kind:     NoticeUndefinedCurrent,
				CourseID: in.CourseID,
				Category: name,
				Message:  fmt.Sprintf("category %q has no graded work yet", name),
			})
		}
		cats = append(cats, cr)
	}
	current, projected := Project(cats, wr.Weights)

	logNotices(e.log, notices)
	e.log.Debug("course computed",
		"course_id", in.CourseID,
		"policy", string(policy),
		"weight_source", wr.Source,
		"categories", len(cats),
	)

	return CourseGradeResult{
		CourseID:     in.CourseID,
		CourseName:   in.CourseName,
		Weights:      wr.Weights,
		WeightSource: wr.Source,
		Policy:       policy,
		Categories:   cats,
		Current:      current,
		Projected:    projected,
		Assignments:  classified,
		Unmatched:    unmatched,
		Notices:      notices,
	}, nil
}

func validate(in CourseInput) error {
	seen := make(map[string]bool, len(in.Categories))
	for _, c := range in.Categories {
		if seen[c.Name] {
			return &DataShapeError{CourseID: in.CourseID, Field: "category.name", Reason: fmt.Sprintf("duplicate category %q", c.Name)}
		}
		seen[c.Name] = true
	}
	for _, a := range in.Assignments {
		if a.PointsPossible == nil {
			return &DataShapeError{CourseID: in.CourseID, AssignmentID: a.ID, Field: "points_possible", Reason: "missing"}
		}
		if *a.PointsPossible < 0 {
			return &DataShapeError{CourseID: in.CourseID, AssignmentID: a.ID, Field: "points_possible", Reason: "negative"}
		}
	}
	return nil
}

// sortCategoryNames orders case-insensitively, breaking ties by exact name.
func sortCategoryNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
}
