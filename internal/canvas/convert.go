package canvas

import (
	"strings"
	"time"

	"github.com/mind-engage/mindengage-grades/internal/grading"
)

// Uncategorized names the category for assignments without a known group.
const Uncategorized = "(Uncategorized)"

// ParseDue parses a Canvas due_at timestamp. Empty or malformed values yield nil.
func ParseDue(s *string) *time.Time {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// SubmissionState maps a Canvas submission onto the engine's states.
// An excused submission never counts as graded.
func SubmissionState(s *Submission) grading.SubmissionState {
	switch {
	case s == nil:
		return grading.StateNotSubmitted
	case s.excused():
		return grading.StateExcused
	case s.Score != nil:
		return grading.StateGraded
	case s.Missing:
		return grading.StateMissing
	default:
		return grading.StateNotSubmitted
	}
}

// ToCourseInput converts raw Canvas payloads into engine input. Unpublished
// assignments are dropped. Only groups holding at least one published
// assignment become categories, in the order Canvas lists them.
func ToCourseInput(course Course, groups []AssignmentGroup, assignments []Assignment) grading.CourseInput {
	byID := make(map[int64]AssignmentGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	in := grading.CourseInput{CourseID: course.ID, CourseName: course.Name}
	used := map[int64]bool{}
	uncategorized := false

	for _, a := range assignments {
		if !a.IsPublished() {
			continue
		}
		category := Uncategorized
		if a.AssignmentGroupID != nil {
			if g, ok := byID[*a.AssignmentGroupID]; ok {
				category = g.Name
				used[g.ID] = true
			} else {
				uncategorized = true
			}
		} else {
			uncategorized = true
		}

		points := a.PointsPossible
		if points == nil && a.GradingType == "not_graded" {
			zero := 0.0
			points = &zero
		}
		state := SubmissionState(a.Submission)
		var score *float64
		if state == grading.StateGraded {
			score = a.Submission.Score
		}
		in.Assignments = append(in.Assignments, grading.Assignment{
			ID:             a.ID,
			Name:           a.Name,
			Category:       category,
			PointsPossible: points,
			Score:          score,
			State:          state,
			DueAt:          ParseDue(a.DueAt),
		})
	}

	names := map[string]bool{}
	for _, g := range groups {
		if !used[g.ID] {
			continue
		}
		names[g.Name] = true
		c := grading.Category{Name: g.Name}
		if course.ApplyAssignmentGroupWeights && g.GroupWeight != nil {
			w := *g.GroupWeight
			c.NativeWeight = &w
		}
		in.Categories = append(in.Categories, c)
	}
	if uncategorized && !names[Uncategorized] {
		in.Categories = append(in.Categories, grading.Category{Name: Uncategorized})
	}
	return in
}
