package gradebook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-grades/internal/canvas"
	"github.com/mind-engage/mindengage-grades/internal/grading"
)

// Source is the Canvas surface the runner needs. *canvas.Client satisfies it.
type Source interface {
	ListCourses(ctx context.Context, state canvas.EnrollmentState) ([]canvas.Course, error)
	GetCourse(ctx context.Context, courseID int64) (canvas.Course, error)
	ListAssignmentGroups(ctx context.Context, courseID int64) ([]canvas.AssignmentGroup, error)
	ListAssignments(ctx context.Context, courseID int64) ([]canvas.Assignment, error)
}

// CourseSettings supplies per-course and default weights and policies.
// *config.File satisfies it.
type CourseSettings interface {
	WeightsFor(courseID int64) (course, def map[string]float64)
	PolicyFor(courseID int64) (course, def string)
}

type noSettings struct{}

func (noSettings) WeightsFor(int64) (map[string]float64, map[string]float64) { return nil, nil }
func (noSettings) PolicyFor(int64) (string, string) { return "", "" }

// Overrides are run-wide values given on the command line. They beat any
// per-course setting.
type Overrides struct {
	Weights map[string]float64
	Policy  string
}

// Selection names the courses of one run. Exactly one of CourseID, CourseName
// or All must be set.
type Selection struct {
	CourseID         int64
	CourseName       string
	All              bool
	IncludeCompleted bool
}

var (
	ErrSelection = errors.New("select exactly one of course id, course name or all courses")
	ErrNoMatch   = errors.New("no course matches")
	ErrAmbiguous = errors.New("course name matches more than one course")
)

func (s Selection) validate() error {
	n := 0
	if s.CourseID != 0 {
		n++
	}
	if strings.TrimSpace(s.CourseName) != "" {
		n++
	}
	if s.All {
		n++
	}
	if n != 1 {
		return ErrSelection
	}
	return nil
}

func (s Selection) states() []canvas.EnrollmentState {
	if s.IncludeCompleted {
		return []canvas.EnrollmentState{canvas.EnrollmentActive, canvas.EnrollmentCompleted}
	}
	return []canvas.EnrollmentState{canvas.EnrollmentActive}
}

// Exclusions drops courses by id or by case-insensitive name substring.
type Exclusions struct {
	ids   map[int64]bool
	names []string
}

func NewExclusions(ids []int64, nameContains []string) Exclusions {
	e := Exclusions{ids: make(map[int64]bool, len(ids))}
	for _, id := range ids {
		e.ids[id] = true
	}
	for _, n := range nameContains {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			e.names = append(e.names, n)
		}
	}
	return e
}

func (e Exclusions) Skip(id int64, name string) bool {
	if e.ids[id] {
		return true
	}
	lname := strings.ToLower(name)
	for _, n := range e.names {
		if strings.Contains(lname, n) {
			return true
		}
	}
	return false
}

// RunResult is one completed multi-course run.
type RunResult struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	grading.Report
}

// DueItem is one published assignment due inside the week window.
type DueItem struct {
	Due        time.Time `json:"due_at"`
	CourseID   int64     `json:"course_id"`
	CourseName string    `json:"course_name"`
	Assignment string    `json:"assignment"`
	Points     float64   `json:"points_possible"`
}
