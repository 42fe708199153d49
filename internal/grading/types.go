package grading

import "time"

// SubmissionState is the student's submission status for one assignment.
type SubmissionState string

const (
	StateGraded       SubmissionState = "graded"
	StateMissing      SubmissionState = "missing"
	StateNotSubmitted SubmissionState = "not_submitted"
	StateExcused      SubmissionState = "excused"
)

// Assignment is one gradable item as retrieved for a single run.
type Assignment struct {
	ID             int64
	Name           string
	Category       string     // owning assignment group name
	PointsPossible *float64   // nil is a data shape error; 0 means not counted
	Score          *float64   // nil means ungraded
	State          SubmissionState
	DueAt          *time.Time // nil when the assignment has no due date
}

// Category is a named assignment group. Name is the join key against weight maps.
type Category struct {
	Name         string
	NativeWeight *float64 // weight reported by the LMS, if any
}

// WeightMap maps category name to a percentage of the course grade.
type WeightMap map[string]float64

// CourseInput is everything the engine needs for one course.
type CourseInput struct {
	CourseID    int64
	CourseName  string
	Categories  []Category
	Assignments []Assignment
}

// ClassifiedAssignment pairs an assignment with the bucket it fell into.
type ClassifiedAssignment struct {
	Assignment
	Bucket Bucket
}

// CategoryResult is the per-category outcome. Current and Projected are nil
// when no points are possible in that state.
type CategoryResult struct {
	Name              string         `json:"name"`
	Weight            float64        `json:"weight"`
	Earned            float64        `json:"earned"`
	PossibleCurrent   float64        `json:"possible_current"`
	EarnedProjected   float64        `json:"earned_projected"`
	PossibleProjected float64        `json:"possible_projected"`
	Current           *float64       `json:"current_pct"`
	Projected         *float64       `json:"projected_pct"`
	Counts            map[Bucket]int `json:"counts"`

	// unrounded percentages used by the projector
	rawCurrent   *float64
	rawProjected *float64
}

// CourseGradeResult is the full, immutable outcome for one course.
type CourseGradeResult struct {
	CourseID     int64                  `json:"course_id"`
	CourseName   string                 `json:"course_name"`
	Weights      WeightMap              `json:"weights"`
	WeightSource string                 `json:"weight_source"`
	Policy       FinalPolicy            `json:"policy"`
	Categories   []CategoryResult       `json:"categories"`
	Current      *float64               `json:"current_pct"`
	Projected    *float64               `json:"projected_pct"`
	Assignments  []ClassifiedAssignment `json:"-"`
	Unmatched    []ClassifiedAssignment `json:"-"`
	Notices      []Notice               `json:"notices,omitempty"`
}
