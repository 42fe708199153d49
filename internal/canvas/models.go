package canvas

// Course is the subset of the Canvas course object the calculator reads.
type Course struct {
	ID                          int64  `json:"id"`
	Name                        string `json:"name"`
	CourseCode                  string `json:"course_code,omitempty"`
	WorkflowState               string `json:"workflow_state,omitempty"`
	ApplyAssignmentGroupWeights bool   `json:"apply_assignment_group_weights"`
}

type AssignmentGroup struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Position    int      `json:"position"`
	GroupWeight *float64 `json:"group_weight"`
}

type Assignment struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	AssignmentGroupID *int64      `json:"assignment_group_id"`
	PointsPossible    *float64    `json:"points_possible"`
	DueAt             *string     `json:"due_at"`
	Published         *bool       `json:"published"`
	GradingType       string      `json:"grading_type"`
	Submission        *Submission `json:"submission"`
}

// IsPublished treats an absent flag as published.
func (a Assignment) IsPublished() bool { return a.Published == nil || *a.Published }

type Submission struct {
	Score         *float64 `json:"score"`
	WorkflowState string   `json:"workflow_state"`
	Missing       bool     `json:"missing"`
	Excused       *bool    `json:"excused"`
	Late          bool     `json:"late"`
}

func (s *Submission) excused() bool { return s != nil && s.Excused != nil && *s.Excused }

// EnrollmentState selects which courses ListCourses returns.
type EnrollmentState string

const (
	EnrollmentActive    EnrollmentState = "active"
	EnrollmentCompleted EnrollmentState = "completed"
)
