package grading

// CourseOutcome is one course's result or the error that stopped it.
type CourseOutcome struct {
	CourseID   int64
	CourseName string
	Result     *CourseGradeResult
	Err        error
}

// OK reports whether the course computed successfully.
func (o CourseOutcome) OK() bool { return o.Err == nil && o.Result != nil }

// SummaryRow is one line of the multi-course summary: a course×category pair,
// or a single error line for a failed course.
type SummaryRow struct {
	CourseID          int64    `json:"course_id"`
	CourseName        string   `json:"course_name"`
	Category          string   `json:"category,omitempty"`
	Weight            float64  `json:"weight"`
	Earned            float64  `json:"earned"`
	PossibleCurrent   float64  `json:"possible_current"`
	Current           *float64 `json:"current_pct"`
	EarnedProjected   float64  `json:"earned_projected"`
	PossibleProjected float64  `json:"possible_projected"`
	Projected         *float64 `json:"projected_pct"`
	CourseCurrent     *float64 `json:"course_current_pct"`
	CourseProjected   *float64 `json:"course_projected_pct"`
	Policy            string   `json:"policy,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// CourseDetail is the single-course report shape.
type CourseDetail struct {
	CourseGradeResult
	WeightsOrdered []NamedWeight `json:"weights_ordered"`
}

// NamedWeight is one entry of a weight map in display order.
type NamedWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Report is the multi-course result handed to renderers and exporters.
type Report struct {
	Courses []CourseOutcome `json:"-"`
	Rows    []SummaryRow    `json:"rows"`
	Failed  int             `json:"failed"`
}

// Detail builds the single-course shape.
func Detail(r CourseGradeResult) CourseDetail {
	names := make([]string, 0, len(r.Weights))
	for n := range r.Weights {
		names = append(names, n)
	}
	sortCategoryNames(names)
	ordered := make([]NamedWeight, 0, len(names))
	for _, n := range names {
		ordered = append(ordered, NamedWeight{Name: n, Weight: r.Weights[n]})
	}
	return CourseDetail{CourseGradeResult: r, WeightsOrdered: ordered}
}

// BuildReport flattens outcomes, in the given order, into summary rows.
func BuildReport(outcomes []CourseOutcome) Report {
	rep := Report{Courses: outcomes}
	for _, o := range outcomes {
		if !o.OK() {
			rep.Failed++
			msg := "no result"
			if o.Err != nil {
				msg = o.Err.Error()
			}
			rep.Rows = append(rep.Rows, SummaryRow{CourseID: o.CourseID, CourseName: o.CourseName, Error: msg})
			continue
		}
		r := o.Result
		for _, c := range r.Categories {
			rep.Rows = append(rep.Rows, SummaryRow{
				CourseID:          r.CourseID,
				CourseName:        r.CourseName,
				Category:          c.Name,
				Weight:            c.Weight,
				Earned:            c.Earned,
				PossibleCurrent:   c.PossibleCurrent,
				Current:           c.Current,
				EarnedProjected:   c.EarnedProjected,
				PossibleProjected: c.PossibleProjected,
				Projected:         c.Projected,
				CourseCurrent:     r.Current,
				CourseProjected:   r.Projected,
				Policy:            string(r.Policy),
			})
		}
	}
	return rep
}
