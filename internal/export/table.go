package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mind-engage/mindengage-grades/internal/gradebook"
	"github.com/mind-engage/mindengage-grades/internal/grading"
)

const dueLayout = "2006-01-02 15:04"

func newTab(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// FormatPct renders an optional percentage for humans.
func FormatPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// RenderCourse prints the weights, the category table and both totals.
func RenderCourse(w io.Writer, r grading.CourseGradeResult) error {
	fmt.Fprintf(w, "\n=== %s (ID %d) ===\n", r.CourseName, r.CourseID)
	fmt.Fprintf(w, "Weights (%s):\n", r.WeightSource)
	for _, nw := range grading.Detail(r).WeightsOrdered {
		fmt.Fprintf(w, "  - %s: %.2f%%\n", nw.Name, nw.Weight)
	}

	tw := newTab(w)
	fmt.Fprintln(tw, "Category\tWeight\tRun Earn\tRun Poss\tRun %\tFinal %\t")
	for _, c := range r.Categories {
		fmt.Fprintf(tw, "%s\t%.2f%%\t%.2f\t%.2f\t%s\t%s\t\n",
			c.Name, c.Weight, c.Earned, c.PossibleCurrent, FormatPct(c.Current), FormatPct(c.Projected))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Running total: %s\n", FormatPct(r.Current))
	_, err := fmt.Fprintf(w, "Final estimate: %s  (policy: %s)\n", FormatPct(r.Projected), r.Policy)
	return err
}

// RenderAssignments prints every assignment with its classification, grouped
// by category and ordered by due date. Undated work sorts last.
func RenderAssignments(w io.Writer, r grading.CourseGradeResult) error {
	items := append([]grading.ClassifiedAssignment(nil), r.Assignments...)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Category != b.Category {
			return strings.ToLower(a.Category) < strings.ToLower(b.Category)
		}
		switch {
		case a.DueAt == nil:
			return false
		case b.DueAt == nil:
			return true
		}
		return a.DueAt.Before(*b.DueAt)
	})

	fmt.Fprintln(w, "\nAssignments:")
	tw := newTab(w)
	fmt.Fprintln(tw, "Category\tAssignment\tDue\tPts\tScore\tState\tBucket\t")
	for _, a := range items {
		due := "-"
		if a.DueAt != nil {
			due = a.DueAt.UTC().Format(dueLayout)
		}
		pts, score := "", ""
		if a.PointsPossible != nil {
			pts = num(*a.PointsPossible)
		}
		if a.Score != nil {
			score = num(*a.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			a.Category, clip(a.Name, 40), due, pts, score, a.State, a.Bucket)
	}
	return tw.Flush()
}

// RenderWeek prints the due-this-week listing.
func RenderWeek(w io.Writer, items []gradebook.DueItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No assignments due in the next 7 days.")
		return err
	}
	tw := newTab(w)
	fmt.Fprintln(tw, "Due (UTC)\tCourse\tAssignment\tPts\t")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t\n",
			it.Due.In(time.UTC).Format(dueLayout), clip(it.CourseName, 30), clip(it.Assignment, 32), it.Points)
	}
	return tw.Flush()
}

// RenderSummary prints one line per course for multi-course runs.
func RenderSummary(w io.Writer, rep grading.Report) error {
	tw := newTab(w)
	fmt.Fprintln(tw, "Course\tID\tRunning\tFinal\tPolicy\t")
	for _, o := range rep.Courses {
		if !o.OK() {
			msg := "no result"
			if o.Err != nil {
				msg = o.Err.Error()
			}
			fmt.Fprintf(tw, "%s\t%d\terror: %s\t\t\t\n", clip(o.CourseName, 40), o.CourseID, msg)
			continue
		}
		r := o.Result
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n",
			clip(r.CourseName, 40), r.CourseID, FormatPct(r.Current), FormatPct(r.Projected), r.Policy)
	}
	return tw.Flush()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
