// Package export renders grade reports as CSV files and console tables.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/mind-engage/mindengage-grades/internal/grading"
)

var categoryHeader = []string{"Category", "Weight %", "Run Earned", "Run Possible", "Run %", "Final Earned", "Final Possible", "Final %"}

var summaryHeader = []string{"Course", "Course ID", "Category", "Weight %", "Run Earned", "Run Possible", "Run %", "Final Earned", "Final Possible", "Final %", "Running Total %", "Final Total %", "Policy", "Error"}

// WriteCSV picks the layout for a report: a single successful course gets the
// course layout, anything else gets one row per course and category.
func WriteCSV(w io.Writer, rep grading.Report) error {
	if len(rep.Courses) == 1 && rep.Courses[0].OK() {
		return WriteCourseCSV(w, *rep.Courses[0].Result)
	}
	return WriteSummaryCSV(w, rep)
}

// WriteCourseCSV writes the header block, the category table and the totals.
func WriteCourseCSV(w io.Writer, r grading.CourseGradeResult) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Course", r.CourseName},
		{"Course ID", strconv.FormatInt(r.CourseID, 10)},
		{"Final Policy", string(r.Policy)},
		{},
		categoryHeader,
	}
	for _, c := range r.Categories {
		rows = append(rows, []string{
			c.Name,
			num(c.Weight),
			num(c.Earned),
			num(c.PossibleCurrent),
			pct(c.Current),
			num(c.EarnedProjected),
			num(c.PossibleProjected),
			pct(c.Projected),
		})
	}
	rows = append(rows,
		[]string{},
		[]string{"Running Total %", pct(r.Current)},
		[]string{"Final Total %", pct(r.Projected)},
	)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteSummaryCSV writes one row per course and category. Failed courses get a
// single row with the Error column set.
func WriteSummaryCSV(w io.Writer, rep grading.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, row := range rep.Rows {
		id := strconv.FormatInt(row.CourseID, 10)
		if row.Error != "" {
			rec := make([]string, len(summaryHeader))
			rec[0], rec[1], rec[len(rec)-1] = row.CourseName, id, row.Error
			if err := cw.Write(rec); err != nil {
				return err
			}
			continue
		}
		if err := cw.Write([]string{
			row.CourseName,
			id,
			row.Category,
			num(row.Weight),
			num(row.Earned),
			num(row.PossibleCurrent),
			pct(row.Current),
			num(row.EarnedProjected),
			num(row.PossibleProjected),
			pct(row.Projected),
			pct(row.CourseCurrent),
			pct(row.CourseProjected),
			row.Policy,
			"",
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// pct formats an optional percentage; undefined is empty.
func pct(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}
