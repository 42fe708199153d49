package grading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport_KeepsOrderAndIsolatesFailures(t *testing.T) {
	res, err := newTestEngine().Compute(scenarioCourse(),
		WeightSources{CLI: map[string]float64{"Homework": 40, "Exam": 60}}, PolicySources{})
	require.NoError(t, err)

	rep := BuildReport([]CourseOutcome{
		{CourseID: 7, CourseName: "Chemistry", Err: errors.New("course 7: boom")},
		{CourseID: res.CourseID, CourseName: res.CourseName, Result: &res},
	})

	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Rows, 3)
	assert.Equal(t, int64(7), rep.Rows[0].CourseID)
	assert.Equal(t, "course 7: boom", rep.Rows[0].Error)
	assert.Empty(t, rep.Rows[0].Category)

	assert.Equal(t, "Exam", rep.Rows[1].Category)
	assert.Equal(t, "Homework", rep.Rows[2].Category)
	assert.Equal(t, 73.67, *rep.Rows[2].CourseProjected)
	assert.Equal(t, string(PolicyMissingZeroUpcomingIgnore), rep.Rows[2].Policy)
}

func TestBuildReport_NilResultCountsAsFailure(t *testing.T) {
	rep := BuildReport([]CourseOutcome{{CourseID: 3}})
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "no result", rep.Rows[0].Error)
}

func TestDetail_WeightsOrdered(t *testing.T) {
	d := Detail(CourseGradeResult{Weights: WeightMap{"quizzes": 20, "Exams": 50, "Labs": 30}})
	require.Len(t, d.WeightsOrdered, 3)
	assert.Equal(t, []NamedWeight{{"Exams", 50}, {"Labs", 30}, {"quizzes", 20}}, d.WeightsOrdered)
}
