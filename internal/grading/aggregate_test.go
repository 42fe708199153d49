package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(points float64, score *float64, b Bucket) ClassifiedAssignment {
	return ClassifiedAssignment{Assignment: Assignment{PointsPossible: fp(points), Score: score}, Bucket: b}
}

func homework() []ClassifiedAssignment {
	return []ClassifiedAssignment{
		item(10, fp(8), BucketGraded),
		item(10, fp(9), BucketGraded),
		item(10, nil, BucketMissingPastDue),
	}
}

func TestAggregate_MissingCountsAsZero(t *testing.T) {
	r := Aggregate("Homework", homework(), PolicyMissingZeroUpcomingIgnore)
	assert.Equal(t, 17.0, r.Earned)
	assert.Equal(t, 20.0, r.PossibleCurrent)
	assert.Equal(t, 30.0, r.PossibleProjected)
	require.NotNil(t, r.Current)
	require.NotNil(t, r.Projected)
	assert.Equal(t, 85.0, *r.Current)
	assert.Equal(t, 56.67, *r.Projected)
	assert.Equal(t, 2, r.Counts[BucketGraded])
	assert.Equal(t, 1, r.Counts[BucketMissingPastDue])
}

func TestAggregate_PolicyTable(t *testing.T) {
	items := []ClassifiedAssignment{
		item(10, fp(10), BucketGraded),
		item(10, nil, BucketMissingPastDue),
		item(20, nil, BucketNotYetDue),
		item(40, nil, BucketUngradedOther),
	}
	tests := []struct {
		policy   FinalPolicy
		possible float64
		pct      float64
	}{
		{PolicyIgnoreAll, 10, 100},
		{PolicyMissingZeroUpcomingIgnore, 20, 50},
		{PolicyAllZero, 80, 12.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			r := Aggregate("X", items, tt.policy)
			assert.Equal(t, 10.0, r.Earned)
			assert.Equal(t, 10.0, r.PossibleCurrent)
			assert.Equal(t, 10.0, r.EarnedProjected)
			assert.Equal(t, tt.possible, r.PossibleProjected)
			require.NotNil(t, r.Projected)
			assert.Equal(t, tt.pct, *r.Projected)
			assert.Equal(t, 100.0, *r.Current)
		})
	}
}

func TestAggregate_NoGradedWorkIsUndefined(t *testing.T) {
	items := []ClassifiedAssignment{item(10, nil, BucketNotYetDue)}

	r := Aggregate("Final", items, PolicyMissingZeroUpcomingIgnore)
	assert.Nil(t, r.Current)
	assert.Nil(t, r.Projected)

	r = Aggregate("Final", items, PolicyAllZero)
	assert.Nil(t, r.Current)
	require.NotNil(t, r.Projected)
	assert.Equal(t, 0.0, *r.Projected)
}

func TestAggregate_SkipsZeroPointItemsAndClampsScores(t *testing.T) {
	items := []ClassifiedAssignment{
		item(0, fp(5), BucketGraded),
		item(10, fp(-3), BucketGraded),
		item(0, nil, BucketMissingPastDue),
	}
	r := Aggregate("X", items, PolicyAllZero)
	assert.Equal(t, 0.0, r.Earned)
	assert.Equal(t, 10.0, r.PossibleCurrent)
	assert.Equal(t, 10.0, r.PossibleProjected)
	assert.Equal(t, 2, r.Counts[BucketGraded])
}

func TestAggregate_Empty(t *testing.T) {
	r := Aggregate("Empty", nil, PolicyAllZero)
	assert.Nil(t, r.Current)
	assert.Nil(t, r.Projected)
	assert.Zero(t, r.PossibleProjected)
}
