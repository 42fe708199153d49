package grading

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWeights_CLIWinsOverConfig(t *testing.T) {
	res, err := ResolveWeights(1, []string{"Homework", "Exam"}, WeightSources{
		CLI:     map[string]float64{"Homework": 4, "Exam": 6},
		Course:  map[string]float64{"Homework": 90, "Exam": 10},
		Default: map[string]float64{"Homework": 50, "Exam": 50},
	})
	require.NoError(t, err)
	assert.Equal(t, SourceCLI, res.Source)
	assert.Equal(t, WeightMap{"Homework": 40, "Exam": 60}, res.Weights)
	assert.Empty(t, res.Notices)
}

func TestResolveWeights_PrecedenceChain(t *testing.T) {
	observed := []string{"A", "B"}
	course := map[string]float64{"A": 1, "B": 3}
	def := map[string]float64{"A": 3, "B": 1}
	native := map[string]float64{"A": 1, "B": 1}

	tests := []struct {
		name string
		src  WeightSources
		want string
	}{
		{"course config", WeightSources{Course: course, Default: def, Native: native}, SourceCourseConfig},
		{"default config", WeightSources{Default: def, Native: native}, SourceDefaultConfig},
		{"canvas", WeightSources{Native: native}, SourceCanvas},
		{"empty cli skipped", WeightSources{CLI: map[string]float64{}, Native: native}, SourceCanvas},
		{"nothing", WeightSources{}, SourceEqual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ResolveWeights(7, observed, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Source)
		})
	}
}

func TestResolveWeights_EqualFallbackRemainderOnLast(t *testing.T) {
	res, err := ResolveWeights(3, []string{"C", "A", "B"}, WeightSources{})
	require.NoError(t, err)
	assert.Equal(t, WeightMap{"A": 33.33, "B": 33.33, "C": 33.34}, res.Weights)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, NoticeFallbackEqual, res.Notices[0].Kind)
}

func TestResolveWeights_ZeroSumSourceSkipped(t *testing.T) {
	res, err := ResolveWeights(3, []string{"A", "B"}, WeightSources{
		Course: map[string]float64{"A": 0, "B": 0},
		Native: map[string]float64{"A": 25, "B": 75},
	})
	require.NoError(t, err)
	assert.Equal(t, SourceCanvas, res.Source)
	assert.Equal(t, WeightMap{"A": 25, "B": 75}, res.Weights)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, NoticeSourceSkipped, res.Notices[0].Kind)
}

func TestResolveWeights_UnmatchedEntryDropped(t *testing.T) {
	res, err := ResolveWeights(3, []string{"Homework", "Exam"}, WeightSources{
		CLI: map[string]float64{"Homework": 40, "Exam": 60, "Quizzes": 10},
	})
	require.NoError(t, err)
	assert.Equal(t, WeightMap{"Homework": 40, "Exam": 60}, res.Weights)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, NoticeWeightUnmatched, res.Notices[0].Kind)
	assert.Equal(t, "Quizzes", res.Notices[0].Category)
}

func TestResolveWeights_MatchIsCaseSensitive(t *testing.T) {
	res, err := ResolveWeights(3, []string{"Homework"}, WeightSources{
		CLI: map[string]float64{"homework": 100},
	})
	require.NoError(t, err)
	assert.Equal(t, SourceEqual, res.Source)
	assert.Equal(t, WeightMap{"Homework": 100}, res.Weights)
}

func TestResolveWeights_UnweightedCategoryGetsEqualShare(t *testing.T) {
	res, err := ResolveWeights(3, []string{"Homework", "Exam"}, WeightSources{
		CLI: map[string]float64{"Homework": 50},
	})
	require.NoError(t, err)
	assert.Equal(t, WeightMap{"Exam": 33.33, "Homework": 66.67}, res.Weights)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, NoticeCategoryUnweighted, res.Notices[0].Kind)
	assert.Equal(t, "Exam", res.Notices[0].Category)
}

func TestResolveWeights_RawValuesRescaled(t *testing.T) {
	res, err := ResolveWeights(3, []string{"A", "B"}, WeightSources{
		Native: map[string]float64{"A": 0.25, "B": 0.75},
	})
	require.NoError(t, err)
	assert.Equal(t, WeightMap{"A": 25, "B": 75}, res.Weights)

	res, err = ResolveWeights(3, []string{"A", "B"}, WeightSources{
		Default: map[string]float64{"A": 1, "B": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, WeightMap{"A": 33.33, "B": 66.67}, res.Weights)
}

func TestResolveWeights_ZeroWeightNeverAbsorbsRemainder(t *testing.T) {
	res, err := ResolveWeights(3, []string{"A", "B", "C", "D"}, WeightSources{
		CLI: map[string]float64{"A": 1, "B": 1, "C": 1, "D": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, WeightMap{"A": 33.33, "B": 33.33, "C": 33.34, "D": 0}, res.Weights)
}

func TestResolveWeights_RoundedSharesStayNonNegative(t *testing.T) {
	res, err := ResolveWeights(3, []string{"A", "B", "C", "D"}, WeightSources{
		CLI: map[string]float64{"A": 33.3351, "B": 33.3351, "C": 33.3251, "D": 0.0047},
	})
	require.NoError(t, err)
	for name, v := range res.Weights {
		assert.GreaterOrEqual(t, v, 0.0, "weight %s", name)
	}
	assert.InDelta(t, 100, sum(res.Weights), 1e-9)
	assert.InDelta(t, 33.33, res.Weights["A"], 1e-9)
	assert.InDelta(t, 33.34, res.Weights["B"], 1e-9)
	assert.InDelta(t, 33.33, res.Weights["C"], 1e-9)
	assert.InDelta(t, 0, res.Weights["D"], 1e-9)
}

func TestResolveWeights_InvalidValues(t *testing.T) {
	for name, v := range map[string]float64{"negative": -5, "nan": math.NaN(), "inf": math.Inf(1)} {
		t.Run(name, func(t *testing.T) {
			_, err := ResolveWeights(3, []string{"A"}, WeightSources{Course: map[string]float64{"A": v}})
			require.Error(t, err)
			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, SourceCourseConfig, ce.Source)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestResolveWeights_NoCategories(t *testing.T) {
	res, err := ResolveWeights(3, nil, WeightSources{})
	require.NoError(t, err)
	assert.Empty(t, res.Weights)
	assert.Empty(t, res.Notices)
}

func TestNativeWeights(t *testing.T) {
	w := 30.0
	got := NativeWeights([]Category{{Name: "A", NativeWeight: &w}, {Name: "B"}})
	assert.Equal(t, map[string]float64{"A": 30}, got)
}
