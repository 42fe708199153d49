package grading

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func categoryNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Cat%02d", i)
	}
	return out
}

func weightsFor(names []string, values []float64) map[string]float64 {
	m := make(map[string]float64, len(names))
	for i, n := range names {
		m[n] = values[i%len(values)]
	}
	return m
}

func sum(w WeightMap) float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

// TestWeightsSumTo100 checks every resolution of a non-empty source sums to 100
// with no negative weight.
func TestWeightsSumTo100(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("resolved weights are non-negative and sum to 100", prop.ForAll(
		func(n int, values []float64) bool {
			names := categoryNames(n)
			res, err := ResolveWeights(1, names, WeightSources{Course: weightsFor(names, values)})
			if err != nil {
				return false
			}
			for _, v := range res.Weights {
				if v < 0 {
					return false
				}
			}
			return math.Abs(sum(res.Weights)-100) <= 1e-6
		},
		gen.IntRange(1, 12),
		gen.SliceOfN(5, gen.Float64Range(0.01, 500)),
	))

	properties.TestingRun(t)
}

// TestWeightsPrecedence checks a CLI map is never merged with config maps.
func TestWeightsPrecedence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("cli map wins whole", prop.ForAll(
		func(n int, cli, cfg []float64) bool {
			names := categoryNames(n)
			cliMap := weightsFor(names, cli)
			both, err := ResolveWeights(1, names, WeightSources{CLI: cliMap, Course: weightsFor(names, cfg), Default: weightsFor(names, cfg)})
			if err != nil {
				return false
			}
			alone, err := ResolveWeights(1, names, WeightSources{CLI: cliMap})
			if err != nil {
				return false
			}
			return both.Source == SourceCLI && reflect.DeepEqual(both.Weights, alone.Weights)
		},
		gen.IntRange(1, 8),
		gen.SliceOfN(3, gen.Float64Range(1, 100)),
		gen.SliceOfN(3, gen.Float64Range(1, 100)),
	))

	properties.TestingRun(t)
}

// TestWeightsFallbackEqualShare checks N categories with no source get 100/N each.
func TestWeightsFallbackEqualShare(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("fallback gives 100/N", prop.ForAll(
		func(n int) bool {
			res, err := ResolveWeights(1, categoryNames(n), WeightSources{})
			if err != nil || res.Source != SourceEqual || len(res.Weights) != n {
				return false
			}
			share := 100 / float64(n)
			for _, v := range res.Weights {
				// cents rounding, remainder absorbed by one category
				if math.Abs(v-share) > 0.005*float64(n) {
					return false
				}
			}
			return math.Abs(sum(res.Weights)-100) <= 1e-6
		},
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

type genItem struct {
	Points float64
	Score  float64
	Graded bool
	Kind   int
	DueIn  int
}

func genItems() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(
		gen.Float64Range(0, 50),
		gen.Float64Range(0, 50),
		gen.Bool(),
		gen.IntRange(0, 3),
		gen.IntRange(-3, 3),
	).Map(func(v []interface{}) genItem {
		return genItem{Points: v[0].(float64), Score: v[1].(float64), Graded: v[2].(bool), Kind: v[3].(int), DueIn: v[4].(int)}
	}))
}

func (g genItem) assignment(category string) Assignment {
	states := []SubmissionState{StateGraded, StateMissing, StateNotSubmitted, StateExcused}
	a := Assignment{Category: category, PointsPossible: fp(g.Points), State: states[g.Kind]}
	if g.Graded {
		a.Score = fp(math.Min(g.Score, g.Points))
	}
	if g.DueIn != 0 {
		a.DueAt = tp(testNow.Add(time.Duration(g.DueIn) * 24 * time.Hour))
	}
	return a
}

func courseFrom(hw, exam []genItem) CourseInput {
	in := CourseInput{CourseID: 5, Categories: []Category{{Name: "Homework"}, {Name: "Exam"}}}
	for i, g := range hw {
		a := g.assignment("Homework")
		a.ID = int64(i + 1)
		in.Assignments = append(in.Assignments, a)
	}
	for i, g := range exam {
		a := g.assignment("Exam")
		a.ID = int64(1000 + i)
		in.Assignments = append(in.Assignments, a)
	}
	return in
}

// TestPolicyMonotonicity checks all_zero <= missing_zero_upcoming_ignore <= ignore_all.
func TestPolicyMonotonicity(t *testing.T) {
	e := newTestEngine()
	ws := WeightSources{CLI: map[string]float64{"Homework": 40, "Exam": 60}}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("stricter policy never projects higher", prop.ForAll(
		func(hw, exam []genItem) bool {
			in := courseFrom(hw, exam)
			proj := map[FinalPolicy]float64{}
			for _, p := range Policies {
				res, err := e.Compute(in, ws, PolicySources{CLI: string(p)})
				if err != nil || res.Projected == nil {
					return false
				}
				proj[p] = *res.Projected
			}
			return proj[PolicyAllZero] <= proj[PolicyMissingZeroUpcomingIgnore] &&
				proj[PolicyMissingZeroUpcomingIgnore] <= proj[PolicyIgnoreAll]
		},
		genItems(),
		genItems(),
	))

	properties.TestingRun(t)
}

// TestComputeDeterministic checks identical inputs give identical results.
func TestComputeDeterministic(t *testing.T) {
	e := newTestEngine()

	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("compute is idempotent", prop.ForAll(
		func(hw, exam []genItem) bool {
			in := courseFrom(hw, exam)
			a, errA := e.Compute(in, WeightSources{}, PolicySources{})
			b, errB := e.Compute(in, WeightSources{}, PolicySources{})
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		genItems(),
		genItems(),
	))

	properties.TestingRun(t)
}

// TestClassifyTotal checks every generated assignment lands in a known bucket.
func TestClassifyTotal(t *testing.T) {
	valid := map[Bucket]bool{}
	for _, b := range Buckets {
		valid[b] = true
	}

	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("classification is total", prop.ForAll(
		func(items []genItem) bool {
			for _, g := range items {
				if !valid[Classify(g.assignment("X"), testNow)] {
					return false
				}
			}
			return true
		},
		genItems(),
	))

	properties.TestingRun(t)
}
