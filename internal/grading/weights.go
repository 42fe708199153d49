package grading

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Weight source names, highest precedence first.
const (
	SourceCLI           = "cli"
	SourceCourseConfig  = "course_config"
	SourceDefaultConfig = "default_config"
	SourceCanvas        = "canvas"
	SourceEqual         = "equal"
)

// WeightSources holds every candidate weight mapping for one course. Values
// need not be normalized.
type WeightSources struct {
	CLI     map[string]float64
	Course  map[string]float64
	Default map[string]float64
	Native  map[string]float64
}

type weightSource struct {
	name   string
	values map[string]float64
}

func (s WeightSources) ordered() []weightSource {
	return []weightSource{
		{SourceCLI, s.CLI},
		{SourceCourseConfig, s.Course},
		{SourceDefaultConfig, s.Default},
		{SourceCanvas, s.Native},
	}
}

// WeightResolution is the resolved, normalized weight map and how it was chosen.
type WeightResolution struct {
	Weights WeightMap
	Source  string
	Notices []Notice
}

var hundred = decimal.NewFromInt(100)

// NativeWeights returns the LMS-reported weights of the categories that carry one.
func NativeWeights(categories []Category) map[string]float64 {
	out := map[string]float64{}
	for _, c := range categories {
		if c.NativeWeight != nil {
			out[c.Name] = *c.NativeWeight
		}
	}
	return out
}

// ResolveWeights picks the first usable weight source and normalizes it over
// the observed categories. A source is used whole or not at all.
func ResolveWeights(courseID int64, observed []string, src WeightSources) (WeightResolution, error) {
	names := uniqueSorted(observed)
	var res WeightResolution

	for _, s := range src.ordered() {
		if len(s.values) == 0 {
			continue
		}
		total, err := sourceTotal(s)
		if err != nil {
			return WeightResolution{}, err
		}
		if total <= 0 {
			res.Notices = append(res.Notices, Notice{
				Kind:     NoticeSourceSkipped,
				CourseID: courseID,
				Message:  fmt.Sprintf("%s weights sum to zero; trying next source", s.name),
			})
			continue
		}
		w, notices := fitToCategories(courseID, names, s)
		res.Notices = append(res.Notices, notices...)
		if w != nil {
			res.Weights = w
			res.Source = s.name
			return res, nil
		}
		break
	}

	res.Weights = EqualWeights(names)
	res.Source = SourceEqual
	if len(names) > 0 {
		res.Notices = append(res.Notices, Notice{
			Kind:     NoticeFallbackEqual,
			CourseID: courseID,
			Message:  fmt.Sprintf("no usable weights; using equal weights across %d categories", len(names)),
		})
	}
	return res, nil
}

// EqualWeights gives each name 100/N, rounded so the map sums to exactly 100.
func EqualWeights(names []string) WeightMap {
	names = uniqueSorted(names)
	raw := make(map[string]float64, len(names))
	for _, n := range names {
		raw[n] = 1
	}
	return roundShares(names, raw)
}

func sourceTotal(s weightSource) (float64, error) {
	total := 0.0
	for k, v := range s.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ConfigurationError{Source: s.name, Value: k, Reason: "weight is not a finite number"}
		}
		if v < 0 {
			return 0, &ConfigurationError{Source: s.name, Value: k + "=" + strconv.FormatFloat(v, 'f', -1, 64), Reason: "weight is negative"}
		}
		total += v
	}
	return total, nil
}

// fitToCategories drops entries with no observed category, gives observed
// categories without an entry an equal share, and rescales. It returns nil if
// nothing usable matched.
func fitToCategories(courseID int64, names []string, s weightSource) (WeightMap, []Notice) {
	observed := make(map[string]bool, len(names))
	for _, n := range names {
		observed[n] = true
	}

	var notices []Notice
	matched := map[string]float64{}
	matchedTotal := 0.0
	for _, k := range sortedKeys(s.values) {
		if !observed[k] {
			notices = append(notices, Notice{
				Kind:     NoticeWeightUnmatched,
				CourseID: courseID,
				Category: k,
				Message:  fmt.Sprintf("%s weight for %q matches no assignment group", s.name, k),
			})
			continue
		}
		matched[k] = s.values[k]
		matchedTotal += s.values[k]
	}
	if matchedTotal <= 0 {
		return nil, notices
	}

	raw := make(map[string]float64, len(names))
	for k, v := range matched {
		raw[k] = v / matchedTotal * 100
	}
	share := 100 / float64(len(names))
	for _, n := range names {
		if _, ok := matched[n]; ok {
			continue
		}
		raw[n] = share
		notices = append(notices, Notice{
			Kind:     NoticeCategoryUnweighted,
			CourseID: courseID,
			Category: n,
			Message:  fmt.Sprintf("%s weights omit %q; giving it an equal share", s.name, n),
		})
	}
	return roundShares(names, raw), notices
}

// roundShares rescales raw to 100 and splits it into cents by largest
// remainder: every share is floored to cents, then the leftover cents go to the
// largest remainders. Ties go to the later name in sorted order. Names with no
// raw weight stay at zero.
func roundShares(names []string, raw map[string]float64) WeightMap {
	out := make(WeightMap, len(names))
	if len(names) == 0 {
		return out
	}
	total := decimal.Zero
	for _, n := range names {
		total = total.Add(decimal.NewFromFloat(raw[n]))
	}
	if !total.IsPositive() {
		return out
	}

	type share struct {
		name  string
		cents decimal.Decimal
		rem   decimal.Decimal
	}
	shares := make([]share, 0, len(names))
	floored := decimal.Zero
	for _, n := range names {
		if raw[n] <= 0 {
			out[n] = 0
			continue
		}
		exact := decimal.NewFromFloat(raw[n]).Div(total).Mul(hundred)
		cents := exact.Truncate(2)
		floored = floored.Add(cents)
		shares = append(shares, share{name: n, cents: cents, rem: exact.Sub(cents)})
	}

	left := int(hundred.Sub(floored).Mul(hundred).Round(0).IntPart())
	sort.SliceStable(shares, func(i, j int) bool {
		if c := shares[i].rem.Cmp(shares[j].rem); c != 0 {
			return c > 0
		}
		return shares[i].name > shares[j].name
	})
	cent := decimal.New(1, -2)
	for i := range shares {
		if i < left {
			shares[i].cents = shares[i].cents.Add(cent)
		}
		out[shares[i].name], _ = shares[i].cents.Float64()
	}
	return out
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
