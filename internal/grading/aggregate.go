package grading

// Aggregate tallies one category. Earned and PossibleCurrent only ever include
// graded work; the policy decides which other buckets are added to the
// projected denominator at zero earned. Items worth zero points are skipped.
func Aggregate(name string, items []ClassifiedAssignment, policy FinalPolicy) CategoryResult {
	r := CategoryResult{Name: name, Counts: make(map[Bucket]int, len(Buckets))}
	extra := 0.0
	for _, it := range items {
		r.Counts[it.Bucket]++
		if it.PointsPossible == nil || *it.PointsPossible <= 0 {
			continue
		}
		pts := *it.PointsPossible
		switch {
		case it.Bucket == BucketGraded:
			r.Earned += max(0, *it.Score)
			r.PossibleCurrent += pts
		case policy.counts(it.Bucket):
			extra += pts
		}
	}
	r.EarnedProjected = r.Earned
	r.PossibleProjected = r.PossibleCurrent + extra

	r.rawCurrent = percent(r.Earned, r.PossibleCurrent)
	r.rawProjected = percent(r.EarnedProjected, r.PossibleProjected)
	r.Current = roundPtr(r.rawCurrent)
	r.Projected = roundPtr(r.rawProjected)
	return r
}

func percent(earned, possible float64) *float64 {
	if possible <= 0 {
		return nil
	}
	v := earned / possible * 100
	return &v
}
