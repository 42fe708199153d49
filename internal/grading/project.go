package grading

import "github.com/shopspring/decimal"

// Project combines category percentages into course grades.
//
// The current grade averages only categories with graded work, rescaled by the
// weight those categories consume; it is nil when nothing is graded. The
// projected grade weighs every category by its full weight with no rescaling,
// counting an undefined projected percentage as 0.
func Project(categories []CategoryResult, weights WeightMap) (current, projected *float64) {
	if len(categories) == 0 {
		return nil, nil
	}
	var cur, consumed, proj float64
	for _, c := range categories {
		w := weights[c.Name]
		if p := c.currentValue(); p != nil {
			cur += w * *p
			consumed += w
		}
		if p := c.projectedValue(); p != nil {
			proj += w * *p / 100
		}
	}
	if consumed > 0 {
		avg := cur / consumed
		current = roundPtr(&avg)
	}
	projected = roundPtr(&proj)
	return current, projected
}

func (c CategoryResult) currentValue() *float64 {
	if c.rawCurrent != nil {
		return c.rawCurrent
	}
	return c.Current
}

func (c CategoryResult) projectedValue() *float64 {
	if c.rawProjected != nil {
		return c.rawProjected
	}
	return c.Projected
}

// Round2 rounds half-even to two decimals.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(2).Float64()
	return f
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}
