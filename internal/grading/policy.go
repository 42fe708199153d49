package grading

import "strings"

// FinalPolicy decides how ungraded work counts toward the projected grade.
type FinalPolicy string

const (
	PolicyIgnoreAll                 FinalPolicy = "ignore_all"
	PolicyMissingZeroUpcomingIgnore FinalPolicy = "missing_zero_upcoming_ignore"
	PolicyAllZero                   FinalPolicy = "all_zero"

	DefaultPolicy = PolicyMissingZeroUpcomingIgnore
)

// Policies lists every accepted policy value.
var Policies = []FinalPolicy{PolicyIgnoreAll, PolicyMissingZeroUpcomingIgnore, PolicyAllZero}

// inclusion says which non-graded buckets count as possible points earning 0.
type inclusion map[Bucket]bool

var policyRules = map[FinalPolicy]inclusion{
	PolicyIgnoreAll:                 {},
	PolicyMissingZeroUpcomingIgnore: {BucketMissingPastDue: true},
	PolicyAllZero:                   {BucketMissingPastDue: true, BucketNotYetDue: true, BucketUngradedOther: true},
}

func (p FinalPolicy) counts(b Bucket) bool { return policyRules[p][b] }

// Valid reports whether p is a known policy.
func (p FinalPolicy) Valid() bool {
	_, ok := policyRules[p]
	return ok
}

// ParsePolicy accepts a policy name, trimming surrounding space.
func ParsePolicy(source, s string) (FinalPolicy, error) {
	p := FinalPolicy(strings.TrimSpace(s))
	if !p.Valid() {
		return "", &ConfigurationError{Source: source, Value: s, Reason: "unknown final policy"}
	}
	return p, nil
}

// PolicySources holds the candidate policy values for one course. Empty means unset.
type PolicySources struct {
	CLI     string
	Course  string
	Default string
}

// ResolvePolicy returns the highest-precedence policy that is set, or
// DefaultPolicy. Every set value is validated, including shadowed ones.
func ResolvePolicy(src PolicySources) (FinalPolicy, error) {
	candidates := []struct{ name, value string }{
		{SourceCLI, src.CLI},
		{SourceCourseConfig, src.Course},
		{SourceDefaultConfig, src.Default},
	}
	chosen := FinalPolicy("")
	for _, c := range candidates {
		if strings.TrimSpace(c.value) == "" {
			continue
		}
		p, err := ParsePolicy(c.name, c.value)
		if err != nil {
			return "", err
		}
		if chosen == "" {
			chosen = p
		}
	}
	if chosen == "" {
		return DefaultPolicy, nil
	}
	return chosen, nil
}
