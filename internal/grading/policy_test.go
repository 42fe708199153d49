package grading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name string
		src  PolicySources
		want FinalPolicy
	}{
		{"default", PolicySources{}, PolicyMissingZeroUpcomingIgnore},
		{"cli wins", PolicySources{CLI: "all_zero", Course: "ignore_all", Default: "ignore_all"}, PolicyAllZero},
		{"course over default", PolicySources{Course: "ignore_all", Default: "all_zero"}, PolicyIgnoreAll},
		{"default config", PolicySources{Default: "all_zero"}, PolicyAllZero},
		{"blank ignored", PolicySources{CLI: "  ", Default: " ignore_all "}, PolicyIgnoreAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePolicy(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePolicy_InvalidValue(t *testing.T) {
	_, err := ResolvePolicy(PolicySources{CLI: "all_zero", Default: "curve_everyone"})
	require.Error(t, err)
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, SourceDefaultConfig, ce.Source)
	assert.Equal(t, "curve_everyone", ce.Value)
}

func TestPolicyRules(t *testing.T) {
	assert.False(t, PolicyIgnoreAll.counts(BucketMissingPastDue))
	assert.True(t, PolicyMissingZeroUpcomingIgnore.counts(BucketMissingPastDue))
	assert.False(t, PolicyMissingZeroUpcomingIgnore.counts(BucketNotYetDue))
	assert.False(t, PolicyMissingZeroUpcomingIgnore.counts(BucketUngradedOther))
	for _, b := range []Bucket{BucketMissingPastDue, BucketNotYetDue, BucketUngradedOther} {
		assert.True(t, PolicyAllZero.counts(b), b)
	}
	for _, p := range Policies {
		assert.False(t, p.counts(BucketGraded), p)
		assert.True(t, p.Valid())
	}
	assert.False(t, FinalPolicy("nope").Valid())
}
