package grading

import "time"

// Bucket is the policy-independent classification of an assignment.
type Bucket string

const (
	BucketGraded         Bucket = "graded"
	BucketMissingPastDue Bucket = "missing_past_due"
	BucketNotYetDue      Bucket = "not_yet_due"
	BucketUngradedOther  Bucket = "ungraded_other"
)

// Buckets lists every bucket in report order.
var Buckets = []Bucket{BucketGraded, BucketMissingPastDue, BucketNotYetDue, BucketUngradedOther}

// Classify places a into exactly one bucket. Rules apply in order: a score
// means graded; missing and past due; no due date or due later; otherwise
// ungraded for some other reason (submitted, excused, ambiguous).
func Classify(a Assignment, now time.Time) Bucket {
	switch {
	case a.Score != nil:
		return BucketGraded
	case a.State == StateMissing && a.DueAt != nil && !a.DueAt.After(now):
		return BucketMissingPastDue
	case a.DueAt == nil || a.DueAt.After(now):
		return BucketNotYetDue
	default:
		return BucketUngradedOther
	}
}
