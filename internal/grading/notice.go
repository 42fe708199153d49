package grading

import (
	"context"
	"log/slog"
)

// NoticeKind names a non-fatal condition worth surfacing to the caller.
type NoticeKind string

const (
	NoticeFallbackEqual      NoticeKind = "weights_fallback_equal"
	NoticeSourceSkipped      NoticeKind = "weights_source_skipped"
	NoticeWeightUnmatched    NoticeKind = "weight_unmatched"
	NoticeCategoryUnweighted NoticeKind = "category_unweighted"
	NoticeUndefinedCurrent   NoticeKind = "category_undefined_current"
	NoticeAssignmentDropped  NoticeKind = "assignment_unmatched"
)

// Notice is an informational condition raised while computing a course.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	CourseID int64      `json:"course_id"`
	Category string     `json:"category,omitempty"`
	Message  string     `json:"message"`
}

func (n Notice) level() slog.Level {
	switch n.Kind {
	case NoticeWeightUnmatched, NoticeAssignmentDropped, NoticeCategoryUnweighted:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

func logNotices(log *slog.Logger, notices []Notice) {
	for _, n := range notices {
		log.Log(context.Background(), n.level(), n.Message,
			"kind", string(n.Kind),
			"course_id", n.CourseID,
			"category", n.Category,
		)
	}
}
