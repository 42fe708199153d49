package grading

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches any *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("grading: configuration error")
	// ErrDataShape matches any *DataShapeError via errors.Is.
	ErrDataShape = errors.New("grading: data shape error")
)

// ConfigurationError reports an unusable policy or weight value. It is fatal
// for the course being computed.
type ConfigurationError struct {
	Source string // cli, course_config, default_config, canvas
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s value %q: %s", e.Source, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// DataShapeError reports input that cannot be graded. It fails only the
// course it belongs to.
type DataShapeError struct {
	CourseID     int64
	AssignmentID int64
	Field        string
	Reason       string
}

func (e *DataShapeError) Error() string {
	if e.AssignmentID != 0 {
		return fmt.Sprintf("course %d: assignment %d: %s: %s", e.CourseID, e.AssignmentID, e.Field, e.Reason)
	}
	return fmt.Sprintf("course %d: %s: %s", e.CourseID, e.Field, e.Reason)
}

func (e *DataShapeError) Is(target error) bool { return target == ErrDataShape }
