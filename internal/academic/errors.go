package academic

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a computation that had no scoreable inputs.
// Callers treat the subject/period as not yet graded; zero is never
// substituted.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError wraps ErrInsufficientData with the entity keys that
// identify the empty scope.
type InsufficientDataError struct {
	EnrollmentID string
	SubjectID    string
	Period       int // 0 for annual
}

func (e *InsufficientDataError) Error() string {
	if e.Period > 0 {
		return fmt.Sprintf("insufficient data: enrollment %s subject %s period %d has no scored activities",
			e.EnrollmentID, e.SubjectID, e.Period)
	}
	return fmt.Sprintf("insufficient data: enrollment %s subject %s has no graded periods",
		e.EnrollmentID, e.SubjectID)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// ConfigInvariantError reports a grading config whose declared weights or
// scale violate write-time invariants. Fatal for the institution until the
// config is corrected; the engine never renormalizes a user-declared set.
type ConfigInvariantError struct {
	InstitutionID string
	Detail        string
}

func (e *ConfigInvariantError) Error() string {
	return fmt.Sprintf("config invariant violated for institution %s: %s", e.InstitutionID, e.Detail)
}

// OutOfRangeError reports a score outside the institution's scale bounds.
// Fatal for that single classification only; batches continue.
type OutOfRangeError struct {
	Score float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("score %.2f outside scale bounds [%.2f, %.2f]", e.Score, e.Min, e.Max)
}

// WindowClosedError reports a recovery submitted outside its configured
// window. The submission is rejected and the original grade stands.
type WindowClosedError struct {
	EnrollmentID string
	SubjectID    string
	Period       int
}

func (e *WindowClosedError) Error() string {
	return fmt.Sprintf("recovery window closed: enrollment %s subject %s period %d",
		e.EnrollmentID, e.SubjectID, e.Period)
}

// ErrApprovalLocked marks an attempt to overwrite an approved suggestion
// field. Bulk generation skips and logs it rather than escalating.
var ErrApprovalLocked = errors.New("approved field locked")

// ErrNotFound is the store-level miss shared by all entity lookups.
var ErrNotFound = errors.New("not found")
