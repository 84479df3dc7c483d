package achievement

import (
	"context"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/store"
)

// ValidateCompleteness counts the non-promotional achievements a teacher
// assignment has registered for a period against the required number.
// Advisory: it returns data and never blocks writes itself; the calling
// workflow decides whether grades may be finalized.
func ValidateCompleteness(ctx context.Context, s store.Store, assignmentID string, period, requiredCount int) (academic.CompletenessResult, error) {
	achievements, err := s.ListAchievements(ctx, assignmentID, period)
	if err != nil {
		return academic.CompletenessResult{}, err
	}
	current := 0
	for _, a := range achievements {
		if !a.IsPromotional && a.Period == period {
			current++
		}
	}
	missing := requiredCount - current
	if missing < 0 {
		missing = 0
	}
	return academic.CompletenessResult{
		AssignmentID: assignmentID,
		Period:       period,
		IsComplete:   current >= requiredCount,
		CurrentCount: current,
		MissingCount: missing,
	}, nil
}
