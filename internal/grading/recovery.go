package grading

import (
	"time"

	"github.com/aulalabs/academico/internal/academic"
)

// ResolveWithRecovery folds an optional recovery score into a base grade.
// The recovery score is capped at the configured maximum, then the final
// grade is the max of base and capped recovery, so recovery can raise but
// never lower a grade. When IncludeRecovery is off the record stays for
// audit and the base grade stands.
func ResolveWithRecovery(baseGrade float64, recovery *academic.RecoveryRecord, cfg academic.GradingConfig) float64 {
	if recovery == nil || !cfg.IncludeRecovery {
		return baseGrade
	}
	score := recovery.Score
	if cfg.MaxRecoveryScore > 0 && score > cfg.MaxRecoveryScore {
		score = cfg.MaxRecoveryScore
	}
	if score > baseGrade {
		return roundHalfUp(score, cfg.DecimalPrecision)
	}
	return baseGrade
}

// CheckRecoveryWindow validates that a recovery submission falls inside the
// configured window for its period (period 0 is the annual window). Late or
// early submissions are rejected with WindowClosedError, never silently
// dropped. A period with no configured window accepts nothing.
func CheckRecoveryWindow(rec academic.RecoveryRecord, cfg academic.GradingConfig, now time.Time) error {
	w, ok := cfg.RecoveryWindow(rec.Period)
	if !ok {
		return &academic.WindowClosedError{EnrollmentID: rec.EnrollmentID, SubjectID: rec.SubjectID, Period: rec.Period}
	}
	if now.Before(w.Opens) || now.After(w.Closes) {
		return &academic.WindowClosedError{EnrollmentID: rec.EnrollmentID, SubjectID: rec.SubjectID, Period: rec.Period}
	}
	return nil
}
