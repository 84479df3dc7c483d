// Package promotion evaluates an enrollment's full-year results against the
// institution's promotion thresholds.
package promotion

import (
	"context"
	"fmt"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/store"
)

// Evaluate applies the promotion rules to already-fetched facts. Pure, so
// the decision semantics are testable without a store. The two inputs are
// judged independently and every violated threshold lands in
// TriggeringRules, both at once when both fail. No rule in the current set
// emits CONDITIONAL; the engine never invents intermediate states.
func Evaluate(enrollmentID string, year int, annual []academic.AnnualSubjectGrade,
	attendance academic.AttendanceSummary, cfg academic.GradingConfig) academic.PromotionResult {

	failed := 0
	for _, g := range annual {
		if g.Grade < cfg.MinPassingScore {
			failed++
		}
	}
	pct := attendance.Pct()

	res := academic.PromotionResult{
		EnrollmentID:       enrollmentID,
		Year:               year,
		Decision:           academic.Promoted,
		FailedSubjectCount: failed,
		AttendancePct:      pct,
	}
	if failed > cfg.MaxFailedAreas {
		res.TriggeringRules = append(res.TriggeringRules, academic.RuleMaxFailedAreas)
	}
	if pct < cfg.MinAttendancePct {
		res.TriggeringRules = append(res.TriggeringRules, academic.RuleMinAttendance)
	}
	if len(res.TriggeringRules) > 0 {
		res.Decision = academic.NotPromoted
	}
	return res
}

// Engine fetches the facts behind a decision from the store.
type Engine struct {
	Store store.Store
}

func NewEngine(s store.Store) *Engine { return &Engine{Store: s} }

// Decide evaluates one enrollment's year. Errors carry the enrollment key
// so a failure inside a batch stays actionable.
func (e *Engine) Decide(ctx context.Context, enrollmentID string, year int) (academic.PromotionResult, error) {
	enr, err := e.Store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return academic.PromotionResult{}, err
	}
	cfg, err := e.Store.GetGradingConfig(ctx, enr.InstitutionID)
	if err != nil {
		return academic.PromotionResult{}, fmt.Errorf("enrollment %s: %w", enrollmentID, err)
	}
	annual, err := e.Store.ListAnnualGrades(ctx, enrollmentID, year)
	if err != nil {
		return academic.PromotionResult{}, fmt.Errorf("enrollment %s: annual grades: %w", enrollmentID, err)
	}
	attendance, err := e.Store.GetAttendanceSummary(ctx, enrollmentID, year)
	if err != nil {
		return academic.PromotionResult{}, fmt.Errorf("enrollment %s: attendance: %w", enrollmentID, err)
	}
	return Evaluate(enrollmentID, year, annual, attendance, cfg), nil
}
