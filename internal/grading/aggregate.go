package grading

import (
	"sort"

	"github.com/aulalabs/academico/internal/academic"
)

// ScoreInput is one activity score in scope for a period computation. Score
// is nil when the activity has not been graded yet.
type ScoreInput struct {
	ActivityID  string
	DimensionID string
	Score       *float64
}

// PeriodGradeInput is one period's derived grade feeding the annual
// computation. Period numbers are 1-based.
type PeriodGradeInput struct {
	Period int
	Grade  float64
}

// periodStrategy computes an unrounded period grade from activity scores.
// Each mode is a pure function with an identical signature, dispatched
// through periodStrategies.
type periodStrategy func(scores []ScoreInput, cfg academic.GradingConfig) (float64, bool, error)

var periodStrategies = map[academic.PeriodMode]periodStrategy{
	academic.PeriodWeightedDimensions: weightedDimensions,
	academic.PeriodSumActivities:      sumActivities,
}

type annualStrategy func(grades []PeriodGradeInput, cfg academic.GradingConfig) (float64, bool, error)

var annualStrategies = map[academic.AnnualMode]annualStrategy{
	academic.AnnualWeightedPeriods: weightedPeriods,
	academic.AnnualSimpleAverage:   simpleAverage,
}

// ComputePeriodSubjectGrade aggregates activity scores into the grade for
// one (enrollment, subject, period). Pure: callers persist the result.
// Returns an InsufficientDataError when no activity in scope has a score.
func ComputePeriodSubjectGrade(enrollmentID, subjectID string, period int, scores []ScoreInput, cfg academic.GradingConfig) (float64, error) {
	strat, ok := periodStrategies[cfg.PeriodMode]
	if !ok {
		return 0, &academic.ConfigInvariantError{InstitutionID: cfg.InstitutionID,
			Detail: "unknown period mode " + string(cfg.PeriodMode)}
	}
	grade, hasData, err := strat(scores, cfg)
	if err != nil {
		return 0, err
	}
	if !hasData {
		return 0, &academic.InsufficientDataError{EnrollmentID: enrollmentID, SubjectID: subjectID, Period: period}
	}
	return roundHalfUp(grade, cfg.DecimalPrecision), nil
}

// ComputeAnnualSubjectGrade combines period subject grades into the annual
// grade for one (enrollment, subject). Periods without a grade are excluded
// and, under weighted mode, their weight is redistributed proportionally.
func ComputeAnnualSubjectGrade(enrollmentID, subjectID string, grades []PeriodGradeInput, cfg academic.GradingConfig) (float64, error) {
	strat, ok := annualStrategies[cfg.AnnualMode]
	if !ok {
		return 0, &academic.ConfigInvariantError{InstitutionID: cfg.InstitutionID,
			Detail: "unknown annual mode " + string(cfg.AnnualMode)}
	}
	grade, hasData, err := strat(grades, cfg)
	if err != nil {
		return 0, err
	}
	if !hasData {
		return 0, &academic.InsufficientDataError{EnrollmentID: enrollmentID, SubjectID: subjectID}
	}
	return roundHalfUp(grade, cfg.DecimalPrecision), nil
}

// weightedDimensions averages each dimension's scored activities, then
// combines dimension means by their declared weights. Weights of dimensions
// with no data are excluded and the remainder rescaled; this renormalization
// is for missing data only, a user-declared set that does not sum to 100 is
// still a config violation.
func weightedDimensions(scores []ScoreInput, cfg academic.GradingConfig) (float64, bool, error) {
	if err := academic.CheckDimensionWeights(cfg); err != nil {
		return 0, false, err
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, s := range scores {
		if s.Score == nil {
			continue
		}
		sums[s.DimensionID] += *s.Score
		counts[s.DimensionID]++
	}
	if len(counts) == 0 {
		return 0, false, nil
	}

	// Deterministic iteration keeps recomputes byte-identical.
	dims := make([]string, 0, len(counts))
	for d := range counts {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	var weighted, weightSum float64
	for _, d := range dims {
		w, ok := cfg.DimensionWeights[d]
		if !ok {
			return 0, false, &academic.ConfigInvariantError{InstitutionID: cfg.InstitutionID,
				Detail: "no weight declared for dimension " + d}
		}
		mean := sums[d] / float64(counts[d])
		weighted += mean * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0, false, nil
	}
	return weighted / weightSum, true, nil
}

// sumActivities is the arithmetic mean of every scored activity in scope,
// dimensions ignored.
func sumActivities(scores []ScoreInput, _ academic.GradingConfig) (float64, bool, error) {
	var sum float64
	var n int
	for _, s := range scores {
		if s.Score == nil {
			continue
		}
		sum += *s.Score
		n++
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

func weightedPeriods(grades []PeriodGradeInput, cfg academic.GradingConfig) (float64, bool, error) {
	if err := academic.CheckPeriodWeights(cfg); err != nil {
		return 0, false, err
	}
	var weighted, weightSum float64
	for _, g := range grades {
		if g.Period < 1 || g.Period > len(cfg.PeriodWeights) {
			return 0, false, &academic.ConfigInvariantError{InstitutionID: cfg.InstitutionID,
				Detail: "no weight declared for period"}
		}
		w := cfg.PeriodWeights[g.Period-1]
		weighted += g.Grade * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0, false, nil
	}
	return weighted / weightSum, true, nil
}

func simpleAverage(grades []PeriodGradeInput, _ academic.GradingConfig) (float64, bool, error) {
	if len(grades) == 0 {
		return 0, false, nil
	}
	var sum float64
	for _, g := range grades {
		sum += g.Grade
	}
	return sum / float64(len(grades)), true, nil
}
