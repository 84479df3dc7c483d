package academic

import (
	"fmt"
	"math"
	"sort"
)

// weightTolerance absorbs float noise when checking a declared weight sum.
const weightTolerance = 1e-9

// ValidateGradingConfig enforces the write-time invariants on an
// institution's config: weight sets sum to exactly 100, the scale is
// non-overlapping and covers [MinScore, MaxScore]. The engine re-checks the
// weight sums before computing and fails loudly if a bad config slipped
// through.
func ValidateGradingConfig(c GradingConfig) error {
	if c.MaxScore <= c.MinScore {
		return &ConfigInvariantError{InstitutionID: c.InstitutionID,
			Detail: fmt.Sprintf("max score %.2f not above min score %.2f", c.MaxScore, c.MinScore)}
	}
	if c.DecimalPrecision < 0 || c.DecimalPrecision > 6 {
		return &ConfigInvariantError{InstitutionID: c.InstitutionID,
			Detail: fmt.Sprintf("decimal precision %d out of range", c.DecimalPrecision)}
	}

	switch c.PeriodMode {
	case PeriodWeightedDimensions:
		if err := checkWeightSum(c.InstitutionID, "dimension", mapValues(c.DimensionWeights)); err != nil {
			return err
		}
	case PeriodSumActivities:
		// dimensions ignored in this mode
	default:
		return &ConfigInvariantError{InstitutionID: c.InstitutionID,
			Detail: fmt.Sprintf("unknown period mode %q", c.PeriodMode)}
	}

	switch c.AnnualMode {
	case AnnualWeightedPeriods:
		if err := checkWeightSum(c.InstitutionID, "period", c.PeriodWeights); err != nil {
			return err
		}
	case AnnualSimpleAverage:
		if len(c.PeriodWeights) == 0 {
			return &ConfigInvariantError{InstitutionID: c.InstitutionID,
				Detail: "period count missing (period_weights defines the number of periods)"}
		}
	default:
		return &ConfigInvariantError{InstitutionID: c.InstitutionID,
			Detail: fmt.Sprintf("unknown annual mode %q", c.AnnualMode)}
	}

	return validateScale(c)
}

// CheckDimensionWeights is the compute-time guard for the declared dimension
// weight set.
func CheckDimensionWeights(c GradingConfig) error {
	return checkWeightSum(c.InstitutionID, "dimension", mapValues(c.DimensionWeights))
}

// CheckPeriodWeights is the compute-time guard for the declared period
// weight set.
func CheckPeriodWeights(c GradingConfig) error {
	return checkWeightSum(c.InstitutionID, "period", c.PeriodWeights)
}

func checkWeightSum(institutionID, kind string, weights []float64) error {
	if len(weights) == 0 {
		return &ConfigInvariantError{InstitutionID: institutionID,
			Detail: fmt.Sprintf("no %s weights declared", kind)}
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return &ConfigInvariantError{InstitutionID: institutionID,
				Detail: fmt.Sprintf("negative %s weight %.2f", kind, w)}
		}
		sum += w
	}
	if math.Abs(sum-100) > weightTolerance {
		return &ConfigInvariantError{InstitutionID: institutionID,
			Detail: fmt.Sprintf("%s weights sum to %.2f, want 100", kind, sum)}
	}
	return nil
}

func validateScale(c GradingConfig) error {
	if len(c.Scale) == 0 {
		return &ConfigInvariantError{InstitutionID: c.InstitutionID, Detail: "empty grading scale"}
	}
	entries := make([]ScaleEntry, len(c.Scale))
	copy(entries, c.Scale)
	sort.Slice(entries, func(i, j int) bool { return entries[i].MinScore < entries[j].MinScore })

	for i, e := range entries {
		if e.MaxScore < e.MinScore {
			return &ConfigInvariantError{InstitutionID: c.InstitutionID,
				Detail: fmt.Sprintf("scale band %s inverted [%.2f, %.2f]", e.Level, e.MinScore, e.MaxScore)}
		}
		if i > 0 && e.MinScore <= entries[i-1].MaxScore {
			return &ConfigInvariantError{InstitutionID: c.InstitutionID,
				Detail: fmt.Sprintf("scale bands %s and %s overlap", entries[i-1].Level, e.Level)}
		}
	}
	if entries[0].MinScore > c.MinScore {
		return &ConfigInvariantError{InstitutionID: c.InstitutionID,
			Detail: fmt.Sprintf("scale does not cover minimum score %.2f", c.MinScore)}
	}
	if entries[len(entries)-1].MaxScore < c.MaxScore {
		return &ConfigInvariantError{InstitutionID: c.InstitutionID,
			Detail: fmt.Sprintf("scale does not cover maximum score %.2f", c.MaxScore)}
	}
	return nil
}

func mapValues(m map[string]float64) []float64 {
	out := make([]float64, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
