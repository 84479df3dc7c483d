package academic_test

import (
	"errors"
	"testing"

	"github.com/aulalabs/academico/internal/academic"
)

func validConfig() academic.GradingConfig {
	return academic.GradingConfig{
		InstitutionID: "inst-1",
		Scale: []academic.ScaleEntry{
			{Level: academic.LevelBajo, MinScore: 1.0, MaxScore: 2.9},
			{Level: academic.LevelBasico, MinScore: 3.0, MaxScore: 3.9},
			{Level: academic.LevelAlto, MinScore: 4.0, MaxScore: 4.5},
			{Level: academic.LevelSuperior, MinScore: 4.6, MaxScore: 5.0},
		},
		DimensionWeights: map[string]float64{"cognitive": 50, "procedural": 50},
		PeriodMode:       academic.PeriodWeightedDimensions,
		AnnualMode:       academic.AnnualWeightedPeriods,
		PeriodWeights:    []float64{25, 25, 25, 25},
		DecimalPrecision: 2,
		MinScore:         1.0,
		MaxScore:         5.0,
	}
}

func TestValidateGradingConfig_OK(t *testing.T) {
	if err := academic.ValidateGradingConfig(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateGradingConfig_Violations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*academic.GradingConfig)
	}{
		{"dimension weights short", func(c *academic.GradingConfig) {
			c.DimensionWeights["cognitive"] = 40
		}},
		{"period weights over", func(c *academic.GradingConfig) {
			c.PeriodWeights = []float64{30, 30, 30, 30}
		}},
		{"negative weight", func(c *academic.GradingConfig) {
			c.DimensionWeights = map[string]float64{"cognitive": 110, "procedural": -10}
		}},
		{"overlapping scale", func(c *academic.GradingConfig) {
			c.Scale[1].MinScore = 2.5
		}},
		{"scale gap at top", func(c *academic.GradingConfig) {
			c.Scale[3].MaxScore = 4.9
		}},
		{"empty scale", func(c *academic.GradingConfig) {
			c.Scale = nil
		}},
		{"unknown period mode", func(c *academic.GradingConfig) {
			c.PeriodMode = "median"
		}},
	}
	for _, tc := range cases {
		cfg := validConfig()
		tc.mutate(&cfg)
		err := academic.ValidateGradingConfig(cfg)
		var cie *academic.ConfigInvariantError
		if !errors.As(err, &cie) {
			t.Fatalf("%s: want ConfigInvariantError, got %v", tc.name, err)
		}
		if cie.InstitutionID != "inst-1" {
			t.Fatalf("%s: institution key missing from error: %v", tc.name, cie)
		}
	}
}

func TestAttendanceSummaryPct(t *testing.T) {
	s := academic.AttendanceSummary{Present: 160, Late: 20, Absent: 20, TotalDays: 200}
	if got := s.Pct(); got != 90 {
		t.Fatalf("pct = %v, want 90", got)
	}
	empty := academic.AttendanceSummary{}
	if got := empty.Pct(); got != 0 {
		t.Fatalf("pct = %v, want 0 for empty summary", got)
	}
}
