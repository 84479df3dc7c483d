package grading_test

import (
	"errors"
	"testing"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/grading"
)

func TestClassify_BoundaryGoesToHigherBand(t *testing.T) {
	scale := baseConfig().Scale
	level, err := grading.Classify(4.6, scale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != academic.LevelSuperior {
		t.Fatalf("level = %s, want SUPERIOR", level)
	}
}

func TestClassify_Bands(t *testing.T) {
	scale := baseConfig().Scale
	cases := []struct {
		score float64
		want  academic.PerformanceLevel
	}{
		{1.0, academic.LevelBajo},
		{2.9, academic.LevelBajo},
		{3.0, academic.LevelBasico},
		{3.75, academic.LevelBasico},
		{4.0, academic.LevelAlto},
		{4.5, academic.LevelAlto},
		{5.0, academic.LevelSuperior},
	}
	for _, c := range cases {
		got, err := grading.Classify(c.score, scale)
		if err != nil {
			t.Fatalf("Classify(%v): %v", c.score, err)
		}
		if got != c.want {
			t.Fatalf("Classify(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestClassify_OutOfRange(t *testing.T) {
	scale := baseConfig().Scale
	for _, score := range []float64{0.5, 5.1} {
		_, err := grading.Classify(score, scale)
		var oor *academic.OutOfRangeError
		if !errors.As(err, &oor) {
			t.Fatalf("Classify(%v): want OutOfRangeError, got %v", score, err)
		}
	}
}
