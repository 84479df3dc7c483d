package grading

import (
	"sort"

	"github.com/aulalabs/academico/internal/academic"
)

// Classify maps a numeric score to a performance level through the
// institution's scale. Bands are checked in descending MinScore order and
// the first band whose inclusive minimum the score reaches wins, so a score
// exactly on a boundary lands in the higher band. Scores outside the scale
// bounds are an error; the classifier never guesses, callers clamp or
// reject upstream.
func Classify(score float64, scale []academic.ScaleEntry) (academic.PerformanceLevel, error) {
	if len(scale) == 0 {
		return "", &academic.OutOfRangeError{Score: score}
	}
	entries := make([]academic.ScaleEntry, len(scale))
	copy(entries, scale)
	sort.Slice(entries, func(i, j int) bool { return entries[i].MinScore > entries[j].MinScore })

	lowest := entries[len(entries)-1].MinScore
	highest := entries[0].MaxScore
	if score < lowest || score > highest {
		return "", &academic.OutOfRangeError{Score: score, Min: lowest, Max: highest}
	}
	for _, e := range entries {
		if score >= e.MinScore {
			return e.Level, nil
		}
	}
	// unreachable given the bound check above
	return "", &academic.OutOfRangeError{Score: score, Min: lowest, Max: highest}
}
