// Package achievement implements the suggest→approve narrative workflow:
// suggested texts derived from performance levels, institution judgment
// templates, bulk generation across a group, and the completeness gate for
// period finalization.
package achievement

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/grading"
	"github.com/aulalabs/academico/internal/store"
)

// Suggestion is the generated pair for one student.
type Suggestion struct {
	Text     string
	Judgment string
}

// GenerateSuggestion derives the suggested narrative for one achievement at
// one performance level. BAJO and BASICO prefix the lowercased base
// description; ALTO and SUPERIOR keep it verbatim. The judgment comes from
// the institution's template for the level; a missing template just yields
// an empty judgment.
func GenerateSuggestion(a academic.Achievement, level academic.PerformanceLevel, cfg academic.AchievementConfig) Suggestion {
	var text string
	switch level {
	case academic.LevelBajo:
		text = "Presenta dificultades en: " + strings.ToLower(a.Description)
	case academic.LevelBasico:
		text = "Desarrolla parcialmente: " + strings.ToLower(a.Description)
	default:
		text = a.Description
	}
	judgment, _ := cfg.TemplateFor(level)
	return Suggestion{Text: text, Judgment: judgment}
}

// StudentGrade is one student's grade feeding bulk generation.
type StudentGrade struct {
	EnrollmentID string
	Grade        float64
}

// BulkOutcome reports what happened to one enrollment during BulkGenerate.
type BulkOutcome struct {
	EnrollmentID string
	Level        academic.PerformanceLevel
	Locked       bool // an approved field blocked part of the regeneration
	Err          error
}

// Generator runs the workflow against the fact store.
type Generator struct {
	Store store.Store
}

func NewGenerator(s store.Store) *Generator { return &Generator{Store: s} }

// BulkGenerate classifies every supplied grade through the institution's
// active scale and upserts one suggestion per (enrollment, achievement).
// Idempotent: an unchanged grade regenerates the same suggestion; a changed
// grade regenerates it, except that approved fields stay untouched (the
// conflict is logged and reported, never escalated). A grade outside the
// scale fails that one student only.
func (g *Generator) BulkGenerate(ctx context.Context, achievementID, institutionID string, grades []StudentGrade) ([]BulkOutcome, error) {
	ach, err := g.Store.GetAchievement(ctx, achievementID)
	if err != nil {
		return nil, err
	}
	gradingCfg, err := g.Store.GetGradingConfig(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	achCfg, err := g.Store.GetAchievementConfig(ctx, institutionID)
	if err != nil {
		return nil, err
	}

	// Templates resolved once per batch; the immutable config snapshot
	// rides through every student.
	out := make([]BulkOutcome, 0, len(grades))
	for _, sg := range grades {
		oc := BulkOutcome{EnrollmentID: sg.EnrollmentID}

		level, err := grading.Classify(sg.Grade, gradingCfg.Scale)
		if err != nil {
			oc.Err = fmt.Errorf("enrollment %s achievement %s: %w", sg.EnrollmentID, achievementID, err)
			out = append(out, oc)
			continue
		}
		oc.Level = level

		sug := GenerateSuggestion(ach, level, achCfg)
		_, locked, err := g.Store.UpsertSuggestion(ctx, academic.StudentAchievement{
			EnrollmentID:      sg.EnrollmentID,
			AchievementID:     achievementID,
			Grade:             sg.Grade,
			Level:             level,
			SuggestedText:     sug.Text,
			SuggestedJudgment: sug.Judgment,
		})
		if err != nil {
			oc.Err = fmt.Errorf("enrollment %s achievement %s: %w", sg.EnrollmentID, achievementID, err)
			out = append(out, oc)
			continue
		}
		if locked {
			oc.Locked = true
			log.Printf("achievement: approved field locked, suggestion skipped: enrollment=%s achievement=%s",
				sg.EnrollmentID, achievementID)
		}
		out = append(out, oc)
	}
	return out, nil
}

// Approve confirms the final text, and the judgment when one is supplied.
// The store applies both flag updates in a single statement, so a
// concurrent regeneration can never interleave between them.
func (g *Generator) Approve(ctx context.Context, studentAchievementID string, in store.ApproveInput) (academic.StudentAchievement, error) {
	if strings.TrimSpace(in.ApprovedText) == "" {
		return academic.StudentAchievement{}, fmt.Errorf("student achievement %s: approved text required", studentAchievementID)
	}
	return g.Store.Approve(ctx, studentAchievementID, in)
}

// WorkflowComplete reports whether the two-phase workflow finished for one
// record under the institution's policy: text must always be approved, the
// judgment only when judgments are enabled.
func WorkflowComplete(sa academic.StudentAchievement, cfg academic.AchievementConfig) bool {
	if !sa.TextApproved {
		return false
	}
	if cfg.JudgmentEnabled && !sa.JudgmentApproved {
		return false
	}
	return true
}
