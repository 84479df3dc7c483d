package store

import (
	"context"
	"testing"
	"time"

	"github.com/aulalabs/academico/internal/academic"
)

func seedActivity(t *testing.T, s Store, id, subject, dim string, period int) {
	t.Helper()
	err := s.PutActivity(context.Background(), academic.Activity{
		ID: id, AssignmentID: "asg-1", SubjectID: subject, DimensionID: dim, Period: period, Name: id,
	})
	if err != nil {
		t.Fatalf("put activity %s: %v", id, err)
	}
}

func fptr(v float64) *float64 { return &v }

func TestPeriodScoresJoinsUngradedActivities(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	seedActivity(t, s, "act-1", "math", "cognitive", 1)
	seedActivity(t, s, "act-2", "math", "cognitive", 1)
	seedActivity(t, s, "act-3", "math", "cognitive", 2) // other period, excluded

	if err := s.PutScore(ctx, academic.StudentActivityScore{EnrollmentID: "e1", ActivityID: "act-1", Score: fptr(4.0)}); err != nil {
		t.Fatalf("put score: %v", err)
	}

	scores, err := s.PeriodScores(ctx, "e1", "math", 1)
	if err != nil {
		t.Fatalf("period scores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("want 2 inputs, got %d", len(scores))
	}
	if scores[0].ActivityID != "act-1" || scores[0].Score == nil || *scores[0].Score != 4.0 {
		t.Fatalf("act-1 score wrong: %+v", scores[0])
	}
	if scores[1].ActivityID != "act-2" || scores[1].Score != nil {
		t.Fatalf("act-2 should be ungraded: %+v", scores[1])
	}
}

func TestPutScoreRequiresActivity(t *testing.T) {
	s := NewInMemory()
	err := s.PutScore(context.Background(), academic.StudentActivityScore{EnrollmentID: "e1", ActivityID: "missing"})
	if err == nil {
		t.Fatal("want error for unknown activity")
	}
}

func TestAchievementOrderUniquePerAssignmentPeriod(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	a := academic.Achievement{ID: "a1", AssignmentID: "asg-1", Period: 1, OrderNumber: 1, Description: "resuelve ecuaciones"}
	if err := s.PutAchievement(ctx, a); err != nil {
		t.Fatalf("first put: %v", err)
	}
	dup := academic.Achievement{ID: "a2", AssignmentID: "asg-1", Period: 1, OrderNumber: 1, Description: "otro"}
	if err := s.PutAchievement(ctx, dup); err == nil {
		t.Fatal("want order collision error")
	}
	// same order in another period is fine
	other := academic.Achievement{ID: "a3", AssignmentID: "asg-1", Period: 2, OrderNumber: 1, Description: "otro"}
	if err := s.PutAchievement(ctx, other); err != nil {
		t.Fatalf("other period: %v", err)
	}
}

func TestUpsertSuggestionPreservesApprovedText(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	sa := academic.StudentAchievement{
		EnrollmentID: "e1", AchievementID: "a1",
		Grade: 3.2, Level: academic.LevelBasico,
		SuggestedText: "desarrolla parcialmente: resuelve ecuaciones",
	}
	stored, locked, err := s.UpsertSuggestion(ctx, sa)
	if err != nil || locked {
		t.Fatalf("initial upsert: locked=%v err=%v", locked, err)
	}

	if _, err := s.Approve(ctx, stored.ID, ApproveInput{
		ApprovedText: "desarrolla parcialmente: resuelve ecuaciones",
		ApprovedBy:   "rector-1",
		At:           time.Now(),
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// grade changed, regeneration produces different text
	sa.Grade = 4.2
	sa.Level = academic.LevelAlto
	sa.SuggestedText = "resuelve ecuaciones"
	got, locked, err := s.UpsertSuggestion(ctx, sa)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if !locked {
		t.Fatal("want locked=true when approved text differs")
	}
	if got.SuggestedText != "desarrolla parcialmente: resuelve ecuaciones" {
		t.Fatalf("approved text overwritten: %q", got.SuggestedText)
	}
	if got.Grade != 4.2 || got.Level != academic.LevelAlto {
		t.Fatalf("grade and level should refresh: %+v", got)
	}
	if !got.TextApproved || got.ApprovedBy != "rector-1" {
		t.Fatalf("approval metadata lost: %+v", got)
	}
}

func TestUpsertSuggestionIdenticalTextNotLocked(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	sa := academic.StudentAchievement{
		EnrollmentID: "e1", AchievementID: "a1",
		Grade: 3.2, Level: academic.LevelBasico,
		SuggestedText: "desarrolla parcialmente: resuelve ecuaciones",
	}
	stored, _, err := s.UpsertSuggestion(ctx, sa)
	if err != nil {
		t.Fatalf("initial upsert: %v", err)
	}
	if _, err := s.Approve(ctx, stored.ID, ApproveInput{ApprovedText: stored.SuggestedText, ApprovedBy: "rector-1", At: time.Now()}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, locked, err := s.UpsertSuggestion(ctx, sa)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if locked {
		t.Fatal("identical regeneration should not report a lock")
	}
}

func TestGetRecoveryAbsentIsNil(t *testing.T) {
	s := NewInMemory()
	rec, err := s.GetRecovery(context.Background(), "e1", "math", academic.RecoveryTargetPeriod, 1)
	if err != nil {
		t.Fatalf("get recovery: %v", err)
	}
	if rec != nil {
		t.Fatalf("want nil, got %+v", rec)
	}
}
