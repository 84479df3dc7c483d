// Package store is the fact store behind the grading engine: institutional
// configuration, raw activity scores, derived grades, and the achievement
// workflow. Two implementations exist, an in-memory store for tests and
// offline use and a SQL store over sqlite/postgres.
package store

import (
	"context"
	"time"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/grading"
)

// ApproveInput carries one approval action. Judgment approval is granted iff
// ApprovedJudgment is non-empty.
type ApproveInput struct {
	ApprovedText     string
	ApprovedJudgment string
	ApprovedBy       string
	At               time.Time
}

type Store interface {
	// Institutional configuration. Writes validate invariants; the engine
	// reads immutable snapshots.
	GetGradingConfig(ctx context.Context, institutionID string) (academic.GradingConfig, error)
	PutGradingConfig(ctx context.Context, cfg academic.GradingConfig) error
	GetAchievementConfig(ctx context.Context, institutionID string) (academic.AchievementConfig, error)
	PutAchievementConfig(ctx context.Context, cfg academic.AchievementConfig) error

	// Roster.
	GetEnrollment(ctx context.Context, id string) (academic.Enrollment, error)
	PutEnrollment(ctx context.Context, e academic.Enrollment) error
	ListEnrollments(ctx context.Context, institutionID string, year int) ([]academic.Enrollment, error)
	GetSubjectsForGroup(ctx context.Context, groupID string) ([]string, error)
	PutGroupSubjects(ctx context.Context, groupID string, subjectIDs []string) error

	// Activities and raw scores.
	PutActivity(ctx context.Context, a academic.Activity) error
	PutScore(ctx context.Context, s academic.StudentActivityScore) error
	// PeriodScores joins scores with their activity's dimension for one
	// (enrollment, subject, period) scope. Ungraded activities come back
	// with a nil score.
	PeriodScores(ctx context.Context, enrollmentID, subjectID string, period int) ([]grading.ScoreInput, error)

	// Derived grades. Upserts keep recomputation idempotent.
	UpsertPeriodGrade(ctx context.Context, g academic.PeriodSubjectGrade) error
	GetPeriodGrade(ctx context.Context, enrollmentID, subjectID string, period int) (academic.PeriodSubjectGrade, error)
	ListPeriodGrades(ctx context.Context, enrollmentID, subjectID string) ([]academic.PeriodSubjectGrade, error)
	UpsertAnnualGrade(ctx context.Context, g academic.AnnualSubjectGrade) error
	ListAnnualGrades(ctx context.Context, enrollmentID string, year int) ([]academic.AnnualSubjectGrade, error)

	// Recoveries.
	PutRecovery(ctx context.Context, r academic.RecoveryRecord) error
	GetRecovery(ctx context.Context, enrollmentID, subjectID string, target academic.RecoveryTarget, period int) (*academic.RecoveryRecord, error)

	// Achievements and the suggest→approve workflow.
	PutAchievement(ctx context.Context, a academic.Achievement) error
	GetAchievement(ctx context.Context, id string) (academic.Achievement, error)
	ListAchievements(ctx context.Context, assignmentID string, period int) ([]academic.Achievement, error)
	// UpsertSuggestion writes a generated suggestion keyed by
	// (enrollment, achievement). Fields already approved are preserved;
	// the check happens atomically with the write. Returns the stored row
	// and whether an approved field blocked part of the update.
	UpsertSuggestion(ctx context.Context, sa academic.StudentAchievement) (academic.StudentAchievement, bool, error)
	GetStudentAchievement(ctx context.Context, id string) (academic.StudentAchievement, error)
	FindStudentAchievement(ctx context.Context, enrollmentID, achievementID string) (academic.StudentAchievement, error)
	Approve(ctx context.Context, studentAchievementID string, in ApproveInput) (academic.StudentAchievement, error)

	// Attendance.
	GetAttendanceSummary(ctx context.Context, enrollmentID string, year int) (academic.AttendanceSummary, error)
	PutAttendanceSummary(ctx context.Context, s academic.AttendanceSummary) error
}
