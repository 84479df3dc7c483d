package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/grading"
)

// SQLStore implements Store over database/sql. Works against both the
// sqlite and postgres schemas from internal/db.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) GetGradingConfig(ctx context.Context, institutionID string) (academic.GradingConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM grading_configs WHERE institution_id=$1`, institutionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.GradingConfig{}, fmt.Errorf("grading config for institution %s: %w", institutionID, academic.ErrNotFound)
	}
	if err != nil {
		return academic.GradingConfig{}, err
	}
	var cfg academic.GradingConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return academic.GradingConfig{}, fmt.Errorf("decode grading config %s: %w", institutionID, err)
	}
	return cfg, nil
}

func (s *SQLStore) PutGradingConfig(ctx context.Context, cfg academic.GradingConfig) error {
	if err := academic.ValidateGradingConfig(cfg); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grading_configs (institution_id, config_json) VALUES ($1,$2)
		ON CONFLICT (institution_id) DO UPDATE SET config_json=EXCLUDED.config_json`,
		cfg.InstitutionID, string(raw))
	return err
}

func (s *SQLStore) GetAchievementConfig(ctx context.Context, institutionID string) (academic.AchievementConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM achievement_configs WHERE institution_id=$1`, institutionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.AchievementConfig{}, fmt.Errorf("achievement config for institution %s: %w", institutionID, academic.ErrNotFound)
	}
	if err != nil {
		return academic.AchievementConfig{}, err
	}
	var cfg academic.AchievementConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return academic.AchievementConfig{}, fmt.Errorf("decode achievement config %s: %w", institutionID, err)
	}
	return cfg, nil
}

func (s *SQLStore) PutAchievementConfig(ctx context.Context, cfg academic.AchievementConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO achievement_configs (institution_id, config_json) VALUES ($1,$2)
		ON CONFLICT (institution_id) DO UPDATE SET config_json=EXCLUDED.config_json`,
		cfg.InstitutionID, string(raw))
	return err
}

func (s *SQLStore) GetEnrollment(ctx context.Context, id string) (academic.Enrollment, error) {
	var e academic.Enrollment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, institution_id, student_id, group_id, year FROM enrollments WHERE id=$1`, id).
		Scan(&e.ID, &e.InstitutionID, &e.StudentID, &e.GroupID, &e.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.Enrollment{}, fmt.Errorf("enrollment %s: %w", id, academic.ErrNotFound)
	}
	return e, err
}

func (s *SQLStore) PutEnrollment(ctx context.Context, e academic.Enrollment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, institution_id, student_id, group_id, year)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			institution_id=EXCLUDED.institution_id,
			student_id=EXCLUDED.student_id,
			group_id=EXCLUDED.group_id,
			year=EXCLUDED.year`,
		e.ID, e.InstitutionID, e.StudentID, e.GroupID, e.Year)
	return err
}

func (s *SQLStore) ListEnrollments(ctx context.Context, institutionID string, year int) ([]academic.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, institution_id, student_id, group_id, year
		FROM enrollments WHERE institution_id=$1 AND year=$2 ORDER BY id`,
		institutionID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academic.Enrollment
	for rows.Next() {
		var e academic.Enrollment
		if err := rows.Scan(&e.ID, &e.InstitutionID, &e.StudentID, &e.GroupID, &e.Year); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetSubjectsForGroup(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_id FROM group_subjects WHERE group_id=$1 ORDER BY subject_id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutGroupSubjects(ctx context.Context, groupID string, subjectIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_subjects WHERE group_id=$1`, groupID); err != nil {
		return err
	}
	for _, sub := range subjectIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_subjects (group_id, subject_id) VALUES ($1,$2)`, groupID, sub); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) PutActivity(ctx context.Context, a academic.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, assignment_id, subject_id, dimension_id, period, name)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			assignment_id=EXCLUDED.assignment_id,
			subject_id=EXCLUDED.subject_id,
			dimension_id=EXCLUDED.dimension_id,
			period=EXCLUDED.period,
			name=EXCLUDED.name`,
		a.ID, a.AssignmentID, a.SubjectID, a.DimensionID, a.Period, a.Name)
	return err
}

func (s *SQLStore) PutScore(ctx context.Context, sc academic.StudentActivityScore) error {
	var score sql.NullFloat64
	if sc.Score != nil {
		score = sql.NullFloat64{Float64: *sc.Score, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_scores (enrollment_id, activity_id, score)
		VALUES ($1,$2,$3)
		ON CONFLICT (enrollment_id, activity_id) DO UPDATE SET score=EXCLUDED.score`,
		sc.EnrollmentID, sc.ActivityID, score)
	return err
}

func (s *SQLStore) PeriodScores(ctx context.Context, enrollmentID, subjectID string, period int) ([]grading.ScoreInput, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.dimension_id, sc.score
		FROM activities a
		LEFT JOIN activity_scores sc ON sc.activity_id = a.id AND sc.enrollment_id = $1
		WHERE a.subject_id = $2 AND a.period = $3
		ORDER BY a.id`,
		enrollmentID, subjectID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []grading.ScoreInput
	for rows.Next() {
		var in grading.ScoreInput
		var score sql.NullFloat64
		if err := rows.Scan(&in.ActivityID, &in.DimensionID, &score); err != nil {
			return nil, err
		}
		if score.Valid {
			v := score.Float64
			in.Score = &v
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertPeriodGrade(ctx context.Context, g academic.PeriodSubjectGrade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO period_grades (enrollment_id, subject_id, period, grade, level)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (enrollment_id, subject_id, period)
		DO UPDATE SET grade=EXCLUDED.grade, level=EXCLUDED.level`,
		g.EnrollmentID, g.SubjectID, g.Period, g.Grade, string(g.Level))
	return err
}

func (s *SQLStore) GetPeriodGrade(ctx context.Context, enrollmentID, subjectID string, period int) (academic.PeriodSubjectGrade, error) {
	var g academic.PeriodSubjectGrade
	var level string
	err := s.db.QueryRowContext(ctx, `
		SELECT enrollment_id, subject_id, period, grade, level
		FROM period_grades WHERE enrollment_id=$1 AND subject_id=$2 AND period=$3`,
		enrollmentID, subjectID, period).
		Scan(&g.EnrollmentID, &g.SubjectID, &g.Period, &g.Grade, &level)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.PeriodSubjectGrade{}, fmt.Errorf("period grade %s/%s/%d: %w",
			enrollmentID, subjectID, period, academic.ErrNotFound)
	}
	g.Level = academic.PerformanceLevel(level)
	return g, err
}

func (s *SQLStore) ListPeriodGrades(ctx context.Context, enrollmentID, subjectID string) ([]academic.PeriodSubjectGrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT enrollment_id, subject_id, period, grade, level
		FROM period_grades WHERE enrollment_id=$1 AND subject_id=$2 ORDER BY period`,
		enrollmentID, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academic.PeriodSubjectGrade
	for rows.Next() {
		var g academic.PeriodSubjectGrade
		var level string
		if err := rows.Scan(&g.EnrollmentID, &g.SubjectID, &g.Period, &g.Grade, &level); err != nil {
			return nil, err
		}
		g.Level = academic.PerformanceLevel(level)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertAnnualGrade(ctx context.Context, g academic.AnnualSubjectGrade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annual_grades (enrollment_id, subject_id, year, grade, level)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (enrollment_id, subject_id, year)
		DO UPDATE SET grade=EXCLUDED.grade, level=EXCLUDED.level`,
		g.EnrollmentID, g.SubjectID, g.Year, g.Grade, string(g.Level))
	return err
}

func (s *SQLStore) ListAnnualGrades(ctx context.Context, enrollmentID string, year int) ([]academic.AnnualSubjectGrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT enrollment_id, subject_id, year, grade, level
		FROM annual_grades WHERE enrollment_id=$1 AND year=$2 ORDER BY subject_id`,
		enrollmentID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academic.AnnualSubjectGrade
	for rows.Next() {
		var g academic.AnnualSubjectGrade
		var level string
		if err := rows.Scan(&g.EnrollmentID, &g.SubjectID, &g.Year, &g.Grade, &level); err != nil {
			return nil, err
		}
		g.Level = academic.PerformanceLevel(level)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutRecovery(ctx context.Context, r academic.RecoveryRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recoveries (id, enrollment_id, subject_id, target, period, score, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (enrollment_id, subject_id, target, period)
		DO UPDATE SET score=EXCLUDED.score, submitted_at=EXCLUDED.submitted_at`,
		r.ID, r.EnrollmentID, r.SubjectID, string(r.Target), r.Period, r.Score, r.SubmittedAt.Unix())
	return err
}

func (s *SQLStore) GetRecovery(ctx context.Context, enrollmentID, subjectID string, target academic.RecoveryTarget, period int) (*academic.RecoveryRecord, error) {
	var r academic.RecoveryRecord
	var tgt string
	var submitted int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, enrollment_id, subject_id, target, period, score, submitted_at
		FROM recoveries WHERE enrollment_id=$1 AND subject_id=$2 AND target=$3 AND period=$4`,
		enrollmentID, subjectID, string(target), period).
		Scan(&r.ID, &r.EnrollmentID, &r.SubjectID, &tgt, &r.Period, &r.Score, &submitted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Target = academic.RecoveryTarget(tgt)
	r.SubmittedAt = unixTime(submitted)
	return &r, nil
}

func (s *SQLStore) PutAchievement(ctx context.Context, a academic.Achievement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO achievements (id, assignment_id, period, order_number, description, is_promotional)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			description=EXCLUDED.description,
			is_promotional=EXCLUDED.is_promotional`,
		a.ID, a.AssignmentID, a.Period, a.OrderNumber, a.Description, boolInt(a.IsPromotional))
	return err
}

func (s *SQLStore) GetAchievement(ctx context.Context, id string) (academic.Achievement, error) {
	var a academic.Achievement
	var promo int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, assignment_id, period, order_number, description, is_promotional
		FROM achievements WHERE id=$1`, id).
		Scan(&a.ID, &a.AssignmentID, &a.Period, &a.OrderNumber, &a.Description, &promo)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.Achievement{}, fmt.Errorf("achievement %s: %w", id, academic.ErrNotFound)
	}
	a.IsPromotional = promo != 0
	return a, err
}

func (s *SQLStore) ListAchievements(ctx context.Context, assignmentID string, period int) ([]academic.Achievement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assignment_id, period, order_number, description, is_promotional
		FROM achievements
		WHERE assignment_id=$1 AND (is_promotional<>0 OR period=$2)
		ORDER BY order_number`,
		assignmentID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []academic.Achievement
	for rows.Next() {
		var a academic.Achievement
		var promo int
		if err := rows.Scan(&a.ID, &a.AssignmentID, &a.Period, &a.OrderNumber, &a.Description, &promo); err != nil {
			return nil, err
		}
		a.IsPromotional = promo != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertSuggestion writes a suggestion in one statement so the approval
// check cannot race a concurrent Approve: approved fields keep their stored
// value via CASE inside the upsert itself.
func (s *SQLStore) UpsertSuggestion(ctx context.Context, sa academic.StudentAchievement) (academic.StudentAchievement, bool, error) {
	if sa.ID == "" {
		sa.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO student_achievements
			(id, enrollment_id, achievement_id, grade, level, suggested_text, suggested_judgment)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (enrollment_id, achievement_id) DO UPDATE SET
			grade=EXCLUDED.grade,
			level=EXCLUDED.level,
			suggested_text=CASE WHEN student_achievements.text_approved<>0
				THEN student_achievements.suggested_text ELSE EXCLUDED.suggested_text END,
			suggested_judgment=CASE WHEN student_achievements.judgment_approved<>0
				THEN student_achievements.suggested_judgment ELSE EXCLUDED.suggested_judgment END
		RETURNING id, enrollment_id, achievement_id, grade, level,
			suggested_text, suggested_judgment, approved_text, approved_judgment,
			text_approved, judgment_approved, approved_by, approved_at`,
		sa.ID, sa.EnrollmentID, sa.AchievementID, sa.Grade, string(sa.Level),
		sa.SuggestedText, sa.SuggestedJudgment)

	stored, err := scanStudentAchievement(row)
	if err != nil {
		return academic.StudentAchievement{}, false, err
	}
	locked := (stored.TextApproved && stored.SuggestedText != sa.SuggestedText) ||
		(stored.JudgmentApproved && stored.SuggestedJudgment != sa.SuggestedJudgment)
	return stored, locked, nil
}

func (s *SQLStore) GetStudentAchievement(ctx context.Context, id string) (academic.StudentAchievement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, enrollment_id, achievement_id, grade, level,
			suggested_text, suggested_judgment, approved_text, approved_judgment,
			text_approved, judgment_approved, approved_by, approved_at
		FROM student_achievements WHERE id=$1`, id)
	sa, err := scanStudentAchievement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.StudentAchievement{}, fmt.Errorf("student achievement %s: %w", id, academic.ErrNotFound)
	}
	return sa, err
}

func (s *SQLStore) FindStudentAchievement(ctx context.Context, enrollmentID, achievementID string) (academic.StudentAchievement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, enrollment_id, achievement_id, grade, level,
			suggested_text, suggested_judgment, approved_text, approved_judgment,
			text_approved, judgment_approved, approved_by, approved_at
		FROM student_achievements WHERE enrollment_id=$1 AND achievement_id=$2`,
		enrollmentID, achievementID)
	sa, err := scanStudentAchievement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.StudentAchievement{}, fmt.Errorf("student achievement for %s/%s: %w",
			enrollmentID, achievementID, academic.ErrNotFound)
	}
	return sa, err
}

func (s *SQLStore) Approve(ctx context.Context, studentAchievementID string, in ApproveInput) (academic.StudentAchievement, error) {
	judgmentApproved := 0
	if in.ApprovedJudgment != "" {
		judgmentApproved = 1
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE student_achievements SET
			approved_text=$2,
			text_approved=1,
			approved_judgment=CASE WHEN $3<>0 THEN $4 ELSE approved_judgment END,
			judgment_approved=CASE WHEN $3<>0 THEN 1 ELSE judgment_approved END,
			approved_by=$5,
			approved_at=$6
		WHERE id=$1
		RETURNING id, enrollment_id, achievement_id, grade, level,
			suggested_text, suggested_judgment, approved_text, approved_judgment,
			text_approved, judgment_approved, approved_by, approved_at`,
		studentAchievementID, in.ApprovedText, judgmentApproved, in.ApprovedJudgment,
		in.ApprovedBy, in.At.Unix())
	sa, err := scanStudentAchievement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.StudentAchievement{}, fmt.Errorf("student achievement %s: %w",
			studentAchievementID, academic.ErrNotFound)
	}
	return sa, err
}

func (s *SQLStore) GetAttendanceSummary(ctx context.Context, enrollmentID string, year int) (academic.AttendanceSummary, error) {
	var a academic.AttendanceSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT enrollment_id, year, present, late, absent, total_days
		FROM attendance_summaries WHERE enrollment_id=$1 AND year=$2`,
		enrollmentID, year).
		Scan(&a.EnrollmentID, &a.Year, &a.Present, &a.Late, &a.Absent, &a.TotalDays)
	if errors.Is(err, sql.ErrNoRows) {
		return academic.AttendanceSummary{}, fmt.Errorf("attendance for enrollment %s year %d: %w",
			enrollmentID, year, academic.ErrNotFound)
	}
	return a, err
}

func (s *SQLStore) PutAttendanceSummary(ctx context.Context, a academic.AttendanceSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_summaries (enrollment_id, year, present, late, absent, total_days)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (enrollment_id, year) DO UPDATE SET
			present=EXCLUDED.present,
			late=EXCLUDED.late,
			absent=EXCLUDED.absent,
			total_days=EXCLUDED.total_days`,
		a.EnrollmentID, a.Year, a.Present, a.Late, a.Absent, a.TotalDays)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudentAchievement(row rowScanner) (academic.StudentAchievement, error) {
	var sa academic.StudentAchievement
	var level string
	var textApproved, judgmentApproved int
	var approvedAt sql.NullInt64
	err := row.Scan(&sa.ID, &sa.EnrollmentID, &sa.AchievementID, &sa.Grade, &level,
		&sa.SuggestedText, &sa.SuggestedJudgment, &sa.ApprovedText, &sa.ApprovedJudgment,
		&textApproved, &judgmentApproved, &sa.ApprovedBy, &approvedAt)
	if err != nil {
		return academic.StudentAchievement{}, err
	}
	sa.Level = academic.PerformanceLevel(level)
	sa.TextApproved = textApproved != 0
	sa.JudgmentApproved = judgmentApproved != 0
	if approvedAt.Valid {
		t := unixTime(approvedAt.Int64)
		sa.ApprovedAt = &t
	}
	return sa, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
