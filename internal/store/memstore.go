package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/grading"
)

// memStore keeps every fact in maps guarded by one RWMutex. Used by tests
// and the offline demo mode.
type memStore struct {
	mu sync.RWMutex

	gradingConfigs     map[string]academic.GradingConfig
	achievementConfigs map[string]academic.AchievementConfig

	enrollments   map[string]academic.Enrollment
	groupSubjects map[string][]string

	activities map[string]academic.Activity
	scores     map[string]academic.StudentActivityScore // enrollment|activity

	periodGrades map[string]academic.PeriodSubjectGrade // enrollment|subject|period
	annualGrades map[string]academic.AnnualSubjectGrade // enrollment|subject|year

	recoveries map[string]academic.RecoveryRecord // enrollment|subject|target|period

	achievements        map[string]academic.Achievement
	studentAchievements map[string]academic.StudentAchievement // by id
	saByKey             map[string]string                      // enrollment|achievement -> id

	attendance map[string]academic.AttendanceSummary // enrollment|year
}

func NewInMemory() Store {
	return &memStore{
		gradingConfigs:      map[string]academic.GradingConfig{},
		achievementConfigs:  map[string]academic.AchievementConfig{},
		enrollments:         map[string]academic.Enrollment{},
		groupSubjects:       map[string][]string{},
		activities:          map[string]academic.Activity{},
		scores:              map[string]academic.StudentActivityScore{},
		periodGrades:        map[string]academic.PeriodSubjectGrade{},
		annualGrades:        map[string]academic.AnnualSubjectGrade{},
		recoveries:          map[string]academic.RecoveryRecord{},
		achievements:        map[string]academic.Achievement{},
		studentAchievements: map[string]academic.StudentAchievement{},
		saByKey:             map[string]string{},
		attendance:          map[string]academic.AttendanceSummary{},
	}
}

func key(parts ...interface{}) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += fmt.Sprint(p)
	}
	return out
}

func (m *memStore) GetGradingConfig(_ context.Context, institutionID string) (academic.GradingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.gradingConfigs[institutionID]
	if !ok {
		return academic.GradingConfig{}, fmt.Errorf("grading config for institution %s: %w", institutionID, academic.ErrNotFound)
	}
	return c, nil
}

func (m *memStore) PutGradingConfig(_ context.Context, cfg academic.GradingConfig) error {
	if err := academic.ValidateGradingConfig(cfg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gradingConfigs[cfg.InstitutionID] = cfg
	return nil
}

func (m *memStore) GetAchievementConfig(_ context.Context, institutionID string) (academic.AchievementConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.achievementConfigs[institutionID]
	if !ok {
		return academic.AchievementConfig{}, fmt.Errorf("achievement config for institution %s: %w", institutionID, academic.ErrNotFound)
	}
	return c, nil
}

func (m *memStore) PutAchievementConfig(_ context.Context, cfg academic.AchievementConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.achievementConfigs[cfg.InstitutionID] = cfg
	return nil
}

func (m *memStore) GetEnrollment(_ context.Context, id string) (academic.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.enrollments[id]
	if !ok {
		return academic.Enrollment{}, fmt.Errorf("enrollment %s: %w", id, academic.ErrNotFound)
	}
	return e, nil
}

func (m *memStore) PutEnrollment(_ context.Context, e academic.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[e.ID] = e
	return nil
}

func (m *memStore) ListEnrollments(_ context.Context, institutionID string, year int) ([]academic.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []academic.Enrollment
	for _, e := range m.enrollments {
		if e.InstitutionID == institutionID && e.Year == year {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetSubjectsForGroup(_ context.Context, groupID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subj := m.groupSubjects[groupID]
	out := make([]string, len(subj))
	copy(out, subj)
	return out, nil
}

func (m *memStore) PutGroupSubjects(_ context.Context, groupID string, subjectIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(subjectIDs))
	copy(cp, subjectIDs)
	m.groupSubjects[groupID] = cp
	return nil
}

func (m *memStore) PutActivity(_ context.Context, a academic.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.activities[a.ID] = a
	return nil
}

func (m *memStore) PutScore(_ context.Context, s academic.StudentActivityScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[s.ActivityID]; !ok {
		return fmt.Errorf("activity %s: %w", s.ActivityID, academic.ErrNotFound)
	}
	m.scores[key(s.EnrollmentID, s.ActivityID)] = s
	return nil
}

func (m *memStore) PeriodScores(_ context.Context, enrollmentID, subjectID string, period int) ([]grading.ScoreInput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []grading.ScoreInput
	for _, a := range m.activities {
		if a.SubjectID != subjectID || a.Period != period {
			continue
		}
		in := grading.ScoreInput{ActivityID: a.ID, DimensionID: a.DimensionID}
		if s, ok := m.scores[key(enrollmentID, a.ID)]; ok {
			in.Score = s.Score
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivityID < out[j].ActivityID })
	return out, nil
}

func (m *memStore) UpsertPeriodGrade(_ context.Context, g academic.PeriodSubjectGrade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periodGrades[key(g.EnrollmentID, g.SubjectID, g.Period)] = g
	return nil
}

func (m *memStore) GetPeriodGrade(_ context.Context, enrollmentID, subjectID string, period int) (academic.PeriodSubjectGrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.periodGrades[key(enrollmentID, subjectID, period)]
	if !ok {
		return academic.PeriodSubjectGrade{}, fmt.Errorf("period grade %s/%s/%d: %w",
			enrollmentID, subjectID, period, academic.ErrNotFound)
	}
	return g, nil
}

func (m *memStore) ListPeriodGrades(_ context.Context, enrollmentID, subjectID string) ([]academic.PeriodSubjectGrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []academic.PeriodSubjectGrade
	for _, g := range m.periodGrades {
		if g.EnrollmentID == enrollmentID && g.SubjectID == subjectID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (m *memStore) UpsertAnnualGrade(_ context.Context, g academic.AnnualSubjectGrade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.annualGrades[key(g.EnrollmentID, g.SubjectID, g.Year)] = g
	return nil
}

func (m *memStore) ListAnnualGrades(_ context.Context, enrollmentID string, year int) ([]academic.AnnualSubjectGrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []academic.AnnualSubjectGrade
	for _, g := range m.annualGrades {
		if g.EnrollmentID == enrollmentID && g.Year == year {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out, nil
}

func (m *memStore) PutRecovery(_ context.Context, r academic.RecoveryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.recoveries[key(r.EnrollmentID, r.SubjectID, r.Target, r.Period)] = r
	return nil
}

func (m *memStore) GetRecovery(_ context.Context, enrollmentID, subjectID string, target academic.RecoveryTarget, period int) (*academic.RecoveryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recoveries[key(enrollmentID, subjectID, target, period)]
	if !ok {
		return nil, nil
	}
	cp := r
	return &cp, nil
}

func (m *memStore) PutAchievement(_ context.Context, a academic.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	// exactly-once per (assignment, period, order)
	for _, other := range m.achievements {
		if other.ID != a.ID && other.AssignmentID == a.AssignmentID &&
			other.Period == a.Period && other.OrderNumber == a.OrderNumber {
			return fmt.Errorf("achievement order %d already taken for assignment %s period %d",
				a.OrderNumber, a.AssignmentID, a.Period)
		}
	}
	m.achievements[a.ID] = a
	return nil
}

func (m *memStore) GetAchievement(_ context.Context, id string) (academic.Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.achievements[id]
	if !ok {
		return academic.Achievement{}, fmt.Errorf("achievement %s: %w", id, academic.ErrNotFound)
	}
	return a, nil
}

func (m *memStore) ListAchievements(_ context.Context, assignmentID string, period int) ([]academic.Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []academic.Achievement
	for _, a := range m.achievements {
		if a.AssignmentID == assignmentID && (a.IsPromotional || a.Period == period) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

func (m *memStore) UpsertSuggestion(_ context.Context, sa academic.StudentAchievement) (academic.StudentAchievement, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(sa.EnrollmentID, sa.AchievementID)
	id, exists := m.saByKey[k]
	if !exists {
		if sa.ID == "" {
			sa.ID = uuid.NewString()
		}
		m.saByKey[k] = sa.ID
		m.studentAchievements[sa.ID] = sa
		return sa, false, nil
	}

	cur := m.studentAchievements[id]
	locked := false
	cur.Grade = sa.Grade
	cur.Level = sa.Level
	if cur.TextApproved {
		if cur.SuggestedText != sa.SuggestedText {
			locked = true
		}
	} else {
		cur.SuggestedText = sa.SuggestedText
	}
	if cur.JudgmentApproved {
		if cur.SuggestedJudgment != sa.SuggestedJudgment {
			locked = true
		}
	} else {
		cur.SuggestedJudgment = sa.SuggestedJudgment
	}
	m.studentAchievements[id] = cur
	return cur, locked, nil
}

func (m *memStore) GetStudentAchievement(_ context.Context, id string) (academic.StudentAchievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sa, ok := m.studentAchievements[id]
	if !ok {
		return academic.StudentAchievement{}, fmt.Errorf("student achievement %s: %w", id, academic.ErrNotFound)
	}
	return sa, nil
}

func (m *memStore) FindStudentAchievement(_ context.Context, enrollmentID, achievementID string) (academic.StudentAchievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.saByKey[key(enrollmentID, achievementID)]
	if !ok {
		return academic.StudentAchievement{}, fmt.Errorf("student achievement for %s/%s: %w",
			enrollmentID, achievementID, academic.ErrNotFound)
	}
	return m.studentAchievements[id], nil
}

func (m *memStore) Approve(_ context.Context, studentAchievementID string, in ApproveInput) (academic.StudentAchievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sa, ok := m.studentAchievements[studentAchievementID]
	if !ok {
		return academic.StudentAchievement{}, fmt.Errorf("student achievement %s: %w",
			studentAchievementID, academic.ErrNotFound)
	}
	sa.ApprovedText = in.ApprovedText
	sa.TextApproved = true
	if in.ApprovedJudgment != "" {
		sa.ApprovedJudgment = in.ApprovedJudgment
		sa.JudgmentApproved = true
	}
	sa.ApprovedBy = in.ApprovedBy
	at := in.At
	sa.ApprovedAt = &at
	m.studentAchievements[studentAchievementID] = sa
	return sa, nil
}

func (m *memStore) GetAttendanceSummary(_ context.Context, enrollmentID string, year int) (academic.AttendanceSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.attendance[key(enrollmentID, year)]
	if !ok {
		return academic.AttendanceSummary{}, fmt.Errorf("attendance for enrollment %s year %d: %w",
			enrollmentID, year, academic.ErrNotFound)
	}
	return s, nil
}

func (m *memStore) PutAttendanceSummary(_ context.Context, s academic.AttendanceSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance[key(s.EnrollmentID, s.Year)] = s
	return nil
}
