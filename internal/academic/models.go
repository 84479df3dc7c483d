package academic

import "time"

// PerformanceLevel is the categorical label derived from a numeric grade
// through an institution's scale.
type PerformanceLevel string

const (
	LevelBajo     PerformanceLevel = "BAJO"
	LevelBasico   PerformanceLevel = "BASICO"
	LevelAlto     PerformanceLevel = "ALTO"
	LevelSuperior PerformanceLevel = "SUPERIOR"
)

// PeriodMode selects how a period subject grade is computed from activity scores.
type PeriodMode string

const (
	PeriodWeightedDimensions PeriodMode = "weighted_dimensions"
	PeriodSumActivities      PeriodMode = "sum_activities"
)

// AnnualMode selects how an annual subject grade is computed from period grades.
type AnnualMode string

const (
	AnnualWeightedPeriods AnnualMode = "weighted_periods"
	AnnualSimpleAverage   AnnualMode = "simple_average"
)

// ScaleEntry is one band of an institution's grading scale. Bands are
// non-overlapping and together cover [GradingConfig.MinScore, MaxScore].
// The lower bound is inclusive: a score exactly on MinScore belongs to
// this band, not the one below.
type ScaleEntry struct {
	Level    PerformanceLevel `json:"level"`
	MinScore float64          `json:"min_score"`
	MaxScore float64          `json:"max_score"`
}

// RecoveryPeriodConfig time-boxes recovery submissions for one period.
// Period 0 means the annual recovery window.
type RecoveryPeriodConfig struct {
	Period int       `json:"period"`
	Opens  time.Time `json:"opens"`
	Closes time.Time `json:"closes"`
}

// GradingConfig is the per-institution snapshot every computation runs
// against. It is read-only to the engine; administrators mutate it through
// the config store, which validates it on write.
type GradingConfig struct {
	InstitutionID string `json:"institution_id"`

	Scale []ScaleEntry `json:"scale"`

	// DimensionWeights maps dimension id to its weight in percent. The
	// declared set must sum to exactly 100.
	DimensionWeights map[string]float64 `json:"dimension_weights"`

	PeriodMode PeriodMode `json:"period_mode"`
	AnnualMode AnnualMode `json:"annual_mode"`

	// PeriodWeights holds one percentage per period, in period order,
	// summing to 100. Only consulted under AnnualWeightedPeriods.
	PeriodWeights []float64 `json:"period_weights"`

	// DecimalPrecision is the number of decimals kept at each aggregation
	// level's output (round half up).
	DecimalPrecision int `json:"decimal_precision"`

	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`

	MinPassingScore  float64 `json:"min_passing_score"`
	MaxFailedAreas   int     `json:"max_failed_areas"`
	MinAttendancePct float64 `json:"min_attendance_pct"`

	IncludeRecovery  bool                   `json:"include_recovery"`
	MaxRecoveryScore float64                `json:"max_recovery_score"`
	RecoveryPeriods  []RecoveryPeriodConfig `json:"recovery_periods"`
}

// Periods reports how many grading periods the institution runs.
func (c GradingConfig) Periods() int { return len(c.PeriodWeights) }

// RecoveryWindow returns the window for a period, if one is configured.
func (c GradingConfig) RecoveryWindow(period int) (RecoveryPeriodConfig, bool) {
	for _, w := range c.RecoveryPeriods {
		if w.Period == period {
			return w, true
		}
	}
	return RecoveryPeriodConfig{}, false
}

// Activity is a gradable unit created by a teacher assignment. It lives in
// one dimension and one period of one subject+group+year.
type Activity struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"` // teacher assignment: subject+group+year
	SubjectID    string `json:"subject_id"`
	DimensionID  string `json:"dimension_id"`
	Period       int    `json:"period"`
	Name         string `json:"name"`
}

// StudentActivityScore is one student's raw score on one activity. Score is
// nil until the teacher grades it; nil scores are excluded from averages,
// never treated as zero.
type StudentActivityScore struct {
	EnrollmentID string   `json:"enrollment_id"`
	ActivityID   string   `json:"activity_id"`
	Score        *float64 `json:"score"`
}

// PeriodSubjectGrade is the derived grade for one (enrollment, subject, period).
type PeriodSubjectGrade struct {
	EnrollmentID string           `json:"enrollment_id"`
	SubjectID    string           `json:"subject_id"`
	Period       int              `json:"period"`
	Grade        float64          `json:"grade"`
	Level        PerformanceLevel `json:"level"`
}

// AnnualSubjectGrade is the derived grade for one (enrollment, subject, year).
type AnnualSubjectGrade struct {
	EnrollmentID string           `json:"enrollment_id"`
	SubjectID    string           `json:"subject_id"`
	Year         int              `json:"year"`
	Grade        float64          `json:"grade"`
	Level        PerformanceLevel `json:"level"`
}

// RecoveryTarget tells which derived grade a recovery score overrides.
type RecoveryTarget string

const (
	RecoveryTargetPeriod RecoveryTarget = "period"
	RecoveryTargetAnnual RecoveryTarget = "annual"
)

// RecoveryRecord is a remedial score submitted inside a recovery window.
// Period is zero for annual recoveries.
type RecoveryRecord struct {
	ID           string         `json:"id"`
	EnrollmentID string         `json:"enrollment_id"`
	SubjectID    string         `json:"subject_id"`
	Target       RecoveryTarget `json:"target"`
	Period       int            `json:"period"`
	Score        float64        `json:"score"`
	SubmittedAt  time.Time      `json:"submitted_at"`
}

// Achievement is a teacher-authored statement evaluated per student.
// Promotional achievements are scoped to the whole year; the rest belong to
// a single period. OrderNumber is unique per (assignment, period).
type Achievement struct {
	ID            string `json:"id"`
	AssignmentID  string `json:"assignment_id"`
	Period        int    `json:"period"`
	OrderNumber   int    `json:"order_number"`
	Description   string `json:"description"`
	IsPromotional bool   `json:"is_promotional"`
}

// StudentAchievement carries the two-phase suggest→approve workflow for one
// (enrollment, achievement). Text and judgment approvals are independent;
// once a field is approved the suggestion upsert must not touch it.
type StudentAchievement struct {
	ID            string `json:"id"`
	EnrollmentID  string `json:"enrollment_id"`
	AchievementID string `json:"achievement_id"`

	Grade float64          `json:"grade"`
	Level PerformanceLevel `json:"level"`

	SuggestedText     string `json:"suggested_text"`
	SuggestedJudgment string `json:"suggested_judgment"`

	ApprovedText     string `json:"approved_text"`
	ApprovedJudgment string `json:"approved_judgment"`

	TextApproved     bool       `json:"text_approved"`
	JudgmentApproved bool       `json:"judgment_approved"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
}

// JudgmentTemplate is the institution's canned value-judgment sentence for a
// performance level.
type JudgmentTemplate struct {
	InstitutionID string           `json:"institution_id"`
	Level         PerformanceLevel `json:"level"`
	Text          string           `json:"text"`
}

// AchievementConfig is the per-institution achievement policy.
type AchievementConfig struct {
	InstitutionID string `json:"institution_id"`

	// RequiredPerPeriod is how many non-promotional achievements a teacher
	// assignment must register before period grades may be finalized.
	RequiredPerPeriod int `json:"required_per_period"`

	// JudgmentEnabled gates whether value judgments participate in the
	// approval workflow at all.
	JudgmentEnabled bool `json:"judgment_enabled"`

	Templates []JudgmentTemplate `json:"templates"`
}

// TemplateFor resolves the judgment template for a level. Missing templates
// are not an error; the judgment is simply empty.
func (c AchievementConfig) TemplateFor(level PerformanceLevel) (string, bool) {
	for _, t := range c.Templates {
		if t.Level == level {
			return t.Text, true
		}
	}
	return "", false
}

// Enrollment ties a student to a group for one academic year.
type Enrollment struct {
	ID            string `json:"id"`
	InstitutionID string `json:"institution_id"`
	StudentID     string `json:"student_id"`
	GroupID       string `json:"group_id"`
	Year          int    `json:"year"`
}

// AttendanceSummary is the yearly attendance rollup for an enrollment.
// Late counts as present for the promotion ratio.
type AttendanceSummary struct {
	EnrollmentID string `json:"enrollment_id"`
	Year         int    `json:"year"`
	Present      int    `json:"present"`
	Late         int    `json:"late"`
	Absent       int    `json:"absent"`
	TotalDays    int    `json:"total_days"`
}

// Pct returns attendance percent with late days counted as present.
func (a AttendanceSummary) Pct() float64 {
	if a.TotalDays == 0 {
		return 0
	}
	return float64(a.Present+a.Late) / float64(a.TotalDays) * 100
}

// Decision is the promotion outcome for an enrollment's year.
type Decision string

const (
	Promoted    Decision = "PROMOTED"
	NotPromoted Decision = "NOT_PROMOTED"
	// Conditional is reserved for rule sets that define an intermediate
	// state; the current rules never emit it.
	Conditional Decision = "CONDITIONAL"
)

// Rule identifiers recorded in PromotionResult.TriggeringRules.
const (
	RuleMaxFailedAreas = "maxFailedAreas"
	RuleMinAttendance  = "minAttendance"
)

// PromotionResult is the auditable outcome of a promotion evaluation.
type PromotionResult struct {
	EnrollmentID       string   `json:"enrollment_id"`
	Year               int      `json:"year"`
	Decision           Decision `json:"decision"`
	FailedSubjectCount int      `json:"failed_subject_count"`
	AttendancePct      float64  `json:"attendance_pct"`
	TriggeringRules    []string `json:"triggering_rules"`
}

// CompletenessResult reports whether a teacher assignment has registered
// enough achievements for a period. Advisory only: callers decide whether to
// block finalization.
type CompletenessResult struct {
	AssignmentID string `json:"assignment_id"`
	Period       int    `json:"period"`
	IsComplete   bool   `json:"is_complete"`
	CurrentCount int    `json:"current_count"`
	MissingCount int    `json:"missing_count"`
}
