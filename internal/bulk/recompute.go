// Package bulk recomputes derived grades institution-wide, typically after
// an administrator edits dimension or period weights. Enrollments are
// independent, so they fan out over a bounded worker pool; within one
// enrollment the levels run bottom-up (activity → dimension → period →
// year) and a keyed lock keeps at most one recompute in flight per
// enrollment.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/grading"
	"github.com/aulalabs/academico/internal/store"
)

const defaultWorkers = 8

// Outcome is one enrollment's result inside a batch report. Failures are
// isolated: one enrollment's error never aborts the rest.
type Outcome struct {
	EnrollmentID string
	Subjects     int // subjects with at least one derived grade written
	Err          error
}

// Report aggregates a whole batch run.
type Report struct {
	InstitutionID string
	Year          int
	Outcomes      []Outcome
}

// Failed returns the outcomes that carried an error.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Recomputer drives grade recomputation against the fact store.
type Recomputer struct {
	Store   store.Store
	Workers int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRecomputer(s store.Store, workers int) *Recomputer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Recomputer{Store: s, Workers: workers, locks: map[string]*sync.Mutex{}}
}

// lockFor hands out the per-enrollment mutex, creating it on first use.
// Global state never serializes two different enrollments.
func (r *Recomputer) lockFor(enrollmentID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[enrollmentID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[enrollmentID] = l
	}
	return l
}

// RecomputeInstitution recomputes every enrollment of an institution's year
// in parallel. The config snapshot is resolved once; a config invariant
// violation blocks the whole institution up front. Cancellation is
// cooperative between enrollment units, never mid-enrollment.
func (r *Recomputer) RecomputeInstitution(ctx context.Context, institutionID string, year int) (Report, error) {
	cfg, err := r.Store.GetGradingConfig(ctx, institutionID)
	if err != nil {
		return Report{}, err
	}
	if err := academic.ValidateGradingConfig(cfg); err != nil {
		return Report{}, err
	}
	enrollments, err := r.Store.ListEnrollments(ctx, institutionID, year)
	if err != nil {
		return Report{}, err
	}

	report := Report{InstitutionID: institutionID, Year: year, Outcomes: make([]Outcome, len(enrollments))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)

	for i, enr := range enrollments {
		i, enr := i, enr
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Outcomes[i] = Outcome{EnrollmentID: enr.ID, Err: err}
				return err
			}
			subjects, err := r.RecomputeEnrollment(gctx, enr, cfg)
			report.Outcomes[i] = Outcome{EnrollmentID: enr.ID, Subjects: subjects, Err: err}
			// Per-enrollment failures stay in the report; only
			// cancellation stops the batch.
			if err != nil && errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// RecomputeEnrollment rebuilds one enrollment's derived grades bottom-up.
// Returns how many subjects received at least one derived grade. Subjects
// with no scored activities at all are simply not yet graded, not errors.
func (r *Recomputer) RecomputeEnrollment(ctx context.Context, enr academic.Enrollment, cfg academic.GradingConfig) (int, error) {
	l := r.lockFor(enr.ID)
	l.Lock()
	defer l.Unlock()

	subjects, err := r.Store.GetSubjectsForGroup(ctx, enr.GroupID)
	if err != nil {
		return 0, fmt.Errorf("enrollment %s: subjects: %w", enr.ID, err)
	}

	written := 0
	for _, subjectID := range subjects {
		wrote, err := r.recomputeSubject(ctx, enr, subjectID, cfg)
		if err != nil {
			return written, err
		}
		if wrote {
			written++
		}
	}
	return written, nil
}

func (r *Recomputer) recomputeSubject(ctx context.Context, enr academic.Enrollment, subjectID string, cfg academic.GradingConfig) (bool, error) {
	var periodGrades []grading.PeriodGradeInput

	for period := 1; period <= cfg.Periods(); period++ {
		scores, err := r.Store.PeriodScores(ctx, enr.ID, subjectID, period)
		if err != nil {
			return false, fmt.Errorf("enrollment %s subject %s period %d: scores: %w", enr.ID, subjectID, period, err)
		}
		grade, err := grading.ComputePeriodSubjectGrade(enr.ID, subjectID, period, scores, cfg)
		if errors.Is(err, academic.ErrInsufficientData) {
			continue // not yet graded, never zero
		}
		if err != nil {
			return false, err
		}

		rec, err := r.Store.GetRecovery(ctx, enr.ID, subjectID, academic.RecoveryTargetPeriod, period)
		if err != nil {
			return false, fmt.Errorf("enrollment %s subject %s period %d: recovery: %w", enr.ID, subjectID, period, err)
		}
		grade = grading.ResolveWithRecovery(grade, rec, cfg)

		level, err := grading.Classify(grade, cfg.Scale)
		if err != nil {
			return false, fmt.Errorf("enrollment %s subject %s period %d: %w", enr.ID, subjectID, period, err)
		}
		if err := r.Store.UpsertPeriodGrade(ctx, academic.PeriodSubjectGrade{
			EnrollmentID: enr.ID, SubjectID: subjectID, Period: period, Grade: grade, Level: level,
		}); err != nil {
			return false, fmt.Errorf("enrollment %s subject %s period %d: persist: %w", enr.ID, subjectID, period, err)
		}
		periodGrades = append(periodGrades, grading.PeriodGradeInput{Period: period, Grade: grade})
	}

	annual, err := grading.ComputeAnnualSubjectGrade(enr.ID, subjectID, periodGrades, cfg)
	if errors.Is(err, academic.ErrInsufficientData) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	rec, err := r.Store.GetRecovery(ctx, enr.ID, subjectID, academic.RecoveryTargetAnnual, 0)
	if err != nil {
		return false, fmt.Errorf("enrollment %s subject %s: annual recovery: %w", enr.ID, subjectID, err)
	}
	annual = grading.ResolveWithRecovery(annual, rec, cfg)

	level, err := grading.Classify(annual, cfg.Scale)
	if err != nil {
		return false, fmt.Errorf("enrollment %s subject %s: %w", enr.ID, subjectID, err)
	}
	if err := r.Store.UpsertAnnualGrade(ctx, academic.AnnualSubjectGrade{
		EnrollmentID: enr.ID, SubjectID: subjectID, Year: enr.Year, Grade: annual, Level: level,
	}); err != nil {
		return false, fmt.Errorf("enrollment %s subject %s: persist annual: %w", enr.ID, subjectID, err)
	}
	return true, nil
}
