package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/grading"
	"github.com/aulalabs/academico/internal/store"
)

func PutActivityHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a academic.Activity
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if a.AssignmentID == "" || a.SubjectID == "" || a.DimensionID == "" || a.Period == 0 {
			http.Error(w, "assignment_id, subject_id, dimension_id and period required", http.StatusBadRequest)
			return
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if err := s.PutActivity(r.Context(), a); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

// PutScoreHandler records one student's score on one activity. A null score
// marks the activity ungraded for that student.
func PutScoreHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sc academic.StudentActivityScore
		if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if sc.EnrollmentID == "" || sc.ActivityID == "" {
			http.Error(w, "enrollment_id and activity_id required", http.StatusBadRequest)
			return
		}
		if err := s.PutScore(r.Context(), sc); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sc)
	}
}

// PutRecoveryHandler accepts a remedial score. The configured window for the
// targeted period is enforced before the record is stored; a closed window
// rejects the submission and leaves the original grade standing.
func PutRecoveryHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec academic.RecoveryRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if rec.EnrollmentID == "" || rec.SubjectID == "" {
			http.Error(w, "enrollment_id and subject_id required", http.StatusBadRequest)
			return
		}
		if rec.Target != academic.RecoveryTargetPeriod && rec.Target != academic.RecoveryTargetAnnual {
			http.Error(w, "target must be period or annual", http.StatusBadRequest)
			return
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.SubmittedAt.IsZero() {
			rec.SubmittedAt = time.Now()
		}

		enr, err := s.GetEnrollment(r.Context(), rec.EnrollmentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		cfg, err := s.GetGradingConfig(r.Context(), enr.InstitutionID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := grading.CheckRecoveryWindow(rec, cfg, time.Now()); err != nil {
			writeErr(w, err)
			return
		}
		if err := s.PutRecovery(r.Context(), rec); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rec)
	}
}
