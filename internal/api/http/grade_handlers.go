package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aulalabs/academico/internal/audit"
	auth "github.com/aulalabs/academico/internal/auth/middleware"
	"github.com/aulalabs/academico/internal/bulk"
	"github.com/aulalabs/academico/internal/grading"
	"github.com/aulalabs/academico/internal/store"
)

func ListPeriodGradesHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enrollmentID := chi.URLParam(r, "enrollmentID")
		subjectID := chi.URLParam(r, "subjectID")
		grades, err := s.ListPeriodGrades(r.Context(), enrollmentID, subjectID)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(grades)
	}
}

func GetPeriodGradeHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := strconv.Atoi(chi.URLParam(r, "period"))
		if err != nil || period < 1 {
			http.Error(w, "bad period", http.StatusBadRequest)
			return
		}
		g, err := s.GetPeriodGrade(r.Context(), chi.URLParam(r, "enrollmentID"), chi.URLParam(r, "subjectID"), period)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(g)
	}
}

func ListAnnualGradesHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := strconv.Atoi(r.URL.Query().Get("year"))
		if err != nil {
			http.Error(w, "year required", http.StatusBadRequest)
			return
		}
		grades, err := s.ListAnnualGrades(r.Context(), chi.URLParam(r, "enrollmentID"), year)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(grades)
	}
}

// ClassifyHandler maps a numeric score onto an institution's active scale.
func ClassifyHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			InstitutionID string  `json:"institution_id"`
			Score         float64 `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		cfg, err := s.GetGradingConfig(r.Context(), req.InstitutionID)
		if err != nil {
			writeErr(w, err)
			return
		}
		level, err := grading.Classify(req.Score, cfg.Scale)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"score": req.Score, "level": level})
	}
}

type recomputeOutcome struct {
	EnrollmentID string `json:"enrollment_id"`
	Subjects     int    `json:"subjects"`
	Error        string `json:"error,omitempty"`
}

type recomputeReport struct {
	InstitutionID string             `json:"institution_id"`
	Year          int                `json:"year"`
	Outcomes      []recomputeOutcome `json:"outcomes"`
}

func toReport(rep bulk.Report) recomputeReport {
	out := recomputeReport{InstitutionID: rep.InstitutionID, Year: rep.Year}
	for _, o := range rep.Outcomes {
		ro := recomputeOutcome{EnrollmentID: o.EnrollmentID, Subjects: o.Subjects}
		if o.Err != nil {
			ro.Error = o.Err.Error()
		}
		out.Outcomes = append(out.Outcomes, ro)
	}
	return out
}

// RecomputeInstitutionHandler rebuilds every derived grade for one
// institution's year. Per-enrollment failures come back in the report body;
// only configuration faults or cancellation fail the request.
func RecomputeInstitutionHandler(rc *bulk.Recomputer, al *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			InstitutionID string `json:"institution_id"`
			Year          int    `json:"year"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.InstitutionID == "" || req.Year == 0 {
			http.Error(w, "institution_id and year required", http.StatusBadRequest)
			return
		}
		rep, err := rc.RecomputeInstitution(r.Context(), req.InstitutionID, req.Year)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := al.Append(r.Context(), audit.Event{
			Type:  audit.TypeRecomputeRun,
			Actor: auth.SubjectFromContext(r.Context()),
			Key:   req.InstitutionID,
			Data:  map[string]int{"year": req.Year, "enrollments": len(rep.Outcomes), "failed": len(rep.Failed())},
		}); err != nil {
			log.Printf("audit append failed: institution=%s err=%v", req.InstitutionID, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toReport(rep))
	}
}

// RecomputeEnrollmentHandler rebuilds one enrollment's derived grades.
func RecomputeEnrollmentHandler(s store.Store, rc *bulk.Recomputer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enr, err := s.GetEnrollment(r.Context(), chi.URLParam(r, "enrollmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		cfg, err := s.GetGradingConfig(r.Context(), enr.InstitutionID)
		if err != nil {
			writeErr(w, err)
			return
		}
		subjects, err := rc.RecomputeEnrollment(r.Context(), enr, cfg)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"enrollment_id": enr.ID, "subjects": subjects})
	}
}
