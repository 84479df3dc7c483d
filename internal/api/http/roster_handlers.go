package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/store"
)

func PutEnrollmentHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e academic.Enrollment
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if e.InstitutionID == "" || e.StudentID == "" || e.GroupID == "" || e.Year == 0 {
			http.Error(w, "institution_id, student_id, group_id and year required", http.StatusBadRequest)
			return
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if err := s.PutEnrollment(r.Context(), e); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(e)
	}
}

func GetEnrollmentHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.GetEnrollment(r.Context(), chi.URLParam(r, "enrollmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(e)
	}
}

func ListEnrollmentsHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, _ := strconv.Atoi(r.URL.Query().Get("year"))
		list, err := s.ListEnrollments(r.Context(), r.URL.Query().Get("institution_id"), year)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func PutGroupSubjectsHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID := chi.URLParam(r, "groupID")
		var req struct {
			SubjectIDs []string `json:"subject_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.PutGroupSubjects(r.Context(), groupID, req.SubjectIDs); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"group_id": groupID, "subject_ids": req.SubjectIDs})
	}
}

func PutAttendanceSummaryHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sum academic.AttendanceSummary
		if err := json.NewDecoder(r.Body).Decode(&sum); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sum.EnrollmentID = chi.URLParam(r, "enrollmentID")
		if sum.Year == 0 || sum.TotalDays == 0 {
			http.Error(w, "year and total_days required", http.StatusBadRequest)
			return
		}
		if err := s.PutAttendanceSummary(r.Context(), sum); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}
