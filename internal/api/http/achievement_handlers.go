package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/achievement"
	"github.com/aulalabs/academico/internal/audit"
	auth "github.com/aulalabs/academico/internal/auth/middleware"
	"github.com/aulalabs/academico/internal/store"
)

func PutAchievementHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a academic.Achievement
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if a.AssignmentID == "" || a.Description == "" {
			http.Error(w, "assignment_id and description required", http.StatusBadRequest)
			return
		}
		if !a.IsPromotional && a.Period == 0 {
			http.Error(w, "period required for non-promotional achievements", http.StatusBadRequest)
			return
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if err := s.PutAchievement(r.Context(), a); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

func ListAchievementsHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, _ := strconv.Atoi(r.URL.Query().Get("period"))
		list, err := s.ListAchievements(r.Context(), r.URL.Query().Get("assignment_id"), period)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

type suggestionOutcome struct {
	EnrollmentID string                    `json:"enrollment_id"`
	Level        academic.PerformanceLevel `json:"level,omitempty"`
	Locked       bool                      `json:"locked"`
	Error        string                    `json:"error,omitempty"`
}

// GenerateSuggestionsHandler runs one achievement's suggest phase over a
// batch of student grades. Per-student errors and approval locks are
// reported inline, never escalated to a request failure.
func GenerateSuggestionsHandler(g *achievement.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		achievementID := chi.URLParam(r, "achievementID")
		var req struct {
			InstitutionID string `json:"institution_id"`
			Grades        []struct {
				EnrollmentID string  `json:"enrollment_id"`
				Grade        float64 `json:"grade"`
			} `json:"grades"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.InstitutionID == "" || len(req.Grades) == 0 {
			http.Error(w, "institution_id and grades required", http.StatusBadRequest)
			return
		}
		grades := make([]achievement.StudentGrade, 0, len(req.Grades))
		for _, sg := range req.Grades {
			grades = append(grades, achievement.StudentGrade{EnrollmentID: sg.EnrollmentID, Grade: sg.Grade})
		}
		outcomes, err := g.BulkGenerate(r.Context(), achievementID, req.InstitutionID, grades)
		if err != nil {
			writeErr(w, err)
			return
		}
		out := make([]suggestionOutcome, 0, len(outcomes))
		for _, o := range outcomes {
			so := suggestionOutcome{EnrollmentID: o.EnrollmentID, Level: o.Level, Locked: o.Locked}
			if o.Err != nil {
				so.Error = o.Err.Error()
			}
			out = append(out, so)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func GetStudentAchievementHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sa, err := s.GetStudentAchievement(r.Context(), chi.URLParam(r, "studentAchievementID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sa)
	}
}

// ApproveHandler locks one or both suggestion fields. The approver is the
// authenticated subject; the action lands in the audit log.
func ApproveHandler(g *achievement.Generator, al *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "studentAchievementID")
		var req struct {
			ApprovedText     string `json:"approved_text"`
			ApprovedJudgment string `json:"approved_judgment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		approver := auth.SubjectFromContext(r.Context())
		sa, err := g.Approve(r.Context(), id, store.ApproveInput{
			ApprovedText:     req.ApprovedText,
			ApprovedJudgment: req.ApprovedJudgment,
			ApprovedBy:       approver,
			At:               time.Now(),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := al.Append(r.Context(), audit.Event{
			Type:  audit.TypeApprovalGranted,
			Actor: approver,
			Key:   sa.ID,
			Data:  sa,
		}); err != nil {
			log.Printf("audit append failed: student_achievement=%s err=%v", sa.ID, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sa)
	}
}

// CompletenessHandler reports whether a teacher assignment has registered
// the required number of achievements for a period.
func CompletenessHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID := chi.URLParam(r, "assignmentID")
		period, err := strconv.Atoi(r.URL.Query().Get("period"))
		if err != nil || period < 1 {
			http.Error(w, "period required", http.StatusBadRequest)
			return
		}
		institutionID := r.URL.Query().Get("institution_id")
		cfg, err := s.GetAchievementConfig(r.Context(), institutionID)
		if err != nil {
			writeErr(w, err)
			return
		}
		res, err := achievement.ValidateCompleteness(r.Context(), s, assignmentID, period, cfg.RequiredPerPeriod)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}
}
