package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aulalabs/academico/internal/academic"
	api "github.com/aulalabs/academico/internal/api/http"
	"github.com/aulalabs/academico/internal/bulk"
	"github.com/aulalabs/academico/internal/promotion"
	"github.com/aulalabs/academico/internal/store"
)

func testConfig() academic.GradingConfig {
	return academic.GradingConfig{
		InstitutionID: "inst-1",
		Scale: []academic.ScaleEntry{
			{Level: academic.LevelBajo, MinScore: 1.0, MaxScore: 2.9},
			{Level: academic.LevelBasico, MinScore: 3.0, MaxScore: 3.9},
			{Level: academic.LevelAlto, MinScore: 4.0, MaxScore: 4.5},
			{Level: academic.LevelSuperior, MinScore: 4.6, MaxScore: 5.0},
		},
		DimensionWeights: map[string]float64{"cognitive": 60, "procedural": 40},
		PeriodMode:       academic.PeriodWeightedDimensions,
		AnnualMode:       academic.AnnualWeightedPeriods,
		PeriodWeights:    []float64{50, 50},
		DecimalPrecision: 2,
		MinScore:         1.0,
		MaxScore:         5.0,
		MinPassingScore:  3.0,
		MaxFailedAreas:   2,
		MinAttendancePct: 75,
	}
}

func newRouter(st store.Store) chi.Router {
	rc := bulk.NewRecomputer(st, 2)
	pe := promotion.NewEngine(st)

	r := chi.NewRouter()
	r.Put("/institutions/{institutionID}/grading-config", api.PutGradingConfigHandler(st))
	r.Get("/institutions/{institutionID}/grading-config", api.GetGradingConfigHandler(st))
	r.Post("/activities", api.PutActivityHandler(st))
	r.Put("/scores", api.PutScoreHandler(st))
	r.Post("/recoveries", api.PutRecoveryHandler(st))
	r.Post("/classify", api.ClassifyHandler(st))
	r.Post("/enrollments/{enrollmentID}/recompute", api.RecomputeEnrollmentHandler(st, rc))
	r.Get("/enrollments/{enrollmentID}/subjects/{subjectID}/grades", api.ListPeriodGradesHandler(st))
	r.Get("/enrollments/{enrollmentID}/grades/annual", api.ListAnnualGradesHandler(st))
	r.Post("/enrollments/{enrollmentID}/promotion", api.DecidePromotionHandler(pe, nil))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPutGradingConfigRejectsBadWeights(t *testing.T) {
	st := store.NewInMemory()
	r := newRouter(st)

	cfg := testConfig()
	cfg.DimensionWeights = map[string]float64{"cognitive": 60, "procedural": 30}
	rec := doJSON(t, r, http.MethodPut, "/institutions/inst-1/grading-config", cfg)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPut, "/institutions/inst-1/grading-config", testConfig())
	if rec.Code != http.StatusOK {
		t.Fatalf("valid config rejected: %d: %s", rec.Code, rec.Body.String())
	}
}

func TestClassifyEndpoint(t *testing.T) {
	st := store.NewInMemory()
	r := newRouter(st)
	if err := st.PutGradingConfig(context.Background(), testConfig()); err != nil {
		t.Fatalf("config: %v", err)
	}

	rec := doJSON(t, r, http.MethodPost, "/classify", map[string]interface{}{
		"institution_id": "inst-1", "score": 4.6,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("classify: %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Level academic.PerformanceLevel `json:"level"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Level != academic.LevelSuperior {
		t.Fatalf("want SUPERIOR, got %s", resp.Level)
	}

	rec = doJSON(t, r, http.MethodPost, "/classify", map[string]interface{}{
		"institution_id": "inst-1", "score": 5.5,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("out of range should be 422, got %d", rec.Code)
	}
}

func TestRecoveryOutsideWindowRejected(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory()
	r := newRouter(st)

	cfg := testConfig()
	cfg.IncludeRecovery = true
	cfg.MaxRecoveryScore = 3.5
	cfg.RecoveryPeriods = []academic.RecoveryPeriodConfig{
		{Period: 1, Opens: time.Now().Add(-48 * time.Hour), Closes: time.Now().Add(-24 * time.Hour)},
	}
	if err := st.PutGradingConfig(ctx, cfg); err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := st.PutEnrollment(ctx, academic.Enrollment{ID: "e1", InstitutionID: "inst-1", StudentID: "s1", GroupID: "g1", Year: 2026}); err != nil {
		t.Fatalf("enrollment: %v", err)
	}

	rec := doJSON(t, r, http.MethodPost, "/recoveries", map[string]interface{}{
		"enrollment_id": "e1", "subject_id": "math", "target": "period", "period": 1, "score": 4.0,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("closed window should be 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// a period with no configured window accepts nothing either
	rec = doJSON(t, r, http.MethodPost, "/recoveries", map[string]interface{}{
		"enrollment_id": "e1", "subject_id": "math", "target": "period", "period": 2, "score": 4.0,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("unconfigured window should be 409, got %d", rec.Code)
	}
}

func TestRecomputeThenReadGrades(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory()
	r := newRouter(st)

	if err := st.PutGradingConfig(ctx, testConfig()); err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := st.PutGroupSubjects(ctx, "g1", []string{"math"}); err != nil {
		t.Fatalf("subjects: %v", err)
	}
	if err := st.PutEnrollment(ctx, academic.Enrollment{ID: "e1", InstitutionID: "inst-1", StudentID: "s1", GroupID: "g1", Year: 2026}); err != nil {
		t.Fatalf("enrollment: %v", err)
	}

	acts := []academic.Activity{
		{ID: "a1", AssignmentID: "asg-1", SubjectID: "math", DimensionID: "cognitive", Period: 1, Name: "quiz 1"},
		{ID: "a2", AssignmentID: "asg-1", SubjectID: "math", DimensionID: "procedural", Period: 1, Name: "taller 1"},
		{ID: "a3", AssignmentID: "asg-1", SubjectID: "math", DimensionID: "cognitive", Period: 2, Name: "quiz 2"},
	}
	for _, a := range acts {
		rec := doJSON(t, r, http.MethodPost, "/activities", a)
		if rec.Code != http.StatusOK {
			t.Fatalf("activity %s: %d", a.ID, rec.Code)
		}
	}
	for aid, v := range map[string]float64{"a1": 4.0, "a2": 3.0, "a3": 4.5} {
		rec := doJSON(t, r, http.MethodPut, "/scores", map[string]interface{}{
			"enrollment_id": "e1", "activity_id": aid, "score": v,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("score %s: %d: %s", aid, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, r, http.MethodPost, "/enrollments/e1/recompute", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recompute: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/enrollments/e1/subjects/math/grades", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list grades: %d", rec.Code)
	}
	var grades []academic.PeriodSubjectGrade
	if err := json.Unmarshal(rec.Body.Bytes(), &grades); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("want 2 period grades, got %d", len(grades))
	}
	if grades[0].Grade != 3.6 || grades[0].Level != academic.LevelBasico {
		t.Fatalf("period 1: %+v", grades[0])
	}
	if grades[1].Grade != 4.5 || grades[1].Level != academic.LevelAlto {
		t.Fatalf("period 2: %+v", grades[1])
	}

	rec = doJSON(t, r, http.MethodGet, "/enrollments/e1/grades/annual?year=2026", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("annual: %d", rec.Code)
	}
	var annual []academic.AnnualSubjectGrade
	if err := json.Unmarshal(rec.Body.Bytes(), &annual); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(annual) != 1 || annual[0].Grade != 4.05 || annual[0].Level != academic.LevelAlto {
		t.Fatalf("annual: %+v", annual)
	}
}

func TestPromotionEndpoint(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory()
	r := newRouter(st)

	if err := st.PutGradingConfig(ctx, testConfig()); err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := st.PutEnrollment(ctx, academic.Enrollment{ID: "e1", InstitutionID: "inst-1", StudentID: "s1", GroupID: "g1", Year: 2026}); err != nil {
		t.Fatalf("enrollment: %v", err)
	}
	for i, g := range []float64{2.5, 2.8, 4.0} {
		if err := st.UpsertAnnualGrade(ctx, academic.AnnualSubjectGrade{
			EnrollmentID: "e1", SubjectID: fmt.Sprintf("subj-%d", i), Year: 2026, Grade: g, Level: academic.LevelBajo,
		}); err != nil {
			t.Fatalf("annual grade: %v", err)
		}
	}
	if err := st.PutAttendanceSummary(ctx, academic.AttendanceSummary{
		EnrollmentID: "e1", Year: 2026, Present: 85, Late: 5, Absent: 10, TotalDays: 100,
	}); err != nil {
		t.Fatalf("attendance: %v", err)
	}

	rec := doJSON(t, r, http.MethodPost, "/enrollments/e1/promotion?year=2026", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("promotion: %d: %s", rec.Code, rec.Body.String())
	}
	var res academic.PromotionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Decision != academic.Promoted {
		t.Fatalf("two failed areas at the limit should promote: %+v", res)
	}
	if res.FailedSubjectCount != 2 || res.AttendancePct != 90 {
		t.Fatalf("counters: %+v", res)
	}
}
