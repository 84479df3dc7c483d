package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aulalabs/academico/internal/achievement"
	api "github.com/aulalabs/academico/internal/api/http"
	"github.com/aulalabs/academico/internal/audit"
	auth "github.com/aulalabs/academico/internal/auth/middleware"
	"github.com/aulalabs/academico/internal/bulk"
	"github.com/aulalabs/academico/internal/config"
	"github.com/aulalabs/academico/internal/db"
	"github.com/aulalabs/academico/internal/promotion"
	"github.com/aulalabs/academico/internal/rbac"
	"github.com/aulalabs/academico/internal/store"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	st := store.NewSQLStore(dbh)
	auditLog := audit.NewLog(dbh)

	// --- Engines ---
	recomputer := bulk.NewRecomputer(st, cfg.BulkWorkers)
	generator := achievement.NewGenerator(st)
	promoter := promotion.NewEngine(st)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Institutional configuration
		pr.With(rbac.Require("config:write")).
			Put("/institutions/{institutionID}/grading-config", api.PutGradingConfigHandler(st))
		pr.With(rbac.Require("config:view")).
			Get("/institutions/{institutionID}/grading-config", api.GetGradingConfigHandler(st))
		pr.With(rbac.Require("config:write")).
			Put("/institutions/{institutionID}/achievement-config", api.PutAchievementConfigHandler(st))
		pr.With(rbac.Require("config:view")).
			Get("/institutions/{institutionID}/achievement-config", api.GetAchievementConfigHandler(st))

		// Roster
		pr.With(rbac.Require("config:write")).
			Post("/enrollments", api.PutEnrollmentHandler(st))
		pr.With(rbac.RequireAny("grade:view", "grade:view-own")).
			Get("/enrollments/{enrollmentID}", api.GetEnrollmentHandler(st))
		pr.With(rbac.Require("grade:view")).
			Get("/enrollments", api.ListEnrollmentsHandler(st))
		pr.With(rbac.Require("config:write")).
			Put("/groups/{groupID}/subjects", api.PutGroupSubjectsHandler(st))
		pr.With(rbac.Require("score:write")).
			Put("/enrollments/{enrollmentID}/attendance", api.PutAttendanceSummaryHandler(st))

		// Activities, scores and recoveries
		pr.With(rbac.Require("score:write")).
			Post("/activities", api.PutActivityHandler(st))
		pr.With(rbac.Require("score:write")).
			Put("/scores", api.PutScoreHandler(st))
		pr.With(rbac.Require("recovery:write")).
			Post("/recoveries", api.PutRecoveryHandler(st))

		// Derived grades
		pr.With(rbac.RequireAny("grade:view", "grade:view-own")).
			Get("/enrollments/{enrollmentID}/subjects/{subjectID}/grades", api.ListPeriodGradesHandler(st))
		pr.With(rbac.RequireAny("grade:view", "grade:view-own")).
			Get("/enrollments/{enrollmentID}/subjects/{subjectID}/grades/{period}", api.GetPeriodGradeHandler(st))
		pr.With(rbac.RequireAny("grade:view", "grade:view-own")).
			Get("/enrollments/{enrollmentID}/grades/annual", api.ListAnnualGradesHandler(st))
		pr.With(rbac.Require("grade:compute")).
			Post("/classify", api.ClassifyHandler(st))
		pr.With(rbac.Require("grade:compute")).
			Post("/enrollments/{enrollmentID}/recompute", api.RecomputeEnrollmentHandler(st, recomputer))
		pr.With(rbac.Require("recompute:run")).
			Post("/recompute", api.RecomputeInstitutionHandler(recomputer, auditLog))

		// Achievements and the suggest→approve workflow
		pr.With(rbac.Require("achievement:create")).
			Post("/achievements", api.PutAchievementHandler(st))
		pr.With(rbac.Require("achievement:view")).
			Get("/achievements", api.ListAchievementsHandler(st))
		pr.With(rbac.Require("suggestion:generate")).
			Post("/achievements/{achievementID}/suggestions", api.GenerateSuggestionsHandler(generator))
		pr.With(rbac.Require("achievement:view")).
			Get("/student-achievements/{studentAchievementID}", api.GetStudentAchievementHandler(st))
		pr.With(rbac.Require("suggestion:approve")).
			Post("/student-achievements/{studentAchievementID}/approve", api.ApproveHandler(generator, auditLog))
		pr.With(rbac.Require("completeness:check")).
			Get("/assignments/{assignmentID}/completeness", api.CompletenessHandler(st))

		// Promotion
		pr.With(rbac.RequireAny("promotion:decide", "promotion:view-own")).
			Post("/enrollments/{enrollmentID}/promotion", api.DecidePromotionHandler(promoter, auditLog))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
