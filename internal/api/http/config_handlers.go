package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aulalabs/academico/internal/academic"
	"github.com/aulalabs/academico/internal/store"
)

func PutGradingConfigHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg academic.GradingConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if cfg.InstitutionID == "" {
			http.Error(w, "institution_id required", http.StatusBadRequest)
			return
		}
		if err := s.PutGradingConfig(r.Context(), cfg); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "institution_id": cfg.InstitutionID})
	}
}

func GetGradingConfigHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.GetGradingConfig(r.Context(), chi.URLParam(r, "institutionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cfg)
	}
}

func PutAchievementConfigHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg academic.AchievementConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if cfg.InstitutionID == "" {
			http.Error(w, "institution_id required", http.StatusBadRequest)
			return
		}
		if err := s.PutAchievementConfig(r.Context(), cfg); err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "institution_id": cfg.InstitutionID})
	}
}

func GetAchievementConfigHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.GetAchievementConfig(r.Context(), chi.URLParam(r, "institutionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cfg)
	}
}
