package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aulalabs/academico/internal/audit"
	auth "github.com/aulalabs/academico/internal/auth/middleware"
	"github.com/aulalabs/academico/internal/promotion"
)

// DecidePromotionHandler evaluates the promotion rules for one enrollment's
// year against its stored annual grades and attendance summary. Each decision
// lands in the audit log.
func DecidePromotionHandler(e *promotion.Engine, al *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := strconv.Atoi(r.URL.Query().Get("year"))
		if err != nil {
			http.Error(w, "year required", http.StatusBadRequest)
			return
		}
		res, err := e.Decide(r.Context(), chi.URLParam(r, "enrollmentID"), year)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := al.Append(r.Context(), audit.Event{
			Type:  audit.TypePromotionDecided,
			Actor: auth.SubjectFromContext(r.Context()),
			Key:   res.EnrollmentID,
			Data:  res,
		}); err != nil {
			log.Printf("audit append failed: enrollment=%s err=%v", res.EnrollmentID, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}
}
