package baristas

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/espressobar/brewsched/core/dispatch"
)

// NewHandler exposes the barista pool under /api/baristas: the pool snapshot,
// per-barista stats, and manual completion of a barista's current order.
// Requests must include an Authorization header with "Bearer <token>" when
// token is non-empty.
func NewHandler(mgr *dispatch.Manager, token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/baristas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.Baristas())
	})
	mux.HandleFunc("GET /api/baristas/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.BaristaStats())
	})
	mux.HandleFunc("POST /api/baristas/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid barista id", http.StatusBadRequest)
			return
		}
		o, ok := mgr.Complete(id)
		if !ok {
			http.Error(w, "no order in progress for barista", http.StatusNotFound)
			return
		}
		writeJSON(w, o)
	})
	return withAuth(mux, token)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func withAuth(next http.Handler, token string) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
