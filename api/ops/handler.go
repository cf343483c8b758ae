package ops

import (
	"encoding/json"
	"net/http"

	"github.com/espressobar/brewsched/core/complaint"
	"github.com/espressobar/brewsched/core/dispatch"
	"github.com/espressobar/brewsched/simulator"
)

// SimulateRequest overrides the configured simulation parameters for one run.
type SimulateRequest struct {
	Trials int              `json:"trials"`
	Config simulator.Config `json:"config"`
}

// NewHandler exposes operational endpoints: aggregate stats, the alert log,
// manual recalculation, complaint listing and on-demand simulation runs.
// Requests must include an Authorization header with "Bearer <token>" when
// token is non-empty.
func NewHandler(mgr *dispatch.Manager, store complaint.Store, simCfg simulator.Config, token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.Stats(r.URL.Query().Get("owner")))
	})
	mux.HandleFunc("GET /api/alerts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.Alerts())
	})
	mux.HandleFunc("DELETE /api/alerts", func(w http.ResponseWriter, r *http.Request) {
		mgr.ClearAlerts()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/recalculate", func(w http.ResponseWriter, r *http.Request) {
		mgr.Recalculate()
		writeJSON(w, mgr.Queue(""))
	})
	mux.HandleFunc("GET /api/complaints", func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, list)
	})
	mux.HandleFunc("POST /api/simulate", func(w http.ResponseWriter, r *http.Request) {
		req := SimulateRequest{Trials: 1, Config: simCfg}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if req.Trials <= 0 {
			req.Trials = 1
		}
		req.Config.SetDefaults()
		results, err := simulator.Run(req.Config, req.Trials)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, results)
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
