package orders

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/espressobar/brewsched/core/dispatch"
)

// SubmitRequest is the POST body for a new order.
type SubmitRequest struct {
	Drink           string `json:"drink"`
	PrepMinutes     int    `json:"prep_minutes"`
	LoyaltyTier     int    `json:"loyalty_tier"`
	RegularCustomer bool   `json:"regular_customer"`
	Owner           string `json:"owner"`
}

// NewHandler exposes order submission and lookup under /api/orders.
// Requests must include an Authorization header with "Bearer <token>" when
// token is non-empty.
func NewHandler(mgr *dispatch.Manager, token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Drink == "" {
			http.Error(w, "drink is required", http.StatusBadRequest)
			return
		}
		o := mgr.Submit(req.Drink, req.PrepMinutes, req.LoyaltyTier, req.RegularCustomer, req.Owner)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(o); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.Queue(r.URL.Query().Get("owner")))
	})
	mux.HandleFunc("GET /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}
		o, ok := mgr.Get(id)
		if !ok {
			http.Error(w, "order not found", http.StatusNotFound)
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
