package ops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/espressobar/brewsched/core/complaint"
	"github.com/espressobar/brewsched/core/dispatch"
	"github.com/espressobar/brewsched/infra/logger"
	"github.com/espressobar/brewsched/simulator"
)

func newTestHandler(t *testing.T) (http.Handler, *dispatch.Manager) {
	t.Helper()
	store := complaint.NewMemoryStore()
	mgr, err := dispatch.NewManager(dispatch.Config{}, store, nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewHandler(mgr, store, simulator.Config{}, ""), mgr
}

func TestStatsEndpoint(t *testing.T) {
	h, mgr := newTestHandler(t)
	mgr.Submit("Latte", 4, 2, false, "")

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out dispatch.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.BaristaWorkloads) != 3 {
		t.Fatalf("expected 3 workload entries, got %d", len(out.BaristaWorkloads))
	}
}

func TestAlertsLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/alerts", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}

	req = httptest.NewRequest("DELETE", "/api/alerts", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}
}

func TestRecalculateReturnsQueue(t *testing.T) {
	h, mgr := newTestHandler(t)
	for i := 0; i < 4; i++ {
		mgr.Submit("Mocha", 6, 1, false, "")
	}
	req := httptest.NewRequest("POST", "/api/recalculate", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 pending order after pool fill, got %d", len(out))
	}
}

func TestSimulateEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	body := `{"trials":2,"config":{"horizon_minutes":30,"seed":7}}`
	req := httptest.NewRequest("POST", "/api/simulate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out []simulator.TrialResult
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 trial results, got %d", len(out))
	}
}

func TestSimulateRejectsBadConfig(t *testing.T) {
	h, _ := newTestHandler(t)
	body := `{"trials":1,"config":{"horizon_minutes":-5}}`
	req := httptest.NewRequest("POST", "/api/simulate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestComplaintsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest("GET", "/api/complaints", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
}
