package baristas

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/espressobar/brewsched/core/complaint"
	"github.com/espressobar/brewsched/core/dispatch"
	"github.com/espressobar/brewsched/core/model"
	"github.com/espressobar/brewsched/infra/logger"
)

func newTestManager(t *testing.T) *dispatch.Manager {
	t.Helper()
	mgr, err := dispatch.NewManager(dispatch.Config{}, complaint.NewMemoryStore(), nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr
}

func TestListBaristas(t *testing.T) {
	h := NewHandler(newTestManager(t), "")
	req := httptest.NewRequest("GET", "/api/baristas", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []dispatch.BaristaView
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected default pool of 3, got %d", len(out))
	}
	if out[0].Name != "Alice" {
		t.Fatalf("expected Alice first, got %s", out[0].Name)
	}
}

func TestManualComplete(t *testing.T) {
	mgr := newTestManager(t)
	mgr.Submit("Latte", 4, 2, false, "")

	h := NewHandler(mgr, "")
	req := httptest.NewRequest("POST", "/api/baristas/1/complete", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var o model.Order
	if err := json.Unmarshal(rr.Body.Bytes(), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Status != model.StatusCompleted {
		t.Fatalf("expected completed order, got %s", o.Status)
	}

	// Idle barista has nothing to complete.
	req = httptest.NewRequest("POST", "/api/baristas/2/complete", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestBaristaStatsEndpoint(t *testing.T) {
	mgr := newTestManager(t)
	h := NewHandler(mgr, "")
	req := httptest.NewRequest("GET", "/api/baristas/stats", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []dispatch.BaristaStats
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
}
