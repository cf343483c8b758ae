package dispatch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/espressobar/brewsched/core/complaint"
	"github.com/espressobar/brewsched/core/model"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// fakeClock lets tests move dispatcher time forward deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T) (*Manager, *fakeClock, *complaint.MemoryStore) {
	t.Helper()
	store := complaint.NewMemoryStore()
	m, err := NewManager(Config{}, store, nil, nil, nopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	clock := newFakeClock()
	m.now = clock.Now
	return m, clock, store
}

func TestSubmitEmptyPoolGoesInProgress(t *testing.T) {
	m, _, _ := newTestManager(t)
	o := m.Submit("Latte", 4, 3, true, "")
	if o.Status != model.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS with idle pool, got %s", o.Status)
	}
	if !strings.Contains(o.PriorityExplanation, "Loyalty: 80.0") {
		t.Fatalf("expected loyalty 80: %s", o.PriorityExplanation)
	}
	if o.Priority >= 100 {
		t.Fatalf("fresh order should not saturate priority: %.1f", o.Priority)
	}
	if o.AssignedBaristaID == 0 {
		t.Fatal("expected a barista assignment")
	}
}

func TestSubmitFillsPoolThenQueues(t *testing.T) {
	m, _, _ := newTestManager(t)
	// Three baristas: first three orders start immediately.
	for i := 0; i < 3; i++ {
		o := m.Submit("Latte", 4, 1, false, "")
		if o.Status != model.StatusInProgress {
			t.Fatalf("order %d: expected IN_PROGRESS got %s", i, o.Status)
		}
	}
	o := m.Submit("Latte", 4, 1, false, "")
	if o.Status != model.StatusQueued {
		t.Fatalf("expected QUEUED with busy pool, got %s", o.Status)
	}
	if len(m.Queue("")) != 1 {
		t.Fatalf("expected 1 pending order, got %d", len(m.Queue("")))
	}
}

func TestQueueSortedByPriorityTiesByArrival(t *testing.T) {
	m, clock, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		m.Submit("Latte", 4, 1, false, "")
	}
	first := m.Submit("Mocha", 6, 1, false, "")
	second := m.Submit("Mocha", 6, 1, false, "")
	vip := m.Submit("Espresso", 2, 5, true, "")

	clock.Advance(30 * time.Second)
	m.Recalculate()

	q := m.Queue("")
	if len(q) != 3 {
		t.Fatalf("expected 3 queued, got %d", len(q))
	}
	if q[0].ID != vip.ID {
		t.Fatalf("expected VIP first, got #%d", q[0].ID)
	}
	if q[1].ID != first.ID || q[2].ID != second.ID {
		t.Fatalf("equal-priority orders must keep arrival order: %d then %d", q[1].ID, q[2].ID)
	}
}

func TestSkipCountsIncrementOnBypass(t *testing.T) {
	m, clock, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		m.Submit("Mocha", 8, 1, false, "")
	}
	slow := m.Submit("Mocha", 8, 1, false, "")
	clock.Advance(time.Second)
	quick := m.Submit("Espresso", 2, 5, true, "")

	// Free one barista; its targeted assignment must pick the
	// higher-priority newcomer and skip the earlier order.
	if _, ok := m.Complete(1); !ok {
		t.Fatal("manual completion failed")
	}
	got, _ := m.Get(quick.ID)
	if got.Status == model.StatusQueued {
		t.Fatal("expected quick order assigned")
	}
	skipped, _ := m.Get(slow.ID)
	if skipped.Status != model.StatusQueued {
		t.Fatal("expected earlier order still queued")
	}
	if skipped.SkipCount != 1 {
		t.Fatalf("expected skip count 1, got %d", skipped.SkipCount)
	}
}

func TestFairnessAlertOnThresholdCross(t *testing.T) {
	m, clock, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		m.Submit("Mocha", 8, 1, false, "")
	}
	slow := m.Submit("Mocha", 8, 1, false, "")
	for i := 0; i < 4; i++ {
		clock.Advance(time.Second)
		m.Submit("Espresso", 2, 5, true, "")
		if _, ok := m.Complete(int64(i%3 + 1)); !ok {
			t.Fatalf("completion %d failed", i)
		}
	}
	got, _ := m.Get(slow.ID)
	if got.SkipCount < 4 {
		t.Fatalf("expected at least 4 skips, got %d", got.SkipCount)
	}
	found := false
	for _, a := range m.Alerts() {
		if strings.HasPrefix(a, "FAIRNESS:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fairness alert, got %v", m.Alerts())
	}
}

func TestRecalculateForceAssignsCritical(t *testing.T) {
	m, clock, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		m.Submit("Mocha", 8, 1, false, "")
	}
	stuck := m.Submit("Latte", 4, 1, false, "")
	clock.Advance(9 * time.Minute)
	m.Recalculate()

	got, _ := m.Get(stuck.ID)
	if got.Status == model.StatusQueued {
		t.Fatal("expected critical order force-assigned")
	}
	critical := false
	for _, a := range m.Alerts() {
		if strings.HasPrefix(a, "CRITICAL:") {
			critical = true
		}
	}
	if !critical {
		t.Fatalf("expected critical alert, got %v", m.Alerts())
	}
}

func TestRecalculateWarnsEmergency(t *testing.T) {
	m, clock, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		m.Submit("Mocha", 8, 1, false, "")
	}
	waiting := m.Submit("Latte", 4, 1, false, "")
	clock.Advance(8*time.Minute + 10*time.Second)
	m.Recalculate()

	got, _ := m.Get(waiting.ID)
	if got.Status != model.StatusQueued {
		t.Fatal("warning threshold must not reassign")
	}
	warned := false
	for _, a := range m.Alerts() {
		if strings.HasPrefix(a, "WARNING:") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected warning alert, got %v", m.Alerts())
	}
}

func TestCompletionTickCompletesAndReassigns(t *testing.T) {
	m, clock, _ := newTestManager(t)
	first := m.Submit("Espresso", 2, 1, false, "")
	for i := 0; i < 2; i++ {
		m.Submit("Mocha", 8, 1, false, "")
	}
	queued := m.Submit("Latte", 4, 1, false, "")

	clock.Advance(2 * time.Minute)
	m.CompletionTick()

	done, _ := m.Get(first.ID)
	if done.Status != model.StatusCompleted {
		t.Fatalf("expected first order completed, got %s", done.Status)
	}
	next, _ := m.Get(queued.ID)
	if next.Status != model.StatusInProgress {
		t.Fatalf("freed barista should pull next order, got %s", next.Status)
	}
}

func TestAutoComplaintOnceOnly(t *testing.T) {
	m, clock, store := newTestManager(t)
	for i := 0; i < 3; i++ {
		m.Submit("Mocha", 8, 1, false, "")
	}
	stuck := m.Submit("Latte", 4, 1, false, "alice")
	// Higher-priority espressos keep the stuck order pending when the
	// mochas finish.
	for i := 0; i < 3; i++ {
		m.Submit("Espresso", 2, 5, true, "")
	}
	clock.Advance(10 * time.Minute)
	m.CompletionTick()
	m.CompletionTick()
	m.CompletionTick()

	got, _ := m.Get(stuck.ID)
	if !got.AutoComplaintRaised {
		t.Fatal("expected one-shot flag set")
	}
	recs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	count := 0
	for _, c := range recs {
		if strings.Contains(c.Message, "Order #4") {
			count++
			if c.Customer != "alice" {
				t.Fatalf("expected owner alice, got %s", c.Customer)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one complaint, got %d", count)
	}
}

func TestComplaintStoreFailureDoesNotResetFlag(t *testing.T) {
	store := &failingStore{}
	m, err := NewManager(Config{}, store, nil, nil, nopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	clock := newFakeClock()
	m.now = clock.Now
	for i := 0; i < 3; i++ {
		m.Submit("Mocha", 8, 1, false, "")
	}
	stuck := m.Submit("Latte", 4, 1, false, "")
	for i := 0; i < 3; i++ {
		m.Submit("Espresso", 2, 5, true, "")
	}
	clock.Advance(10 * time.Minute)
	m.CompletionTick()
	m.CompletionTick()

	got, _ := m.Get(stuck.ID)
	if !got.AutoComplaintRaised {
		t.Fatal("flag must stay set even when the store fails")
	}
	if store.calls != 1 {
		t.Fatalf("store must not be retried: %d calls", store.calls)
	}
}

type failingStore struct{ calls int }

func (s *failingStore) Record(context.Context, complaint.Complaint) error {
	s.calls++
	return context.DeadlineExceeded
}
func (s *failingStore) List(context.Context) ([]complaint.Complaint, error) { return nil, nil }
func (s *failingStore) Close() error                                       { return nil }

func TestForwardOnlyTransitions(t *testing.T) {
	m, clock, _ := newTestManager(t)
	o := m.Submit("Espresso", 2, 1, false, "")
	seen := []model.Status{o.Status}
	for i := 0; i < 5; i++ {
		clock.Advance(time.Minute)
		m.CompletionTick()
		got, ok := m.Get(o.ID)
		if !ok {
			t.Fatal("order vanished")
		}
		seen = append(seen, got.Status)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("status regressed: %v", seen)
		}
	}
	if seen[len(seen)-1] != model.StatusCompleted {
		t.Fatalf("expected completion, got %s", seen[len(seen)-1])
	}
}

func TestAtMostOneInProgressPerBarista(t *testing.T) {
	m, clock, _ := newTestManager(t)
	for i := 0; i < 10; i++ {
		m.Submit("Latte", 4, i%5+1, i%2 == 0, "")
	}
	for i := 0; i < 8; i++ {
		clock.Advance(time.Minute)
		m.CompletionTick()
		m.Recalculate()
		for _, v := range m.Baristas() {
			inProgress := 0
			for _, o := range v.AssignedOrders {
				if o.Status == model.StatusInProgress {
					inProgress++
				}
			}
			if inProgress > 1 {
				t.Fatalf("barista %s has %d in-progress orders", v.Name, inProgress)
			}
			if v.Available == (inProgress == 1) {
				t.Fatalf("availability flag inconsistent for %s", v.Name)
			}
		}
	}
}

func TestOrderInExactlyOnePlace(t *testing.T) {
	m, clock, _ := newTestManager(t)
	var ids []int64
	for i := 0; i < 6; i++ {
		ids = append(ids, m.Submit("Cappuccino", 4, 1, false, "").ID)
	}
	for step := 0; step < 5; step++ {
		clock.Advance(time.Minute)
		m.CompletionTick()
		queue := map[int64]bool{}
		for _, o := range m.Queue("") {
			queue[o.ID] = true
		}
		for _, id := range ids {
			places := 0
			if queue[id] {
				places++
			}
			for _, v := range m.Baristas() {
				for _, o := range v.AssignedOrders {
					if o.ID == id {
						places++
					}
				}
			}
			if places != 1 {
				t.Fatalf("order #%d appears in %d places", id, places)
			}
		}
	}
}

func TestManualCompleteUnknownBarista(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, ok := m.Complete(42); ok {
		t.Fatal("expected not-found for unknown barista")
	}
	if _, ok := m.Get(99); ok {
		t.Fatal("expected not-found for unknown order")
	}
}

func TestStatsAndBaristaStats(t *testing.T) {
	m, clock, _ := newTestManager(t)
	m.Submit("Espresso", 2, 1, false, "alice")
	m.Submit("Latte", 4, 1, false, "bob")
	clock.Advance(4 * time.Minute)
	m.CompletionTick()

	st := m.Stats("")
	if st.CompletedCount != 2 {
		t.Fatalf("expected 2 completed, got %d", st.CompletedCount)
	}
	if st.AverageWaitMinutes != 0 {
		t.Fatalf("orders started instantly; avg wait %.1f", st.AverageWaitMinutes)
	}
	if len(st.BaristaWorkloads) != 3 {
		t.Fatalf("expected 3 barista workloads, got %d", len(st.BaristaWorkloads))
	}

	alice := m.Stats("alice")
	if alice.CompletedCount != 1 {
		t.Fatalf("owner filter broken: %d", alice.CompletedCount)
	}

	bs := m.BaristaStats()
	if len(bs) != 3 {
		t.Fatalf("expected 3 barista stats, got %d", len(bs))
	}
	total := 0
	for _, b := range bs {
		total += b.OrdersCompleted
	}
	if total != 2 {
		t.Fatalf("expected 2 completions across pool, got %d", total)
	}
}

func TestClearAlerts(t *testing.T) {
	m, clock, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		m.Submit("Mocha", 8, 1, false, "")
	}
	m.Submit("Latte", 4, 1, false, "")
	clock.Advance(9 * time.Minute)
	m.Recalculate()
	if len(m.Alerts()) == 0 {
		t.Fatal("expected alerts")
	}
	m.ClearAlerts()
	if len(m.Alerts()) != 0 {
		t.Fatal("expected cleared alert log")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
