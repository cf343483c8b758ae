package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/espressobar/brewsched/core/complaint"
	"github.com/espressobar/brewsched/core/events"
	"github.com/espressobar/brewsched/core/logger"
	coremetrics "github.com/espressobar/brewsched/core/metrics"
	"github.com/espressobar/brewsched/core/model"
	"github.com/espressobar/brewsched/core/priority"
	"github.com/espressobar/brewsched/internal/eventbus"
)

// Manager owns the pending queue, the barista pool and all order state. It is
// the single writer: every mutating sequence runs under one mutex, and
// external calls (complaint store, metrics sink) are issued only after the
// lock is released. Orders live in an arena map keyed by id; baristas hold
// ids into it, never copies.
type Manager struct {
	cfg        Config
	log        logger.Logger
	sink       coremetrics.CompletionSink
	bus        eventbus.EventBus
	complaints complaint.Store

	mu        sync.Mutex
	now       func() time.Time
	nextID    int64
	orders    map[int64]*model.Order
	queue     []int64
	baristas  []*model.Barista
	completed []int64
	alerts    []string
}

// NewManager creates a dispatcher with the configured barista pool.
func NewManager(cfg Config, store complaint.Store, sink coremetrics.CompletionSink, bus eventbus.EventBus, log logger.Logger) (*Manager, error) {
	if store == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewManager")
	}
	cfg.SetDefaults()
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	m := &Manager{
		cfg:        cfg,
		log:        log,
		sink:       sink,
		bus:        bus,
		complaints: store,
		now:        time.Now,
		orders:     make(map[int64]*model.Order),
	}
	for i, name := range cfg.Baristas {
		m.baristas = append(m.baristas, model.NewBarista(int64(i+1), name))
	}
	return m, nil
}

// Submit scores a new order, queues it and immediately attempts assignment.
// Out-of-range prep time and tier are clamped, never rejected. The returned
// snapshot reflects any assignment that happened synchronously.
func (m *Manager) Submit(drink string, prepMinutes, tier int, regular bool, owner string) model.Order {
	m.mu.Lock()
	m.nextID++
	o := model.NewOrder(m.nextID, drink, prepMinutes, tier, regular, owner, m.now())
	res := priority.Score(o, m.now())
	o.Priority = res.Score
	o.PriorityExplanation = res.Explanation
	m.orders[o.ID] = o
	m.queue = append(m.queue, o.ID)
	ordersSubmitted.Inc()
	m.publish(events.OrderSubmitted{OrderID: o.ID, Drink: o.DrinkName, Priority: o.Priority})
	m.tryAssign()
	snap := *o
	m.mu.Unlock()
	m.log.Infof("order #%d (%s) submitted with priority %.1f", snap.ID, snap.DrinkName, snap.Priority)
	return snap
}

// Queue returns the pending orders sorted descending by priority, ties broken
// by arrival order. An empty owner matches everything.
func (m *Manager) Queue(owner string) []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := m.sortedPending(owner)
	out := make([]model.Order, 0, len(sorted))
	for _, o := range sorted {
		out = append(out, *o)
	}
	return out
}

// Get looks up a single order by id, whether pending, assigned or completed.
func (m *Manager) Get(id int64) (model.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, false
	}
	return *o, true
}

// Baristas returns a read-only snapshot of the pool.
func (m *Manager) Baristas() []BaristaView {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]BaristaView, 0, len(m.baristas))
	for _, b := range m.baristas {
		v := BaristaView{
			ID:             b.ID,
			Name:           b.Name,
			Available:      b.Available,
			BusyUntil:      b.BusyUntil,
			PendingMinutes: m.pendingMinutes(b),
		}
		for _, id := range b.AssignedOrders {
			v.AssignedOrders = append(v.AssignedOrders, *m.orders[id])
		}
		out = append(out, v)
	}
	return out
}

// Alerts returns the operator alert log.
func (m *Manager) Alerts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.alerts...)
}

// ClearAlerts resets the alert log.
func (m *Manager) ClearAlerts() {
	m.mu.Lock()
	m.alerts = nil
	m.mu.Unlock()
}

// Complete manually finishes the in-progress order of the given barista and
// re-runs assignment. The second return is false when the barista does not
// exist or has nothing in progress.
func (m *Manager) Complete(baristaID int64) (model.Order, bool) {
	m.mu.Lock()
	b := m.barista(baristaID)
	if b == nil {
		m.mu.Unlock()
		return model.Order{}, false
	}
	cur := m.completeCurrent(b)
	var snap model.Order
	var rec []coremetrics.CompletionRecord
	if cur != nil {
		snap = *cur
		rec = append(rec, m.completionRecord(cur, b))
		m.tryAssign()
	}
	m.mu.Unlock()
	if cur == nil {
		return model.Order{}, false
	}
	m.recordCompletions(rec)
	return snap, true
}

// Recalculate re-scores every pending order, escalates overdue ones and then
// drains any freed capacity. Orders waiting past the critical threshold are
// force-assigned to the soonest-free barista, bypassing balancing rules.
func (m *Manager) Recalculate() {
	m.mu.Lock()
	now := m.now()
	for _, id := range append([]int64(nil), m.queue...) {
		o := m.orders[id]
		res := priority.Score(o, now)
		o.Priority = res.Score
		o.PriorityExplanation = res.Explanation

		wait := o.WaitMinutes(now)
		if wait >= priority.CriticalWaitMinutes {
			m.forceAssign(o)
			m.addAlert(fmt.Sprintf("CRITICAL: Order #%d (%.1f min wait) force-assigned! Manager alerted.", o.ID, wait))
		} else if wait >= priority.EmergencyWaitMinutes {
			m.addAlert(fmt.Sprintf("WARNING: Order #%d approaching timeout (%.1f min wait)", o.ID, wait))
		}
	}
	m.tryAssign()
	m.mu.Unlock()
}

// CompletionTick runs the three completion-timer phases: finish cooked
// orders, raise timeout complaints, and sweep for idle baristas. Complaints
// and sink records are flushed after the lock is released; a failed store
// call is logged, never retried, and never resets the one-shot flag.
func (m *Manager) CompletionTick() {
	m.mu.Lock()
	now := m.now()

	var recs []coremetrics.CompletionRecord
	for _, b := range m.baristas {
		cur := m.currentOrder(b)
		if cur == nil || !cur.ReadyToComplete(now) {
			continue
		}
		if done := m.completeCurrent(b); done != nil {
			recs = append(recs, m.completionRecord(done, b))
		}
		if b.Available {
			m.assignNextToBarista(b)
		}
	}

	var raised []complaint.Complaint
	for _, id := range m.queue {
		o := m.orders[id]
		wait := o.WaitMinutes(now)
		if wait < priority.MaxWaitMinutes || o.AutoComplaintRaised {
			continue
		}
		// Flag first so the complaint stays at-most-once even if the
		// store call below fails.
		o.AutoComplaintRaised = true
		c := m.buildComplaint(o, wait)
		raised = append(raised, c)
		complaintsRaised.Inc()
		m.addAlert(fmt.Sprintf("AUTO-COMPLAINT: Order #%d exceeded 10 min wait (%.1f min). Complaint filed against %s.", o.ID, wait, c.Barista))
		m.publish(events.ComplaintRaised{OrderID: o.ID, Barista: c.Barista})
	}

	for _, b := range m.baristas {
		if b.Available && len(m.queue) > 0 {
			m.assignNextToBarista(b)
		}
	}
	m.mu.Unlock()

	for _, c := range raised {
		if err := m.complaints.Record(context.Background(), c); err != nil {
			m.log.Errorf("complaint store: %v", err)
		}
	}
	m.recordCompletions(recs)
}

// internal helpers; the caller must hold m.mu.

func (m *Manager) barista(id int64) *model.Barista {
	for _, b := range m.baristas {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (m *Manager) pendingMinutes(b *model.Barista) int {
	total := 0
	for _, id := range b.AssignedOrders {
		if o := m.orders[id]; o.Status != model.StatusCompleted {
			total += o.PrepTimeMinutes
		}
	}
	return total
}

func (m *Manager) loads() []Load {
	loads := make([]Load, 0, len(m.baristas))
	for _, b := range m.baristas {
		loads = append(loads, Load{Barista: b, PendingMinutes: m.pendingMinutes(b)})
	}
	return loads
}

// sortedPending returns pending orders by descending priority. The queue
// slice keeps insertion order, so a stable sort breaks priority ties by
// arrival.
func (m *Manager) sortedPending(owner string) []*model.Order {
	out := make([]*model.Order, 0, len(m.queue))
	for _, id := range m.queue {
		o := m.orders[id]
		if owner != "" && o.Owner != owner {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// tryAssign walks the priority-sorted queue and hands orders to baristas
// accepted by the balancer.
func (m *Manager) tryAssign() {
	for _, o := range m.sortedPending("") {
		b := SelectBarista(o.PrepTimeMinutes, m.loads())
		if b == nil {
			break
		}
		m.assign(o, b, false)
	}
}

// assignNextToBarista hands the single highest-priority pending order to the
// given barista, skipping the balancer.
func (m *Manager) assignNextToBarista(b *model.Barista) {
	if !b.Available || len(m.queue) == 0 {
		return
	}
	sorted := m.sortedPending("")
	m.assign(sorted[0], b, false)
}

// forceAssign escalates a critical order to the barista with the soonest
// busy-until time, regardless of workload ratio or availability.
func (m *Manager) forceAssign(o *model.Order) {
	soonest := m.baristas[0]
	for _, b := range m.baristas[1:] {
		if b.BusyUntil.Before(soonest.BusyUntil) {
			soonest = b
		}
	}
	m.assign(o, soonest, true)
}

func (m *Manager) assign(o *model.Order, b *model.Barista, forced bool) {
	m.removeFromQueue(o.ID)
	o.AssignedBaristaID = b.ID
	o.Status = model.StatusAssigned
	b.AssignedOrders = append(b.AssignedOrders, o.ID)
	if b.Available {
		m.startNext(b)
	}
	m.updateSkipCounts(o)
	if forced {
		forceAssignments.Inc()
	}
	queueDepth.Set(float64(len(m.queue)))
	m.publish(events.OrderAssigned{OrderID: o.ID, BaristaID: b.ID, Forced: forced})
}

// startNext promotes the barista's oldest Assigned order to InProgress and
// stamps the busy-until time.
func (m *Manager) startNext(b *model.Barista) {
	for _, id := range b.AssignedOrders {
		o := m.orders[id]
		if o.Status != model.StatusAssigned {
			continue
		}
		o.Status = model.StatusInProgress
		o.StartedAt = m.now()
		b.Available = false
		b.BusyUntil = m.now().Add(o.PrepDuration())
		waitMinutes.Observe(o.WaitMinutes(m.now()))
		return
	}
	b.Available = true
}

// completeCurrent finishes the barista's in-progress order, if any, and
// starts the next assigned one.
func (m *Manager) completeCurrent(b *model.Barista) *model.Order {
	cur := m.currentOrder(b)
	if cur != nil {
		cur.Status = model.StatusCompleted
		b.OrdersComplete++
		b.WorkedMinutes += cur.PrepTimeMinutes
		m.completed = append(m.completed, cur.ID)
		ordersCompleted.WithLabelValues(b.Name).Inc()
		m.publish(events.OrderCompleted{OrderID: cur.ID, BaristaID: b.ID, WaitMinutes: m.completedWait(cur)})
	}
	b.Available = true
	m.startNext(b)
	return cur
}

func (m *Manager) currentOrder(b *model.Barista) *model.Order {
	for _, id := range b.AssignedOrders {
		if o := m.orders[id]; o.Status == model.StatusInProgress {
			return o
		}
	}
	return nil
}

// updateSkipCounts increments the skip count of every pending order that
// arrived strictly before the assigned one, alerting the first time an order
// crosses the fairness threshold.
func (m *Manager) updateSkipCounts(assigned *model.Order) {
	for _, id := range m.queue {
		o := m.orders[id]
		if !o.ArrivalTime.Before(assigned.ArrivalTime) {
			continue
		}
		o.SkipCount++
		if o.SkipCount == priority.FairnessSkipThreshold+1 {
			m.addAlert(fmt.Sprintf("FAIRNESS: Order #%d has been skipped %d times. Priority boosted.", o.ID, o.SkipCount))
		}
	}
}

func (m *Manager) removeFromQueue(id int64) {
	for i, qid := range m.queue {
		if qid == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// completedWait is the time the customer waited for preparation to start.
func (m *Manager) completedWait(o *model.Order) float64 {
	if o.StartedAt.IsZero() {
		return 0
	}
	return o.StartedAt.Sub(o.ArrivalTime).Minutes()
}

func (m *Manager) buildComplaint(o *model.Order, wait float64) complaint.Complaint {
	barista := "System (Auto-Raised)"
	if o.AssignedBaristaID != 0 {
		if b := m.barista(o.AssignedBaristaID); b != nil {
			barista = b.Name
		}
	}
	customer := o.Owner
	if customer == "" {
		customer = "anonymous"
	}
	msg := fmt.Sprintf("Auto-Raised (Timeout): Order #%d (%s) waited %.1f minutes.", o.ID, o.DrinkName, wait)
	return complaint.New(barista, customer, msg)
}

func (m *Manager) completionRecord(o *model.Order, b *model.Barista) coremetrics.CompletionRecord {
	wait := m.completedWait(o)
	return coremetrics.CompletionRecord{
		OrderID:     o.ID,
		BaristaID:   b.ID,
		BaristaName: b.Name,
		Drink:       o.DrinkName,
		WaitMinutes: wait,
		PrepMinutes: o.PrepTimeMinutes,
		Priority:    o.Priority,
		Timeout:     wait > priority.MaxWaitMinutes,
		CompletedAt: m.now(),
	}
}

func (m *Manager) addAlert(msg string) {
	m.alerts = append(m.alerts, msg)
	m.publish(events.Alert{Message: msg, Time: m.now()})
}

func (m *Manager) publish(e eventbus.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// recordCompletions flushes completion records to the sink outside the
// critical section.
func (m *Manager) recordCompletions(recs []coremetrics.CompletionRecord) {
	if len(recs) == 0 {
		return
	}
	if err := m.sink.RecordCompletions(recs); err != nil {
		m.log.Errorf("completion metrics: %v", err)
	}
}
