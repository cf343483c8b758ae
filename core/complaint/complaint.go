// Package complaint defines the complaint record and its storage contract.
// The dispatcher only needs best-effort persistence: a failed Record call is
// logged, never retried synchronously, and never rolls back order state.
package complaint

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Complaint is a persisted customer complaint.
type Complaint struct {
	ID       string    `json:"id"`
	Barista  string    `json:"barista"`
	Customer string    `json:"customer"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// New builds a complaint with a fresh id and timestamp.
func New(barista, customer, message string) Complaint {
	return Complaint{
		ID:       uuid.NewString(),
		Barista:  barista,
		Customer: customer,
		Message:  message,
		Time:     time.Now().UTC(),
	}
}

// Store persists complaints.
type Store interface {
	Record(ctx context.Context, c Complaint) error
	List(ctx context.Context) ([]Complaint, error)
	Close() error
}

// MemoryStore keeps complaints in memory for tests or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	data []Complaint
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Record(_ context.Context, c Complaint) error {
	s.mu.Lock()
	s.data = append(s.data, c)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Complaint(nil), s.data...)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
