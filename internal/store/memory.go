package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/parlakisik/event-escrow/internal/model"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]model.Booking
	projects map[string]model.Project
	payouts  map[string]model.PayoutRequest
	vendors  map[string]model.Vendor
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[string]model.Booking),
		projects: make(map[string]model.Project),
		payouts:  make(map[string]model.PayoutRequest),
		vendors:  make(map[string]model.Vendor),
	}
}

func (s *MemoryStore) CreateBooking(ctx context.Context, b model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; ok {
		return fmt.Errorf("booking %s: %w", b.ID, ErrConflict)
	}
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return cloneBooking(b), nil
}

func (s *MemoryStore) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Booking
	for _, b := range s.bookings {
		if filter.Matches(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) SwapBooking(ctx context.Context, b model.Booking, expected model.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[b.ID]
	if !ok {
		return fmt.Errorf("booking %s: %w", b.ID, ErrNotFound)
	}
	if cur.Status != expected {
		return fmt.Errorf("booking %s is %s: %w", b.ID, cur.Status, ErrConflict)
	}
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (s *MemoryStore) CreateProject(ctx context.Context, p model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return fmt.Errorf("project %s: %w", p.ID, ErrConflict)
	}
	s.projects[p.ID] = cloneProject(p)
	return nil
}

func (s *MemoryStore) GetProject(ctx context.Context, id string) (model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return cloneProject(p), nil
}

func (s *MemoryStore) ListProjects(ctx context.Context, agentID string) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Project
	for _, p := range s.projects {
		if agentID == "" || p.AgentID == agentID {
			out = append(out, cloneProject(p))
		}
	}
	// Newest first
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateProject(ctx context.Context, p model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.projects[p.ID]
	if !ok {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	if p.Version != cur.Version+1 {
		return fmt.Errorf("project %s at version %d: %w", p.ID, cur.Version, ErrConflict)
	}
	s.projects[p.ID] = cloneProject(p)
	return nil
}

func (s *MemoryStore) CreatePayout(ctx context.Context, p model.PayoutRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payouts[p.ID]; ok {
		return fmt.Errorf("payout %s: %w", p.ID, ErrConflict)
	}
	s.payouts[p.ID] = p
	return nil
}

func (s *MemoryStore) GetPayout(ctx context.Context, id string) (model.PayoutRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payouts[id]
	if !ok {
		return model.PayoutRequest{}, fmt.Errorf("payout %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) ListPayouts(ctx context.Context, vendorName string) ([]model.PayoutRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.PayoutRequest
	for _, p := range s.payouts {
		if vendorName == "" || p.VendorName == vendorName {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdatePayout(ctx context.Context, p model.PayoutRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.payouts[p.ID]
	if !ok {
		return fmt.Errorf("payout %s: %w", p.ID, ErrNotFound)
	}
	if p.Version != cur.Version+1 {
		return fmt.Errorf("payout %s at version %d: %w", p.ID, cur.Version, ErrConflict)
	}
	s.payouts[p.ID] = p
	return nil
}

func (s *MemoryStore) SaveVendor(ctx context.Context, v model.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[v.ID] = v
	return nil
}

func (s *MemoryStore) ListVendors(ctx context.Context, category, city string) ([]model.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Vendor
	for _, v := range s.vendors {
		if category != "" && !strings.EqualFold(v.Category, category) {
			continue
		}
		if city != "" && !strings.EqualFold(v.City, city) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneBooking(b model.Booking) model.Booking {
	if b.Dispute != nil {
		d := *b.Dispute
		b.Dispute = &d
	}
	if b.Resolution != nil {
		r := *b.Resolution
		b.Resolution = &r
	}
	return b
}

func cloneProject(p model.Project) model.Project {
	p.Slots = append([]model.ServiceSlot(nil), p.Slots...)
	p.AuditTrail = append([]model.AuditEntry(nil), p.AuditTrail...)
	return p
}
