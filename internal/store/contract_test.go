package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parlakisik/event-escrow/internal/model"
)

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("booking swap requires expected status", func(t *testing.T) {
		s := newStore(t)
		b := model.Booking{ID: "bk_1", ClientID: "c1", VendorName: "Lights Co", Price: "1000", Status: model.BookingStatusUnpaid, CreatedAt: now}
		if err := s.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
		if err := s.CreateBooking(ctx, b); !errors.Is(err, ErrConflict) {
			t.Fatalf("duplicate CreateBooking err = %v, want ErrConflict", err)
		}

		paid := b
		paid.Status = model.BookingStatusPaid
		if err := s.SwapBooking(ctx, paid, model.BookingStatusUnpaid); err != nil {
			t.Fatalf("SwapBooking: %v", err)
		}
		if err := s.SwapBooking(ctx, paid, model.BookingStatusUnpaid); !errors.Is(err, ErrConflict) {
			t.Fatalf("stale SwapBooking err = %v, want ErrConflict", err)
		}

		got, err := s.GetBooking(ctx, "bk_1")
		if err != nil {
			t.Fatalf("GetBooking: %v", err)
		}
		if got.Status != model.BookingStatusPaid {
			t.Errorf("status = %s, want PAID", got.Status)
		}

		missing := b
		missing.ID = "bk_missing"
		if err := s.SwapBooking(ctx, missing, model.BookingStatusUnpaid); !errors.Is(err, ErrNotFound) {
			t.Errorf("SwapBooking missing err = %v, want ErrNotFound", err)
		}
	})

	t.Run("booking filters", func(t *testing.T) {
		s := newStore(t)
		seed := []model.Booking{
			{ID: "a", ClientID: "c1", VendorName: "V1", ProjectID: "p1", Status: model.BookingStatusPaid, CreatedAt: now},
			{ID: "b", ClientID: "c1", VendorName: "V2", Status: model.BookingStatusUnpaid, CreatedAt: now.Add(time.Second)},
			{ID: "c", ClientID: "c2", VendorName: "V1", ProjectID: "p1", Status: model.BookingStatusPaid, CreatedAt: now.Add(2 * time.Second)},
		}
		for _, b := range seed {
			if err := s.CreateBooking(ctx, b); err != nil {
				t.Fatalf("CreateBooking(%s): %v", b.ID, err)
			}
		}

		tests := []struct {
			name   string
			filter model.BookingFilter
			want   []string
		}{
			{name: "all", filter: model.BookingFilter{}, want: []string{"a", "b", "c"}},
			{name: "by client", filter: model.BookingFilter{ClientID: "c1"}, want: []string{"a", "b"}},
			{name: "by vendor and status", filter: model.BookingFilter{VendorName: "V1", Status: model.BookingStatusPaid}, want: []string{"a", "c"}},
			{name: "by project", filter: model.BookingFilter{ProjectID: "p1"}, want: []string{"a", "c"}},
			{name: "no match", filter: model.BookingFilter{ClientID: "nobody"}, want: nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.ListBookings(ctx, tt.filter)
				if err != nil {
					t.Fatalf("ListBookings: %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("got %d bookings, want %d", len(got), len(tt.want))
				}
				for i := range got {
					if got[i].ID != tt.want[i] {
						t.Errorf("bookings[%d] = %s, want %s", i, got[i].ID, tt.want[i])
					}
				}
			})
		}
	})

	t.Run("project update is versioned", func(t *testing.T) {
		s := newStore(t)
		p := model.Project{ID: "prj_1", AgentID: "ag1", ClientName: "Reyes", TotalBudget: "50000", Version: 1, CreatedAt: now}
		if err := s.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject: %v", err)
		}

		next := p
		next.Version = 2
		next.TotalBudget = "60000"
		if err := s.UpdateProject(ctx, next); err != nil {
			t.Fatalf("UpdateProject: %v", err)
		}
		if err := s.UpdateProject(ctx, next); !errors.Is(err, ErrConflict) {
			t.Fatalf("replayed UpdateProject err = %v, want ErrConflict", err)
		}

		got, err := s.GetProject(ctx, "prj_1")
		if err != nil {
			t.Fatalf("GetProject: %v", err)
		}
		if got.TotalBudget != "60000" || got.Version != 2 {
			t.Errorf("project = %s v%d, want 60000 v2", got.TotalBudget, got.Version)
		}

		if _, err := s.GetProject(ctx, "prj_none"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProject missing err = %v, want ErrNotFound", err)
		}
	})

	t.Run("payout update is versioned", func(t *testing.T) {
		s := newStore(t)
		p := model.PayoutRequest{ID: "po_1", VendorName: "V1", Amount: "500", Status: model.PayoutPending, SubmittedAt: now, Version: 1}
		if err := s.CreatePayout(ctx, p); err != nil {
			t.Fatalf("CreatePayout: %v", err)
		}
		done := p
		done.Status = model.PayoutCompleted
		done.Version = 2
		if err := s.UpdatePayout(ctx, done); err != nil {
			t.Fatalf("UpdatePayout: %v", err)
		}
		if err := s.UpdatePayout(ctx, done); !errors.Is(err, ErrConflict) {
			t.Errorf("replayed UpdatePayout err = %v, want ErrConflict", err)
		}
		list, err := s.ListPayouts(ctx, "V1")
		if err != nil {
			t.Fatalf("ListPayouts: %v", err)
		}
		if len(list) != 1 || list[0].Status != model.PayoutCompleted {
			t.Errorf("ListPayouts = %+v", list)
		}
	})

	t.Run("vendor category is case-insensitive", func(t *testing.T) {
		s := newStore(t)
		for _, v := range []model.Vendor{
			{ID: "v1", Name: "Grand Hall", Category: "Venue", City: "Manila"},
			{ID: "v2", Name: "Garden Place", Category: "venue", City: "Cebu"},
			{ID: "v3", Name: "Snap Studio", Category: "Photography", City: "Manila"},
		} {
			if err := s.SaveVendor(ctx, v); err != nil {
				t.Fatalf("SaveVendor: %v", err)
			}
		}

		got, err := s.ListVendors(ctx, "VENUE", "")
		if err != nil {
			t.Fatalf("ListVendors: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d venues, want 2", len(got))
		}

		got, err = s.ListVendors(ctx, "venue", "manila")
		if err != nil {
			t.Fatalf("ListVendors: %v", err)
		}
		if len(got) != 1 || got[0].ID != "v1" {
			t.Errorf("ListVendors(venue, manila) = %+v", got)
		}
	})
}
