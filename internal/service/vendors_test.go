package service

import (
	"context"
	"testing"

	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/parlakisik/event-escrow/internal/testutil"
)

func TestSearchVendors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name     string
		category string
		city     string
		want     int
	}{
		{name: "venue includes flagged vendors", category: "Venue", want: 7},
		{name: "case insensitive", category: "CATERING", want: 2},
		{name: "city filter", category: "Venue", city: "Cebu", want: 0},
		{name: "unknown category", category: "Fireworks", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.SearchVendors(context.Background(), tt.category, tt.city)
			if err != nil {
				t.Fatalf("SearchVendors() error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d vendors, want %d", len(got), tt.want)
			}
		})
	}
}

func TestTopPicks(t *testing.T) {
	env := newTestEnv(t, nil)
	got, err := env.svc.TopPicks(context.Background(), "Venue", "")
	if err != nil {
		t.Fatalf("TopPicks() error: %v", err)
	}
	want := []string{"Palace Hotel", "Grand Ballroom", "Garden Pavilion", "Rooftop Deck", "Old Hall"}
	if names := vendorNames(got); !sameNames(names, want...) {
		t.Errorf("top picks = %v, want %v", names, want)
	}
	for _, v := range got {
		if !v.Recommendable() {
			t.Errorf("%s has a record and should not be recommended", v.Name)
		}
	}
}

func TestTopPicksCheaperFirstOnEqualRating(t *testing.T) {
	dir := fakeDirectory{vendors: []model.Vendor{
		testutil.NewVendorFixture("a", "Snap Two", "Photography", "18000").Build(),
		testutil.NewVendorFixture("b", "Snap One", "Photography", "12000").Build(),
		testutil.NewVendorFixture("c", "Snap Three", "Photography", "12000").Build(),
	}}
	env := newTestEnv(t, nil, WithVendorDirectory(dir))

	got, err := env.svc.TopPicks(context.Background(), "Photography", "")
	if err != nil {
		t.Fatalf("TopPicks() error: %v", err)
	}
	if names := vendorNames(got); !sameNames(names, "Snap One", "Snap Three", "Snap Two") {
		t.Errorf("order = %v", names)
	}
}
