package service

import (
	"context"
	"errors"
	"testing"

	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/parlakisik/event-escrow/internal/testutil"
	"github.com/shopspring/decimal"
)

func newBookingRequest() CreateBookingRequest {
	return CreateBookingRequest{
		VendorName: lights.ID,
		Category:   "Sounds & Lights",
		Price:      decimal.RequireFromString("50245"),
		Venue:      testutil.MakatiVenue,
	}
}

func TestCreateBooking(t *testing.T) {
	tests := []struct {
		name    string
		actor   model.Actor
		mutate  func(*CreateBookingRequest)
		wantErr error
	}{
		{name: "client books for self", actor: alice},
		{name: "agent books for a client", actor: agent, mutate: func(r *CreateBookingRequest) { r.ClientID = alice.ID }},
		{name: "agent without client", actor: agent, wantErr: ErrValidation},
		{name: "vendor cannot book", actor: lights, wantErr: ErrForbidden},
		{name: "zero price", actor: alice, mutate: func(r *CreateBookingRequest) { r.Price = decimal.Zero }, wantErr: ErrValidation},
		{name: "missing vendor", actor: alice, mutate: func(r *CreateBookingRequest) { r.VendorName = "" }, wantErr: ErrValidation},
		{name: "latitude out of range", actor: alice, mutate: func(r *CreateBookingRequest) { r.Venue.Lat = 91 }, wantErr: ErrValidation},
		{name: "unknown project", actor: agent, mutate: func(r *CreateBookingRequest) {
			r.ClientID = alice.ID
			r.ProjectID = "prj_missing"
		}, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			req := newBookingRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			b, err := env.svc.CreateBooking(context.Background(), tt.actor, req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateBooking() err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBooking() error: %v", err)
			}
			if b.Status != model.BookingStatusUnpaid {
				t.Errorf("status = %s, want UNPAID", b.Status)
			}
			if b.Price != "50245.00" {
				t.Errorf("price = %s, want 50245.00", b.Price)
			}
			if b.ClientID != alice.ID {
				t.Errorf("client = %s, want %s", b.ClientID, alice.ID)
			}
		})
	}
}

func TestBookingHappyPath(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	b, err := env.svc.CreateBooking(ctx, alice, newBookingRequest())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	near := model.Coordinates{Lat: testutil.MakatiVenue.Lat + 0.0027, Lng: testutil.MakatiVenue.Lng}
	steps := []struct {
		name string
		run  func() (model.Booking, error)
		want model.BookingStatus
	}{
		{"pay", func() (model.Booking, error) { return env.svc.SubmitPayment(ctx, alice, b.ID) }, model.BookingStatusPaid},
		{"check in", func() (model.Booking, error) { return env.svc.CheckInAtVenue(ctx, lights, b.ID, near) }, model.BookingStatusPartiallyReleased},
		{"deliver", func() (model.Booking, error) { return env.svc.MarkDelivered(ctx, lights, b.ID) }, model.BookingStatusCompleted},
		{"release", func() (model.Booking, error) { return env.svc.ReleaseFunds(ctx, alice, b.ID) }, model.BookingStatusReleased},
	}
	for _, step := range steps {
		got, err := step.run()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got.Status != step.want {
			t.Fatalf("%s: status = %s, want %s", step.name, got.Status, step.want)
		}
	}

	final, _ := env.store.GetBooking(ctx, b.ID)
	if !final.MobilizationReleased {
		t.Errorf("mobilization flag lost after release")
	}

	stats, err := env.svc.PlatformStats(ctx)
	if err != nil {
		t.Fatalf("PlatformStats: %v", err)
	}
	if !stats.EscrowSecured.Equal(decimal.RequireFromString("50245")) {
		t.Errorf("escrow secured = %s, want 50245", stats.EscrowSecured)
	}
	if !stats.PlatformRevenue.Equal(decimal.RequireFromString("1004.9")) {
		t.Errorf("platform revenue = %s, want 1004.90", stats.PlatformRevenue)
	}
}

func TestCheckInProximity(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	b := env.seedBooking(t, testutil.NewBookingFixture().WithClient(alice.ID).Build())
	if _, err := env.svc.SubmitPayment(ctx, alice, b.ID); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if got := env.status(t, b.ID); got != model.BookingStatusPaid {
		t.Fatalf("status after pay = %s, want PAID", got)
	}

	far := model.Coordinates{Lat: testutil.MakatiVenue.Lat + 0.0054, Lng: testutil.MakatiVenue.Lng}
	_, err := env.svc.CheckInAtVenue(ctx, lights, b.ID, far)
	if !errors.Is(err, ErrTooFarFromVenue) {
		t.Fatalf("CheckInAtVenue(600m) err = %v, want ErrTooFarFromVenue", err)
	}
	if got := env.status(t, b.ID); got != model.BookingStatusPaid {
		t.Errorf("status after rejected check-in = %s, want PAID", got)
	}

	// A wider radius admits the same position.
	wide := newTestEnv(t, func(s *Settings) { s.CheckInRadiusMeters = 7000 })
	b2 := wide.seedBooking(t, testutil.NewBookingFixture().WithClient(alice.ID).WithStatus(model.BookingStatusPaid).Build())
	got, err := wide.svc.CheckInAtVenue(ctx, lights, b2.ID, far)
	if err != nil {
		t.Fatalf("CheckInAtVenue with 7km radius: %v", err)
	}
	if got.Status != model.BookingStatusPartiallyReleased || !got.MobilizationReleased {
		t.Errorf("booking = %s mobilization=%v", got.Status, got.MobilizationReleased)
	}
}

func TestTransitionOwnership(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	b := env.seedBooking(t, testutil.NewBookingFixture().WithClient(alice.ID).Build())

	if _, err := env.svc.SubmitPayment(ctx, bob, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("another client paying: err = %v, want ErrForbidden", err)
	}
	if _, err := env.svc.SubmitPayment(ctx, lights, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("vendor paying: err = %v, want ErrForbidden", err)
	}
	if _, err := env.svc.SubmitPayment(ctx, alice, "bk_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown booking: err = %v, want ErrNotFound", err)
	}

	if _, err := env.svc.SubmitPayment(ctx, alice, b.ID); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if _, err := env.svc.MarkDelivered(ctx, other, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign vendor delivering: err = %v, want ErrForbidden", err)
	}
	if _, err := env.svc.SubmitPayment(ctx, alice, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("paying twice: err = %v, want ErrInvalidTransition", err)
	}
	if got := env.status(t, b.ID); got != model.BookingStatusPaid {
		t.Errorf("status = %s, want PAID", got)
	}
}

func TestFileDisputeAndAppeal(t *testing.T) {
	tests := []struct {
		name    string
		req     DisputeRequest
		wantErr error
	}{
		{name: "valid", req: DisputeRequest{Category: "NO_SHOW", Reason: "Vendor never arrived at the venue"}},
		{name: "with evidence", req: DisputeRequest{Category: "POOR_QUALITY", Reason: "Speakers kept cutting out", EvidenceRef: "uploads/ev1.jpg"}},
		{name: "reason too short", req: DisputeRequest{Category: "LATE", Reason: "late"}, wantErr: ErrValidation},
		{name: "unknown category", req: DisputeRequest{Category: "RUDE", Reason: "Vendor never arrived at the venue"}, wantErr: ErrValidation},
		{name: "missing category", req: DisputeRequest{Reason: "Vendor never arrived at the venue"}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			ctx := context.Background()
			b := env.seedBooking(t, testutil.NewBookingFixture().WithClient(alice.ID).WithStatus(model.BookingStatusPaid).Build())

			got, err := env.svc.FileDispute(ctx, alice, b.ID, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FileDispute() err = %v, want %v", err, tt.wantErr)
				}
				if st := env.status(t, b.ID); st != model.BookingStatusPaid {
					t.Errorf("status = %s after rejected dispute, want PAID", st)
				}
				return
			}
			if err != nil {
				t.Fatalf("FileDispute() error: %v", err)
			}
			if got.Status != model.BookingStatusDisputed || got.Dispute == nil {
				t.Fatalf("booking = %+v", got)
			}
			if got.Dispute.Category != tt.req.Category || got.Dispute.EvidenceRef != tt.req.EvidenceRef {
				t.Errorf("dispute = %+v", got.Dispute)
			}

			if _, err := env.svc.FileDispute(ctx, alice, b.ID, tt.req); !errors.Is(err, ErrAlreadyDisputed) {
				t.Errorf("second dispute err = %v, want ErrAlreadyDisputed", err)
			}

			if _, err := env.svc.SubmitAppeal(ctx, lights, b.ID, "short"); !errors.Is(err, ErrValidation) {
				t.Errorf("short appeal err = %v, want ErrValidation", err)
			}
			appealed, err := env.svc.SubmitAppeal(ctx, lights, b.ID, "Traffic on EDSA, arrived 40 minutes late")
			if err != nil {
				t.Fatalf("SubmitAppeal() error: %v", err)
			}
			if appealed.Status != model.BookingStatusDisputed {
				t.Errorf("status after appeal = %s, want DISPUTED", appealed.Status)
			}
			if appealed.Dispute.VendorAppeal == "" || appealed.Dispute.AppealedAt == nil {
				t.Errorf("appeal not recorded: %+v", appealed.Dispute)
			}
			if appealed.Dispute.Reason != tt.req.Reason {
				t.Errorf("appeal overwrote the client's reason")
			}
		})
	}
}

func TestListBookingsScopedToActor(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedBooking(t, testutil.NewBookingFixture().WithID("bk_a").WithClient(alice.ID).Build())
	env.seedBooking(t, testutil.NewBookingFixture().WithID("bk_b").WithClient(bob.ID).Build())
	env.seedBooking(t, testutil.NewBookingFixture().WithID("bk_c").WithClient(bob.ID).WithVendor(other.ID).Build())

	tests := []struct {
		name   string
		actor  model.Actor
		filter model.BookingFilter
		want   int
	}{
		{name: "client sees own", actor: alice, filter: model.BookingFilter{ClientID: bob.ID}, want: 1},
		{name: "vendor sees own", actor: lights, want: 2},
		{name: "admin sees all", actor: admin, want: 3},
		{name: "admin filters by vendor", actor: admin, filter: model.BookingFilter{VendorName: other.ID}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.ListBookings(ctx, tt.actor, tt.filter)
			if err != nil {
				t.Fatalf("ListBookings() error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d bookings, want %d", len(got), tt.want)
			}
		})
	}

	if _, err := env.svc.ListBookings(ctx, admin, model.BookingFilter{Status: "LOST"}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown status err = %v, want ErrValidation", err)
	}
}
