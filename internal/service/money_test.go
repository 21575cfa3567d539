package service

import (
	"context"
	"testing"

	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/parlakisik/event-escrow/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestBookingMoney(t *testing.T) {
	svc := newTestEnv(t, nil).svc
	price := decimal.NewFromInt(100000)

	tests := []struct {
		name         string
		status       model.BookingStatus
		mobilized    bool
		wantVendor   string
		wantRefund   string
		wantFee      string
		wantHeld     string
	}{
		{name: "unpaid", status: model.BookingStatusUnpaid, wantVendor: "0", wantRefund: "0", wantFee: "0", wantHeld: "0"},
		{name: "paid", status: model.BookingStatusPaid, wantVendor: "0", wantRefund: "0", wantFee: "0", wantHeld: "100000"},
		{name: "partially released", status: model.BookingStatusPartiallyReleased, mobilized: true, wantVendor: "20000", wantRefund: "0", wantFee: "0", wantHeld: "80000"},
		{name: "completed without check-in", status: model.BookingStatusCompleted, wantVendor: "0", wantRefund: "0", wantFee: "0", wantHeld: "100000"},
		{name: "disputed after check-in", status: model.BookingStatusDisputed, mobilized: true, wantVendor: "20000", wantRefund: "0", wantFee: "0", wantHeld: "80000"},
		{name: "released", status: model.BookingStatusReleased, mobilized: true, wantVendor: "100000", wantRefund: "0", wantFee: "2000", wantHeld: "0"},
		{name: "refunded before check-in", status: model.BookingStatusRefunded, wantVendor: "0", wantRefund: "100000", wantFee: "0", wantHeld: "0"},
		{name: "refunded after check-in", status: model.BookingStatusRefunded, mobilized: true, wantVendor: "20000", wantRefund: "80000", wantFee: "0", wantHeld: "0"},
		{name: "split", status: model.BookingStatusSplit, mobilized: true, wantVendor: "50000", wantRefund: "50000", wantFee: "2000", wantHeld: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := model.Booking{Status: tt.status, MobilizationReleased: tt.mobilized}
			check := func(what string, got decimal.Decimal, want string) {
				t.Helper()
				if !got.Equal(decimal.RequireFromString(want)) {
					t.Errorf("%s = %s, want %s", what, got, want)
				}
			}
			check("vendor earning", svc.vendorEarning(b, price), tt.wantVendor)
			check("client refund", svc.clientRefund(b, price), tt.wantRefund)
			check("platform fee", svc.platformFee(b, price), tt.wantFee)
			check("escrow held", svc.escrowHeld(b, price), tt.wantHeld)
		})
	}
}

func TestSplitNeverBelowMobilization(t *testing.T) {
	env := newTestEnv(t, func(s *Settings) { s.SplitRate = decimal.RequireFromString("0.10") })
	b := model.Booking{Status: model.BookingStatusSplit, MobilizationReleased: true}

	got := env.svc.vendorEarning(b, decimal.NewFromInt(100000))
	if !got.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("vendor earning = %s, want 20000", got)
	}
}

func TestPlatformStats(t *testing.T) {
	env := newTestEnv(t, nil)
	fx := testutil.NewBookingFixture().WithPrice("100000.00")
	env.seedBooking(t, fx.WithID("bk_unpaid").Build())
	env.seedBooking(t, fx.WithID("bk_paid").WithStatus(model.BookingStatusPaid).Build())
	env.seedBooking(t, fx.WithID("bk_partial").WithStatus(model.BookingStatusPartiallyReleased).Build())
	env.seedBooking(t, fx.WithID("bk_released").WithStatus(model.BookingStatusReleased).Build())
	env.seedBooking(t, fx.WithID("bk_split").WithMobilization().WithStatus(model.BookingStatusSplit).Build())

	stats, err := env.svc.PlatformStats(context.Background())
	if err != nil {
		t.Fatalf("PlatformStats() error: %v", err)
	}

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"gmv", stats.GMV, "400000"},
		{"escrow secured", stats.EscrowSecured, "400000"},
		{"escrow held", stats.EscrowHeld, "180000"},
		{"platform revenue", stats.PlatformRevenue, "4000"},
		{"client refunds", stats.ClientRefunds, "50000"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if stats.Bookings != 5 {
		t.Errorf("bookings = %d, want 5", stats.Bookings)
	}
	if stats.ByStatus[model.BookingStatusDisputed] != 0 || stats.ByStatus[model.BookingStatusPaid] != 1 {
		t.Errorf("by status = %v", stats.ByStatus)
	}
}
