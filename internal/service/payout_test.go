package service

import (
	"context"
	"errors"
	"testing"

	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/parlakisik/event-escrow/internal/testutil"
	"github.com/shopspring/decimal"
)

// earningEnv gives the lights vendor 100000 released plus 20000 mobilized.
func earningEnv(t *testing.T) testEnv {
	t.Helper()
	env := newTestEnv(t, nil)
	fx := testutil.NewBookingFixture().WithPrice("100000.00")
	env.seedBooking(t, fx.WithID("bk_done").WithStatus(model.BookingStatusReleased).Build())
	env.seedBooking(t, fx.WithID("bk_onsite").WithStatus(model.BookingStatusPartiallyReleased).Build())
	env.seedBooking(t, fx.WithID("bk_other").WithVendor(other.ID).WithStatus(model.BookingStatusReleased).Build())
	return env
}

func payoutInput(amt string) PayoutInput {
	return PayoutInput{
		Amount:        decimal.RequireFromString(amt),
		Destination:   "BPI",
		AccountNumber: "001234567890",
	}
}

func TestRequestPayout(t *testing.T) {
	tests := []struct {
		name    string
		actor   model.Actor
		in      PayoutInput
		wantErr error
	}{
		{name: "within balance", actor: lights, in: payoutInput("50000")},
		{name: "entire balance", actor: lights, in: payoutInput("120000")},
		{name: "over balance", actor: lights, in: payoutInput("120000.01"), wantErr: ErrInsufficientBalance},
		{name: "zero amount", actor: lights, in: payoutInput("0"), wantErr: ErrValidation},
		{name: "client cannot withdraw", actor: alice, in: payoutInput("10"), wantErr: ErrForbidden},
		{name: "non numeric account", actor: lights, in: PayoutInput{Amount: decimal.NewFromInt(10), Destination: "BPI", AccountNumber: "12-34"}, wantErr: ErrValidation},
		{name: "short account", actor: lights, in: PayoutInput{Amount: decimal.NewFromInt(10), Destination: "BPI", AccountNumber: "123"}, wantErr: ErrValidation},
		{name: "missing destination", actor: lights, in: PayoutInput{Amount: decimal.NewFromInt(10), AccountNumber: "12345"}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := earningEnv(t)
			p, err := env.svc.RequestPayout(context.Background(), tt.actor, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RequestPayout() err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequestPayout() error: %v", err)
			}
			if p.Status != model.PayoutPending || p.VendorName != lights.ID {
				t.Errorf("payout = %+v", p)
			}
		})
	}
}

func TestPayoutBalanceLifecycle(t *testing.T) {
	env := earningEnv(t)
	ctx := context.Background()

	first, err := env.svc.RequestPayout(ctx, lights, payoutInput("70000"))
	if err != nil {
		t.Fatalf("first payout: %v", err)
	}
	if _, err := env.svc.RequestPayout(ctx, lights, payoutInput("60000")); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("pending amount not reserved: err = %v", err)
	}

	if _, err := env.svc.DecidePayout(ctx, rookie, first.ID, model.PayoutComplete); !errors.Is(err, ErrVerificationRequired) {
		t.Errorf("unverified admin err = %v, want ErrVerificationRequired", err)
	}
	if _, err := env.svc.DecidePayout(ctx, admin, first.ID, "LATER"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown decision err = %v, want ErrValidation", err)
	}

	done, err := env.svc.DecidePayout(ctx, admin, first.ID, model.PayoutComplete)
	if err != nil {
		t.Fatalf("DecidePayout: %v", err)
	}
	if done.Status != model.PayoutCompleted || done.DecidedBy != admin.ID || done.DecidedAt == nil {
		t.Errorf("decided payout = %+v", done)
	}
	if _, err := env.svc.DecidePayout(ctx, admin, first.ID, model.PayoutDecline); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("second decision err = %v, want ErrAlreadyDecided", err)
	}

	second, err := env.svc.RequestPayout(ctx, lights, payoutInput("30000"))
	if err != nil {
		t.Fatalf("second payout: %v", err)
	}
	if _, err := env.svc.DecidePayout(ctx, admin, second.ID, model.PayoutDecline); err != nil {
		t.Fatalf("decline: %v", err)
	}

	bal, err := env.svc.VendorBalance(ctx, lights, lights.ID)
	if err != nil {
		t.Fatalf("VendorBalance: %v", err)
	}
	want := map[string]struct {
		got  decimal.Decimal
		want int64
	}{
		"earned":    {bal.Earned, 120000},
		"pending":   {bal.PendingWithdrawal, 0},
		"withdrawn": {bal.Withdrawn, 70000},
		"available": {bal.Available, 50000},
	}
	for name, c := range want {
		if !c.got.Equal(decimal.NewFromInt(c.want)) {
			t.Errorf("%s = %s, want %d", name, c.got, c.want)
		}
	}

	notes := env.notifier.all()
	if len(notes) != 1 || notes[0].severity != "warning" {
		t.Errorf("notifications = %+v, want one warning for the decline", notes)
	}
}

func TestPayoutVisibility(t *testing.T) {
	env := earningEnv(t)
	ctx := context.Background()
	if _, err := env.svc.RequestPayout(ctx, lights, payoutInput("100")); err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}
	if _, err := env.svc.RequestPayout(ctx, other, payoutInput("100")); err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}

	mine, err := env.svc.ListPayouts(ctx, lights, other.ID)
	if err != nil {
		t.Fatalf("ListPayouts: %v", err)
	}
	if len(mine) != 1 || mine[0].VendorName != lights.ID {
		t.Errorf("vendor listing = %+v", mine)
	}
	all, err := env.svc.ListPayouts(ctx, admin, "")
	if err != nil {
		t.Fatalf("ListPayouts(admin): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin sees %d payouts, want 2", len(all))
	}
	if _, err := env.svc.ListPayouts(ctx, alice, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("client listing err = %v, want ErrForbidden", err)
	}
	if _, err := env.svc.VendorBalance(ctx, other, lights.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign balance err = %v, want ErrForbidden", err)
	}
}
