package service

import (
	"context"

	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/shopspring/decimal"
)

// All figures below are derived from booking status on every read.

func (s *Service) mobilization(b model.Booking, price decimal.Decimal) decimal.Decimal {
	if !b.MobilizationReleased {
		return decimal.Zero
	}
	return price.Mul(s.settings.MobilizationRate).Round(2)
}

// vendorEarning is what the vendor has been paid out of escrow so far.
func (s *Service) vendorEarning(b model.Booking, price decimal.Decimal) decimal.Decimal {
	mob := s.mobilization(b, price)
	switch b.Status {
	case model.BookingStatusReleased:
		return price
	case model.BookingStatusSplit:
		return decimal.Max(price.Mul(s.settings.SplitRate).Round(2), mob)
	}
	return mob
}

// clientRefund is what returns to the client when a dispute closes against the vendor.
func (s *Service) clientRefund(b model.Booking, price decimal.Decimal) decimal.Decimal {
	switch b.Status {
	case model.BookingStatusRefunded, model.BookingStatusSplit:
		return price.Sub(s.vendorEarning(b, price))
	}
	return decimal.Zero
}

func (s *Service) platformFee(b model.Booking, price decimal.Decimal) decimal.Decimal {
	switch b.Status {
	case model.BookingStatusReleased, model.BookingStatusSplit:
		return price.Mul(s.settings.PlatformFeeRate).Round(2)
	}
	return decimal.Zero
}

// escrowHeld is the part of a paid booking still waiting for a decision.
func (s *Service) escrowHeld(b model.Booking, price decimal.Decimal) decimal.Decimal {
	if b.Status == model.BookingStatusUnpaid || b.Status.Terminal() {
		return decimal.Zero
	}
	return price.Sub(s.mobilization(b, price))
}

func (s *Service) PlatformStats(ctx context.Context) (model.PlatformStats, error) {
	return dispatch(ctx, s, "platform stats", func(ctx context.Context) (model.PlatformStats, error) {
		bookings, err := s.store.ListBookings(ctx, model.BookingFilter{})
		if err != nil {
			return model.PlatformStats{}, storeErr("list bookings", err)
		}
		return s.aggregate(bookings), nil
	})
}

func (s *Service) aggregate(bookings []model.Booking) model.PlatformStats {
	stats := model.PlatformStats{
		GMV:             decimal.Zero,
		EscrowSecured:   decimal.Zero,
		EscrowHeld:      decimal.Zero,
		PlatformRevenue: decimal.Zero,
		ClientRefunds:   decimal.Zero,
		ByStatus:        make(map[model.BookingStatus]int, len(model.AllBookingStatuses)),
	}
	for _, st := range model.AllBookingStatuses {
		stats.ByStatus[st] = 0
	}

	for _, b := range bookings {
		stats.Bookings++
		stats.ByStatus[b.Status]++
		if b.Status == model.BookingStatusUnpaid {
			continue
		}
		price := amount(b.Price)
		stats.EscrowSecured = stats.EscrowSecured.Add(price)
		stats.EscrowHeld = stats.EscrowHeld.Add(s.escrowHeld(b, price))
		stats.PlatformRevenue = stats.PlatformRevenue.Add(s.platformFee(b, price))
		stats.ClientRefunds = stats.ClientRefunds.Add(s.clientRefund(b, price))
	}
	stats.GMV = stats.EscrowSecured
	return stats
}

// VendorBalance is earnings minus pending and completed withdrawals.
func (s *Service) VendorBalance(ctx context.Context, actor model.Actor, vendorName string) (model.VendorBalance, error) {
	return dispatch(ctx, s, "vendor balance", func(ctx context.Context) (model.VendorBalance, error) {
		if err := canSeeVendor(actor, vendorName); err != nil {
			return model.VendorBalance{}, err
		}
		return s.balance(ctx, vendorName)
	})
}

func (s *Service) balance(ctx context.Context, vendorName string) (model.VendorBalance, error) {
	bookings, err := s.store.ListBookings(ctx, model.BookingFilter{VendorName: vendorName})
	if err != nil {
		return model.VendorBalance{}, storeErr("list bookings", err)
	}
	payouts, err := s.store.ListPayouts(ctx, vendorName)
	if err != nil {
		return model.VendorBalance{}, storeErr("list payouts", err)
	}

	bal := model.VendorBalance{
		VendorName:        vendorName,
		Earned:            decimal.Zero,
		PendingWithdrawal: decimal.Zero,
		Withdrawn:         decimal.Zero,
	}
	for _, b := range bookings {
		bal.Earned = bal.Earned.Add(s.vendorEarning(b, amount(b.Price)))
	}
	for _, p := range payouts {
		switch p.Status {
		case model.PayoutPending:
			bal.PendingWithdrawal = bal.PendingWithdrawal.Add(amount(p.Amount))
		case model.PayoutCompleted:
			bal.Withdrawn = bal.Withdrawn.Add(amount(p.Amount))
		}
	}
	bal.Available = bal.Earned.Sub(bal.PendingWithdrawal).Sub(bal.Withdrawn)
	return bal, nil
}
