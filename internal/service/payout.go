package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parlakisik/event-escrow/internal/events"
	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/shopspring/decimal"
)

type PayoutInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Destination   string          `json:"destination" validate:"required,max=64"`
	AccountNumber string          `json:"account_number" validate:"required,number,min=4,max=34"`
}

// RequestPayout asks to withdraw part of the vendor's available balance.
func (s *Service) RequestPayout(ctx context.Context, actor model.Actor, in PayoutInput) (model.PayoutRequest, error) {
	return dispatch(ctx, s, "request payout", func(ctx context.Context) (model.PayoutRequest, error) {
		if err := requireRole(actor, model.RoleVendor); err != nil {
			return model.PayoutRequest{}, err
		}
		if err := s.check(in); err != nil {
			return model.PayoutRequest{}, err
		}
		if !in.Amount.IsPositive() {
			return model.PayoutRequest{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}

		s.payoutMu.Lock()
		defer s.payoutMu.Unlock()

		bal, err := s.balance(ctx, actor.ID)
		if err != nil {
			return model.PayoutRequest{}, err
		}
		if in.Amount.GreaterThan(bal.Available) {
			return model.PayoutRequest{}, fmt.Errorf("requested %s, available %s: %w",
				in.Amount.StringFixed(2), bal.Available.StringFixed(2), ErrInsufficientBalance)
		}

		p := model.PayoutRequest{
			ID:            newID("po"),
			VendorName:    actor.ID,
			Amount:        in.Amount.StringFixed(2),
			Destination:   in.Destination,
			AccountNumber: in.AccountNumber,
			Status:        model.PayoutPending,
			SubmittedAt:   s.now(),
			Version:       1,
		}
		if err := s.store.CreatePayout(ctx, p); err != nil {
			return model.PayoutRequest{}, storeErr("create payout", err)
		}

		slog.InfoContext(ctx, "payout_requested", "payout_id", p.ID, "vendor_name", p.VendorName, "amount", p.Amount)
		s.publish(ctx, events.EventPayoutRequested, p.ID, map[string]any{
			"vendor_name": p.VendorName,
			"amount":      p.Amount,
		})
		return p, nil
	})
}

// DecidePayout completes or declines a pending payout, exactly once.
func (s *Service) DecidePayout(ctx context.Context, actor model.Actor, id string, decision model.PayoutDecision) (model.PayoutRequest, error) {
	return dispatch(ctx, s, "decide payout", func(ctx context.Context) (model.PayoutRequest, error) {
		if err := requireVerifiedAdmin(actor); err != nil {
			return model.PayoutRequest{}, err
		}
		var status model.PayoutStatus
		switch decision {
		case model.PayoutComplete:
			status = model.PayoutCompleted
		case model.PayoutDecline:
			status = model.PayoutDeclined
		default:
			return model.PayoutRequest{}, fmt.Errorf("%w: decision must be COMPLETE or DECLINE, got %q", ErrValidation, decision)
		}

		p, err := s.store.GetPayout(ctx, id)
		if err != nil {
			return model.PayoutRequest{}, storeErr("load payout", err)
		}
		if p.Status != model.PayoutPending {
			return model.PayoutRequest{}, fmt.Errorf("payout %s is %s: %w", id, p.Status, ErrAlreadyDecided)
		}

		now := s.now()
		p.Status = status
		p.DecidedAt = &now
		p.DecidedBy = actor.ID
		p.Version++
		if err := s.store.UpdatePayout(ctx, p); err != nil {
			return model.PayoutRequest{}, storeErr("update payout", err)
		}

		slog.InfoContext(ctx, "payout_decided", "payout_id", p.ID, "status", string(p.Status), "admin_id", actor.ID)
		s.publish(ctx, events.EventPayoutDecided, p.ID, map[string]any{
			"vendor_name": p.VendorName,
			"amount":      p.Amount,
			"status":      string(p.Status),
		})
		if status == model.PayoutDeclined {
			s.notify(ctx, fmt.Sprintf("payout %s for %s was declined", p.ID, p.VendorName), events.SeverityWarning)
		}
		return p, nil
	})
}

// ListPayouts lists a vendor's payouts. Admins may list everyone's.
func (s *Service) ListPayouts(ctx context.Context, actor model.Actor, vendorName string) ([]model.PayoutRequest, error) {
	return dispatch(ctx, s, "list payouts", func(ctx context.Context) ([]model.PayoutRequest, error) {
		if actor.Role == model.RoleVendor {
			vendorName = actor.ID
		} else if err := requireRole(actor, model.RoleAdmin); err != nil {
			return nil, err
		}
		out, err := s.store.ListPayouts(ctx, vendorName)
		if err != nil {
			return nil, storeErr("list payouts", err)
		}
		return out, nil
	})
}

func canSeeVendor(actor model.Actor, vendorName string) error {
	switch {
	case actor.Role == model.RoleAdmin:
		return nil
	case actor.Role == model.RoleVendor && actor.ID == vendorName:
		return nil
	}
	return fmt.Errorf("balance of %s is private: %w", vendorName, ErrForbidden)
}
