package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parlakisik/event-escrow/internal/events"
	"github.com/parlakisik/event-escrow/internal/model"
)

// Mediate closes a dispute with RELEASE, REFUND or SPLIT. Only a verified
// administrator may decide, and the decision is final.
func (s *Service) Mediate(ctx context.Context, actor model.Actor, id string, decision model.Decision) (model.Booking, error) {
	return dispatch(ctx, s, "mediate", func(ctx context.Context) (model.Booking, error) {
		if err := requireVerifiedAdmin(actor); err != nil {
			slog.WarnContext(ctx, "mediation_blocked", "booking_id", id, "admin_id", actor.ID, "error", err)
			return model.Booking{}, err
		}
		event, ok := decision.Event()
		if !ok {
			return model.Booking{}, fmt.Errorf("%w: decision must be RELEASE, REFUND or SPLIT, got %q", ErrValidation, decision)
		}

		b, err := s.transition(ctx, actor, id, event, events.EventDisputeResolved, nil,
			func(b *model.Booking, now time.Time) {
				b.Resolution = &model.Resolution{Decision: decision, AdminID: actor.ID, DecidedAt: now}
			})
		if err != nil {
			return model.Booking{}, err
		}

		price := amount(b.Price)
		slog.InfoContext(ctx, "dispute_resolved",
			"booking_id", b.ID,
			"decision", string(decision),
			"admin_id", actor.ID,
			"vendor_amount", s.vendorEarning(b, price).StringFixed(2),
			"client_refund", s.clientRefund(b, price).StringFixed(2),
		)
		return b, nil
	})
}

// GetDisputeCase returns a disputed booking with its chat log as evidence.
// Unverified administrators may read cases.
func (s *Service) GetDisputeCase(ctx context.Context, actor model.Actor, id string) (model.DisputeCase, error) {
	return dispatch(ctx, s, "get dispute case", func(ctx context.Context) (model.DisputeCase, error) {
		if err := requireRole(actor, model.RoleAdmin); err != nil {
			return model.DisputeCase{}, err
		}
		b, err := s.store.GetBooking(ctx, id)
		if err != nil {
			return model.DisputeCase{}, storeErr("load booking", err)
		}
		if b.Dispute == nil {
			return model.DisputeCase{}, fmt.Errorf("booking %s has no dispute: %w", id, ErrNotDisputed)
		}
		chat, err := s.chats.GetChatLog(ctx, id)
		if err != nil {
			return model.DisputeCase{}, remoteErr("load chat log", err)
		}
		if chat == nil {
			chat = []model.ChatMessage{}
		}
		return model.DisputeCase{Booking: b, ChatLog: chat}, nil
	})
}

// ListDisputes is the admin queue of open disputes.
func (s *Service) ListDisputes(ctx context.Context, actor model.Actor) ([]model.Booking, error) {
	return dispatch(ctx, s, "list disputes", func(ctx context.Context) ([]model.Booking, error) {
		if err := requireRole(actor, model.RoleAdmin); err != nil {
			return nil, err
		}
		out, err := s.store.ListBookings(ctx, model.BookingFilter{Status: model.BookingStatusDisputed})
		if err != nil {
			return nil, storeErr("list disputes", err)
		}
		return out, nil
	})
}
