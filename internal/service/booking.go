package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parlakisik/event-escrow/internal/events"
	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/shopspring/decimal"
)

type CreateBookingRequest struct {
	ClientID   string            `json:"client_id"`
	VendorName string            `json:"vendor_name" validate:"required"`
	ProjectID  string            `json:"project_id"`
	Category   string            `json:"category" validate:"required"`
	Price      decimal.Decimal   `json:"price"`
	Venue      model.Coordinates `json:"venue"`
	EventDate  *time.Time        `json:"event_date,omitempty"`
}

type DisputeRequest struct {
	Category    string `json:"category" validate:"required,oneof=NO_SHOW POOR_QUALITY INCOMPLETE LATE OTHER"`
	Reason      string `json:"reason" validate:"required"`
	EvidenceRef string `json:"evidence_ref" validate:"omitempty,max=512"`
}

// CreateBooking records an UNPAID booking. Clients book for themselves;
// agents book on behalf of a client inside one of their projects.
func (s *Service) CreateBooking(ctx context.Context, actor model.Actor, req CreateBookingRequest) (model.Booking, error) {
	return dispatch(ctx, s, "create booking", func(ctx context.Context) (model.Booking, error) {
		if err := requireRole(actor, model.RoleClient, model.RoleAgent); err != nil {
			return model.Booking{}, err
		}
		if actor.Role == model.RoleClient {
			req.ClientID = actor.ID
		}
		if err := s.check(req); err != nil {
			return model.Booking{}, err
		}
		if req.ClientID == "" {
			return model.Booking{}, fmt.Errorf("%w: client_id is required", ErrValidation)
		}
		if !req.Price.IsPositive() {
			return model.Booking{}, fmt.Errorf("%w: price must be positive", ErrValidation)
		}

		now := s.now()
		b := model.Booking{
			ID:         newID("bk"),
			ClientID:   req.ClientID,
			VendorName: req.VendorName,
			ProjectID:  req.ProjectID,
			Category:   req.Category,
			Price:      req.Price.StringFixed(2),
			Venue:      req.Venue,
			EventDate:  req.EventDate,
			Status:     model.BookingStatusUnpaid,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if req.ProjectID != "" {
			p, err := s.store.GetProject(ctx, req.ProjectID)
			if err != nil {
				return model.Booking{}, storeErr("load project", err)
			}
			if actor.Role == model.RoleAgent && p.AgentID != actor.ID {
				return model.Booking{}, fmt.Errorf("project %s belongs to another agent: %w", p.ID, ErrForbidden)
			}
			b.AgentID = p.AgentID
		} else if actor.Role == model.RoleAgent {
			b.AgentID = actor.ID
		}

		if err := s.store.CreateBooking(ctx, b); err != nil {
			return model.Booking{}, storeErr("create booking", err)
		}

		slog.InfoContext(ctx, "booking_created",
			"booking_id", b.ID,
			"client_id", b.ClientID,
			"vendor_name", b.VendorName,
			"price", b.Price,
		)
		s.publish(ctx, events.EventBookingCreated, b.ID, map[string]any{
			"client_id":   b.ClientID,
			"vendor_name": b.VendorName,
			"price":       b.Price,
		})
		return b, nil
	})
}

func (s *Service) GetBooking(ctx context.Context, actor model.Actor, id string) (model.Booking, error) {
	return dispatch(ctx, s, "get booking", func(ctx context.Context) (model.Booking, error) {
		b, err := s.store.GetBooking(ctx, id)
		if err != nil {
			return model.Booking{}, storeErr("load booking", err)
		}
		if err := owns(actor, b); err != nil {
			return model.Booking{}, err
		}
		return b, nil
	})
}

// ListBookings scopes the filter to the actor: clients see their own
// bookings, vendors theirs. Agents and admins may filter freely.
func (s *Service) ListBookings(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]model.Booking, error) {
	return dispatch(ctx, s, "list bookings", func(ctx context.Context) ([]model.Booking, error) {
		switch actor.Role {
		case model.RoleClient:
			filter.ClientID = actor.ID
		case model.RoleVendor:
			filter.VendorName = actor.ID
		}
		if filter.Status != "" && !filter.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
		}
		out, err := s.store.ListBookings(ctx, filter)
		if err != nil {
			return nil, storeErr("list bookings", err)
		}
		return out, nil
	})
}

// SubmitPayment moves an UNPAID booking into escrow.
func (s *Service) SubmitPayment(ctx context.Context, actor model.Actor, id string) (model.Booking, error) {
	return dispatch(ctx, s, "submit payment", func(ctx context.Context) (model.Booking, error) {
		return s.transition(ctx, actor, id, model.EventPay, events.EventBookingPaid, nil, nil)
	})
}

// CheckInAtVenue releases the mobilization share once the vendor is on site.
func (s *Service) CheckInAtVenue(ctx context.Context, actor model.Actor, id string, at model.Coordinates) (model.Booking, error) {
	return dispatch(ctx, s, "check in", func(ctx context.Context) (model.Booking, error) {
		if err := s.check(at); err != nil {
			return model.Booking{}, err
		}
		guard := func(b model.Booking) error {
			d := distanceMeters(at, b.Venue)
			if d > s.settings.CheckInRadiusMeters {
				return fmt.Errorf("vendor is %.0f m from the venue, check-in radius is %.0f m: %w",
					d, s.settings.CheckInRadiusMeters, ErrTooFarFromVenue)
			}
			return nil
		}
		return s.transition(ctx, actor, id, model.EventRelease20, events.EventBookingCheckedIn, guard,
			func(b *model.Booking, _ time.Time) { b.MobilizationReleased = true })
	})
}

func (s *Service) MarkDelivered(ctx context.Context, actor model.Actor, id string) (model.Booking, error) {
	return dispatch(ctx, s, "mark delivered", func(ctx context.Context) (model.Booking, error) {
		return s.transition(ctx, actor, id, model.EventComplete, events.EventBookingDelivered, nil, nil)
	})
}

// ReleaseFunds is the client's confirmation that the service was delivered.
func (s *Service) ReleaseFunds(ctx context.Context, actor model.Actor, id string) (model.Booking, error) {
	return dispatch(ctx, s, "release funds", func(ctx context.Context) (model.Booking, error) {
		return s.transition(ctx, actor, id, model.EventRelease, events.EventBookingReleased, nil, nil)
	})
}

func (s *Service) FileDispute(ctx context.Context, actor model.Actor, id string, req DisputeRequest) (model.Booking, error) {
	return dispatch(ctx, s, "file dispute", func(ctx context.Context) (model.Booking, error) {
		if err := s.check(req); err != nil {
			return model.Booking{}, err
		}
		if err := s.minLen("reason", req.Reason, s.settings.DisputeReasonMinLen); err != nil {
			return model.Booking{}, err
		}
		return s.transition(ctx, actor, id, model.EventDispute, events.EventDisputeFiled, nil,
			func(b *model.Booking, now time.Time) {
				b.Dispute = &model.Dispute{
					Category:    req.Category,
					Reason:      req.Reason,
					EvidenceRef: req.EvidenceRef,
					FiledAt:     now,
				}
			})
	})
}

// SubmitAppeal attaches the vendor's side of the story. A later appeal
// replaces an earlier one; the status stays DISPUTED.
func (s *Service) SubmitAppeal(ctx context.Context, actor model.Actor, id, text string) (model.Booking, error) {
	return dispatch(ctx, s, "submit appeal", func(ctx context.Context) (model.Booking, error) {
		if err := s.minLen("appeal", text, s.settings.AppealMinLen); err != nil {
			return model.Booking{}, err
		}
		return s.transition(ctx, actor, id, model.EventAppeal, events.EventDisputeAppealed, nil,
			func(b *model.Booking, now time.Time) {
				if b.Dispute == nil {
					b.Dispute = &model.Dispute{}
				}
				b.Dispute.VendorAppeal = text
				b.Dispute.AppealedAt = &now
			})
	})
}

func (s *Service) minLen(field, value string, n int) error {
	if err := s.validate.Var(value, fmt.Sprintf("required,min=%d", n)); err != nil {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrValidation, field, n)
	}
	return nil
}

// transition applies one lifecycle edge as a compare-and-swap on status.
func (s *Service) transition(
	ctx context.Context,
	actor model.Actor,
	id string,
	event model.BookingEvent,
	eventType string,
	guard func(model.Booking) error,
	mutate func(*model.Booking, time.Time),
) (model.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, storeErr("load booking", err)
	}
	if err := owns(actor, b); err != nil {
		return model.Booking{}, err
	}
	to, err := nextStatus(b.Status, event, actor.Role)
	if err != nil {
		return model.Booking{}, err
	}
	if guard != nil {
		if err := guard(b); err != nil {
			return model.Booking{}, err
		}
	}

	from := b.Status
	now := s.now()
	next := b
	next.Status = to
	next.UpdatedAt = now
	if mutate != nil {
		mutate(&next, now)
	}

	if err := s.store.SwapBooking(ctx, next, from); err != nil {
		return model.Booking{}, storeErr(fmt.Sprintf("%s booking %s", event, id), err)
	}

	slog.InfoContext(ctx, "booking_transitioned",
		"booking_id", id,
		"event", string(event),
		"from", string(from),
		"to", string(to),
		"actor_id", actor.ID,
		"actor_role", string(actor.Role),
	)
	s.publish(ctx, eventType, id, map[string]any{
		"event":       string(event),
		"from":        string(from),
		"to":          string(to),
		"price":       next.Price,
		"vendor_name": next.VendorName,
		"client_id":   next.ClientID,
	})
	return next, nil
}

// owns checks that the actor is a party to the booking. Admins act on any.
func owns(actor model.Actor, b model.Booking) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleClient:
		if b.ClientID == actor.ID {
			return nil
		}
	case model.RoleVendor:
		if b.VendorName == actor.ID {
			return nil
		}
	case model.RoleAgent:
		if b.AgentID != "" && b.AgentID == actor.ID {
			return nil
		}
	}
	return fmt.Errorf("booking %s does not belong to %s %s: %w", b.ID, actor.Role, actor.ID, ErrForbidden)
}
