package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parlakisik/event-escrow/internal/events"
	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/shopspring/decimal"
)

type FinalizeRequest struct {
	ClientName string         `json:"client_name" validate:"required,max=120"`
	ClientID   string         `json:"client_id"`
	TargetDate time.Time      `json:"target_date"`
	Proposal   model.Proposal `json:"proposal" validate:"-"`
}

type SlotRequest struct {
	Category string          `json:"category" validate:"required"`
	Budget   decimal.Decimal `json:"budget"`
}

type AssignRequest struct {
	VendorID   string          `json:"vendor_id"`
	VendorName string          `json:"vendor_name" validate:"required"`
	Price      decimal.Decimal `json:"price"`
}

type CommissionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=280"`
}

type DecisionRequest struct {
	Verdict  model.ClientVerdict `json:"verdict" validate:"required,oneof=APPROVE FEEDBACK"`
	Feedback string              `json:"feedback" validate:"max=2000"`
}

// FinalizeProject turns a reviewed proposal into a project in one write:
// one slot per category and one supplier payment per matched vendor.
func (s *Service) FinalizeProject(ctx context.Context, actor model.Actor, req FinalizeRequest) (model.Project, error) {
	return dispatch(ctx, s, "finalize project", func(ctx context.Context) (model.Project, error) {
		if err := requireRole(actor, model.RoleAgent); err != nil {
			return model.Project{}, err
		}
		if err := s.check(req); err != nil {
			return model.Project{}, err
		}
		if req.TargetDate.IsZero() {
			return model.Project{}, fmt.Errorf("%w: target_date is required", ErrValidation)
		}
		prop := req.Proposal
		if len(prop.Results) == 0 {
			return model.Project{}, fmt.Errorf("%w: proposal has no categories", ErrValidation)
		}
		if !prop.TotalBudget.IsPositive() {
			return model.Project{}, fmt.Errorf("%w: total budget must be positive", ErrValidation)
		}
		allocated := decimal.Zero
		for _, r := range prop.Results {
			allocated = allocated.Add(r.AllocatedAmount)
		}
		if !allocated.Equal(prop.TotalBudget) {
			return model.Project{}, fmt.Errorf("%w: allocations sum to %s but budget is %s",
				ErrValidation, allocated.StringFixed(2), prop.TotalBudget.StringFixed(2))
		}

		now := s.now()
		p := model.Project{
			ID:             newID("prj"),
			AgentID:        actor.ID,
			ClientID:       req.ClientID,
			ClientName:     req.ClientName,
			TargetDate:     req.TargetDate,
			TotalBudget:    prop.TotalBudget.StringFixed(2),
			ApprovalStatus: model.ApprovalPending,
			RefundStatus:   model.RefundUnset,
			Slots:          make([]model.ServiceSlot, 0, len(prop.Results)),
			AuditTrail:     []model.AuditEntry{},
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for _, r := range prop.Results {
			slot := model.ServiceSlot{
				ID:        newID("slot"),
				Category:  r.Category,
				Budget:    r.AllocatedAmount.StringFixed(2),
				BasePrice: "0.00",
				Padded:    r.IsPadded,
			}
			if r.Match != nil {
				slot.VendorID = r.Match.ID
				slot.VendorName = r.Match.Name
				slot.BasePrice = amount(r.Match.StartingPrice).StringFixed(2)
				p.AuditTrail = append(p.AuditTrail, supplierPayment(r.Category, r.Match.Name, r.AllocatedAmount, now))
			}
			p.Slots = append(p.Slots, slot)
		}

		if err := s.store.CreateProject(ctx, p); err != nil {
			return model.Project{}, storeErr("create project", err)
		}

		slog.InfoContext(ctx, "project_finalized",
			"project_id", p.ID,
			"agent_id", p.AgentID,
			"slots", len(p.Slots),
			"supplier_payments", len(p.AuditTrail),
			"total_budget", p.TotalBudget,
		)
		s.publish(ctx, events.EventProjectFinalized, p.ID, map[string]any{
			"agent_id":     p.AgentID,
			"client_name":  p.ClientName,
			"total_budget": p.TotalBudget,
			"slots":        len(p.Slots),
		})
		return p, nil
	})
}

func supplierPayment(category, vendor string, amt decimal.Decimal, at time.Time) model.AuditEntry {
	return model.AuditEntry{
		ID:          newID("aud"),
		Type:        model.AuditSupplierPayment,
		Amount:      amt.StringFixed(2),
		Category:    category,
		Description: fmt.Sprintf("Supplier payment to %s for %s", vendor, category),
		Timestamp:   at,
	}
}

func (s *Service) AddServiceSlot(ctx context.Context, actor model.Actor, projectID string, req SlotRequest) (model.Project, error) {
	return dispatch(ctx, s, "add slot", func(ctx context.Context) (model.Project, error) {
		if err := s.check(req); err != nil {
			return model.Project{}, err
		}
		if !req.Budget.IsPositive() {
			return model.Project{}, fmt.Errorf("%w: slot budget must be positive", ErrValidation)
		}
		return s.mutateProject(ctx, actor, projectID, "add_slot", func(p *model.Project, now time.Time) error {
			if err := unlocked(p); err != nil {
				return err
			}
			p.Slots = append(p.Slots, model.ServiceSlot{
				ID:        newID("slot"),
				Category:  strings.TrimSpace(req.Category),
				Budget:    req.Budget.StringFixed(2),
				BasePrice: "0.00",
			})
			return nil
		})
	})
}

func (s *Service) RemoveServiceSlot(ctx context.Context, actor model.Actor, projectID, slotID string) (model.Project, error) {
	return dispatch(ctx, s, "remove slot", func(ctx context.Context) (model.Project, error) {
		return s.mutateProject(ctx, actor, projectID, "remove_slot", func(p *model.Project, now time.Time) error {
			if err := unlocked(p); err != nil {
				return err
			}
			i, err := findSlot(p, slotID)
			if err != nil {
				return err
			}
			if p.Slots[i].Occupied() {
				return fmt.Errorf("slot %s is booked with %s: %w", slotID, p.Slots[i].VendorName, ErrSlotOccupied)
			}
			p.Slots = append(p.Slots[:i], p.Slots[i+1:]...)
			return nil
		})
	})
}

// AssignVendor fills an empty slot and records the supplier payment.
func (s *Service) AssignVendor(ctx context.Context, actor model.Actor, projectID, slotID string, req AssignRequest) (model.Project, error) {
	return dispatch(ctx, s, "assign vendor", func(ctx context.Context) (model.Project, error) {
		if err := s.check(req); err != nil {
			return model.Project{}, err
		}
		if !req.Price.IsPositive() {
			return model.Project{}, fmt.Errorf("%w: vendor price must be positive", ErrValidation)
		}
		return s.mutateProject(ctx, actor, projectID, "assign_vendor", func(p *model.Project, now time.Time) error {
			if err := unlocked(p); err != nil {
				return err
			}
			i, err := findSlot(p, slotID)
			if err != nil {
				return err
			}
			slot := &p.Slots[i]
			if slot.Occupied() {
				return fmt.Errorf("slot %s is booked with %s: %w", slotID, slot.VendorName, ErrSlotOccupied)
			}
			budget := amount(slot.Budget)
			if req.Price.GreaterThan(budget) {
				return fmt.Errorf("%w: vendor price %s exceeds slot budget %s",
					ErrValidation, req.Price.StringFixed(2), budget.StringFixed(2))
			}
			slot.VendorID = req.VendorID
			slot.VendorName = req.VendorName
			slot.BasePrice = req.Price.StringFixed(2)
			slot.Padded = budget.GreaterThan(s.settings.PaddingThreshold.Mul(req.Price))
			p.AuditTrail = append(p.AuditTrail, supplierPayment(slot.Category, req.VendorName, budget, now))
			return nil
		})
	})
}

func (s *Service) UpdateProjectBudget(ctx context.Context, actor model.Actor, projectID string, total decimal.Decimal) (model.Project, error) {
	return dispatch(ctx, s, "update budget", func(ctx context.Context) (model.Project, error) {
		if !total.IsPositive() {
			return model.Project{}, fmt.Errorf("%w: total budget must be positive", ErrValidation)
		}
		return s.mutateProject(ctx, actor, projectID, "update_budget", func(p *model.Project, now time.Time) error {
			if err := unlocked(p); err != nil {
				return err
			}
			p.TotalBudget = total.StringFixed(2)
			return nil
		})
	})
}

func (s *Service) RecordCommission(ctx context.Context, actor model.Actor, projectID string, req CommissionRequest) (model.Project, error) {
	return dispatch(ctx, s, "record commission", func(ctx context.Context) (model.Project, error) {
		if err := s.check(req); err != nil {
			return model.Project{}, err
		}
		if !req.Amount.IsPositive() {
			return model.Project{}, fmt.Errorf("%w: commission must be positive", ErrValidation)
		}
		desc := req.Description
		if desc == "" {
			desc = "Agent commission"
		}
		return s.mutateProject(ctx, actor, projectID, "record_commission", func(p *model.Project, now time.Time) error {
			p.AuditTrail = append(p.AuditTrail, model.AuditEntry{
				ID:          newID("aud"),
				Type:        model.AuditCommission,
				Amount:      req.Amount.StringFixed(2),
				Description: desc,
				Timestamp:   now,
			})
			return nil
		})
	})
}

// errRefundNoop carries the notice for a refund that has nothing to do.
type errRefundNoop struct {
	notice  string
	surplus decimal.Decimal
}

func (e errRefundNoop) Error() string { return e.notice }

// RefundSurplus returns the unallocated budget to the client exactly once.
// Repeating it, or calling it with no surplus, is reported as a notice.
func (s *Service) RefundSurplus(ctx context.Context, actor model.Actor, projectID string) (model.RefundOutcome, error) {
	return dispatch(ctx, s, "refund surplus", func(ctx context.Context) (model.RefundOutcome, error) {
		var surplus decimal.Decimal
		p, err := s.mutateProject(ctx, actor, projectID, "refund_surplus", func(p *model.Project, now time.Time) error {
			allocated := slotTotal(p)
			surplus = amount(p.TotalBudget).Sub(allocated)
			if p.RefundStatus == model.RefundRefunded {
				return errRefundNoop{notice: "surplus already refunded", surplus: decimal.Zero}
			}
			if !surplus.IsPositive() {
				return errRefundNoop{notice: "no surplus to refund", surplus: surplus}
			}
			p.AuditTrail = append(p.AuditTrail, model.AuditEntry{
				ID:          newID("aud"),
				Type:        model.AuditRefund,
				Amount:      surplus.StringFixed(2),
				Description: fmt.Sprintf("Surplus refund to %s", p.ClientName),
				Timestamp:   now,
			})
			p.FinalSupplierCost = allocated.StringFixed(2)
			p.RefundStatus = model.RefundRefunded
			return nil
		})

		var noop errRefundNoop
		if errors.As(err, &noop) {
			current, gerr := s.store.GetProject(ctx, projectID)
			if gerr != nil {
				return model.RefundOutcome{}, storeErr("load project", gerr)
			}
			s.notify(ctx, fmt.Sprintf("project %s: %s", projectID, noop.notice), events.SeverityInfo)
			return model.RefundOutcome{Project: current, Applied: false, Surplus: noop.surplus, Notice: noop.notice}, nil
		}
		if err != nil {
			return model.RefundOutcome{}, err
		}

		slog.InfoContext(ctx, "surplus_refunded",
			"project_id", p.ID,
			"amount", surplus.StringFixed(2),
			"final_supplier_cost", p.FinalSupplierCost,
		)
		s.publish(ctx, events.EventSurplusRefunded, p.ID, map[string]any{
			"amount":              surplus.StringFixed(2),
			"final_supplier_cost": p.FinalSupplierCost,
		})
		return model.RefundOutcome{Project: p, Applied: true, Surplus: surplus}, nil
	})
}

// ClientDecision records the client's verdict on a pending proposal.
func (s *Service) ClientDecision(ctx context.Context, actor model.Actor, projectID string, req DecisionRequest) (model.Project, error) {
	return dispatch(ctx, s, "client decision", func(ctx context.Context) (model.Project, error) {
		if err := requireRole(actor, model.RoleClient); err != nil {
			return model.Project{}, err
		}
		if err := s.check(req); err != nil {
			return model.Project{}, err
		}
		if req.Verdict == model.VerdictFeedback && strings.TrimSpace(req.Feedback) == "" {
			return model.Project{}, fmt.Errorf("%w: feedback text is required", ErrValidation)
		}

		p, err := s.updateProject(ctx, projectID, func(p *model.Project, now time.Time) error {
			if p.ClientID != "" && p.ClientID != actor.ID {
				return fmt.Errorf("project %s belongs to another client: %w", p.ID, ErrForbidden)
			}
			if p.ApprovalStatus != model.ApprovalPending {
				return fmt.Errorf("project is %s, a decision needs a pending proposal: %w", p.ApprovalStatus, ErrInvalidTransition)
			}
			p.ClientID = actor.ID
			if req.Verdict == model.VerdictApprove {
				p.ApprovalStatus = model.ApprovalApproved
				p.Feedback = ""
			} else {
				p.ApprovalStatus = model.ApprovalFeedback
				p.Feedback = strings.TrimSpace(req.Feedback)
			}
			return nil
		})
		if err != nil {
			return model.Project{}, err
		}

		slog.InfoContext(ctx, "project_decided", "project_id", p.ID, "verdict", string(req.Verdict), "client_id", actor.ID)
		s.publish(ctx, events.EventProjectDecided, p.ID, map[string]any{
			"verdict":  string(req.Verdict),
			"feedback": p.Feedback,
		})
		return p, nil
	})
}

// ResubmitProject puts a decided project back in front of the client.
func (s *Service) ResubmitProject(ctx context.Context, actor model.Actor, projectID string) (model.Project, error) {
	return dispatch(ctx, s, "resubmit project", func(ctx context.Context) (model.Project, error) {
		p, err := s.mutateProject(ctx, actor, projectID, "resubmit", func(p *model.Project, now time.Time) error {
			if p.ApprovalStatus == model.ApprovalPending {
				return fmt.Errorf("project is already awaiting the client: %w", ErrInvalidTransition)
			}
			p.ApprovalStatus = model.ApprovalPending
			p.Feedback = ""
			return nil
		})
		if err != nil {
			return model.Project{}, err
		}
		s.publish(ctx, events.EventProjectResubmitted, p.ID, nil)
		return p, nil
	})
}

func (s *Service) GetProject(ctx context.Context, actor model.Actor, projectID string) (model.Project, error) {
	return dispatch(ctx, s, "get project", func(ctx context.Context) (model.Project, error) {
		return s.loadVisibleProject(ctx, actor, projectID)
	})
}

// ListProjects lists an agent's projects. Agents only see their own.
func (s *Service) ListProjects(ctx context.Context, actor model.Actor, agentID string) ([]model.Project, error) {
	return dispatch(ctx, s, "list projects", func(ctx context.Context) ([]model.Project, error) {
		switch actor.Role {
		case model.RoleAgent:
			agentID = actor.ID
		case model.RoleAdmin:
		default:
			return nil, fmt.Errorf("role %q cannot list projects: %w", actor.Role, ErrForbidden)
		}
		out, err := s.store.ListProjects(ctx, agentID)
		if err != nil {
			return nil, storeErr("list projects", err)
		}
		return out, nil
	})
}

// GetProjectSummary derives surplus, actual spend and secured slots.
// Each paid booking of the project secures at most one slot of its category
// whose budget covers the booking price.
func (s *Service) GetProjectSummary(ctx context.Context, actor model.Actor, projectID string) (model.ProjectSummary, error) {
	return dispatch(ctx, s, "project summary", func(ctx context.Context) (model.ProjectSummary, error) {
		p, err := s.loadVisibleProject(ctx, actor, projectID)
		if err != nil {
			return model.ProjectSummary{}, err
		}
		bookings, err := s.store.ListBookings(ctx, model.BookingFilter{ProjectID: p.ID})
		if err != nil {
			return model.ProjectSummary{}, storeErr("list bookings", err)
		}

		allocated := slotTotal(&p)
		sum := model.ProjectSummary{
			Project:        p,
			AllocatedTotal: allocated,
			Surplus:        amount(p.TotalBudget).Sub(allocated),
			ActualSpent:    decimal.Zero,
			Slots:          make([]model.SlotStatus, 0, len(p.Slots)),
		}

		var paid []model.Booking
		for _, b := range bookings {
			if b.Status == model.BookingStatusUnpaid || b.Status == model.BookingStatusRefunded {
				continue
			}
			sum.ActualSpent = sum.ActualSpent.Add(amount(b.Price))
			paid = append(paid, b)
		}

		used := make(map[string]bool, len(paid))
		for _, slot := range p.Slots {
			st := model.SlotStatus{SlotID: slot.ID, Category: slot.Category}
			budget := amount(slot.Budget)
			for _, b := range paid {
				if used[b.ID] || !strings.EqualFold(b.Category, slot.Category) {
					continue
				}
				if amount(b.Price).GreaterThan(budget) {
					continue
				}
				used[b.ID] = true
				st.Secured = true
				st.BookingID = b.ID
				break
			}
			sum.Slots = append(sum.Slots, st)
		}
		return sum, nil
	})
}

func (s *Service) loadVisibleProject(ctx context.Context, actor model.Actor, projectID string) (model.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return model.Project{}, storeErr("load project", err)
	}
	switch {
	case actor.Role == model.RoleAdmin:
	case actor.Role == model.RoleAgent && p.AgentID == actor.ID:
	case actor.Role == model.RoleClient && (p.ClientID == "" || p.ClientID == actor.ID):
	default:
		return model.Project{}, fmt.Errorf("project %s is not visible to %s %s: %w", p.ID, actor.Role, actor.ID, ErrForbidden)
	}
	return p, nil
}

// mutateProject applies fn for the owning agent under the version check.
func (s *Service) mutateProject(ctx context.Context, actor model.Actor, projectID, op string, fn func(*model.Project, time.Time) error) (model.Project, error) {
	if err := requireRole(actor, model.RoleAgent); err != nil {
		return model.Project{}, err
	}
	p, err := s.updateProject(ctx, projectID, func(p *model.Project, now time.Time) error {
		if p.AgentID != actor.ID {
			return fmt.Errorf("project %s belongs to another agent: %w", p.ID, ErrForbidden)
		}
		return fn(p, now)
	})
	if err != nil {
		return model.Project{}, err
	}
	slog.InfoContext(ctx, "project_updated", "project_id", p.ID, "operation", op, "version", p.Version)
	s.publish(ctx, events.EventProjectUpdated, p.ID, map[string]any{"operation": op, "version": p.Version})
	return p, nil
}

func (s *Service) updateProject(ctx context.Context, projectID string, fn func(*model.Project, time.Time) error) (model.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return model.Project{}, storeErr("load project", err)
	}
	now := s.now()
	if err := fn(&p, now); err != nil {
		return model.Project{}, err
	}
	p.Version++
	p.UpdatedAt = now
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return model.Project{}, storeErr("update project", err)
	}
	return p, nil
}

func unlocked(p *model.Project) error {
	if p.RefundStatus == model.RefundRefunded {
		return fmt.Errorf("project %s: %w", p.ID, ErrProjectLocked)
	}
	return nil
}

func findSlot(p *model.Project, slotID string) (int, error) {
	for i := range p.Slots {
		if p.Slots[i].ID == slotID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("slot %s in project %s: %w", slotID, p.ID, ErrNotFound)
}

func slotTotal(p *model.Project) decimal.Decimal {
	total := decimal.Zero
	for _, slot := range p.Slots {
		total = total.Add(amount(slot.Budget))
	}
	return total
}
