package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/parlakisik/event-escrow/internal/middleware"
	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/parlakisik/event-escrow/internal/service"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	svc *service.Service
}

func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

func actorOf(r *http.Request) model.Actor {
	a, _ := middleware.GetActor(r.Context())
	return a
}

// decode reads a JSON body into v and reports a validation error on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondServiceError(w, r, fmt.Errorf("%w: invalid request body: %v", service.ErrValidation, err))
		return false
	}
	return true
}

// reply writes v with status, or the mapped error.
func reply[T any](w http.ResponseWriter, r *http.Request, status int, v T, err error) {
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, status, v)
}

// Bookings

// POST /v1/bookings
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookingRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.CreateBooking(r.Context(), actorOf(r), req)
	reply(w, r, http.StatusCreated, b, err)
}

// GET /v1/bookings?client_id&vendor&project_id&status
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.BookingFilter{
		ClientID:   q.Get("client_id"),
		VendorName: q.Get("vendor"),
		ProjectID:  q.Get("project_id"),
		Status:     model.BookingStatus(q.Get("status")),
	}
	out, err := h.svc.ListBookings(r.Context(), actorOf(r), filter)
	reply(w, r, http.StatusOK, map[string]any{"bookings": out}, err)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBooking(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, b, err)
}

func (h *Handlers) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.SubmitPayment(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, b, err)
}

// POST /v1/bookings/{id}/check-in {"lat":..,"lng":..}
func (h *Handlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	var at model.Coordinates
	if !decode(w, r, &at) {
		return
	}
	b, err := h.svc.CheckInAtVenue(r.Context(), actorOf(r), r.PathValue("id"), at)
	reply(w, r, http.StatusOK, b, err)
}

func (h *Handlers) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.MarkDelivered(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, b, err)
}

func (h *Handlers) ReleaseFunds(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.ReleaseFunds(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, b, err)
}

func (h *Handlers) FileDispute(w http.ResponseWriter, r *http.Request) {
	var req service.DisputeRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.FileDispute(r.Context(), actorOf(r), r.PathValue("id"), req)
	reply(w, r, http.StatusOK, b, err)
}

func (h *Handlers) SubmitAppeal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Appeal string `json:"appeal"`
	}
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.SubmitAppeal(r.Context(), actorOf(r), r.PathValue("id"), req.Appeal)
	reply(w, r, http.StatusOK, b, err)
}

func (h *Handlers) Mediate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision model.Decision `json:"decision"`
	}
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.Mediate(r.Context(), actorOf(r), r.PathValue("id"), req.Decision)
	reply(w, r, http.StatusOK, b, err)
}

func (h *Handlers) GetDisputeCase(w http.ResponseWriter, r *http.Request) {
	dc, err := h.svc.GetDisputeCase(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, dc, err)
}

func (h *Handlers) ListDisputes(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListDisputes(r.Context(), actorOf(r))
	reply(w, r, http.StatusOK, map[string]any{"disputes": out}, err)
}

// Allocation

func (h *Handlers) ProposeAllocation(w http.ResponseWriter, r *http.Request) {
	var req service.AllocationRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.ProposeAllocation(r.Context(), actorOf(r), req)
	reply(w, r, http.StatusOK, p, err)
}

// POST /v1/allocations/revise {"proposal":{...}, "total_budget":.., "categories":[..]}
func (h *Handlers) ReviseProposal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Proposal model.Proposal `json:"proposal"`
		service.AllocationRequest
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.ReviseProposal(r.Context(), actorOf(r), req.Proposal, req.AllocationRequest)
	reply(w, r, http.StatusOK, p, err)
}

// Projects

func (h *Handlers) FinalizeProject(w http.ResponseWriter, r *http.Request) {
	var req service.FinalizeRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.FinalizeProject(r.Context(), actorOf(r), req)
	reply(w, r, http.StatusCreated, p, err)
}

// GET /v1/projects?agent_id
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListProjects(r.Context(), actorOf(r), r.URL.Query().Get("agent_id"))
	reply(w, r, http.StatusOK, map[string]any{"projects": out}, err)
}

func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, p, err)
}

func (h *Handlers) GetProjectSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetProjectSummary(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, s, err)
}

func (h *Handlers) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TotalBudget decimal.Decimal `json:"total_budget"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateProjectBudget(r.Context(), actorOf(r), r.PathValue("id"), req.TotalBudget)
	reply(w, r, http.StatusOK, p, err)
}

func (h *Handlers) AddSlot(w http.ResponseWriter, r *http.Request) {
	var req service.SlotRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.AddServiceSlot(r.Context(), actorOf(r), r.PathValue("id"), req)
	reply(w, r, http.StatusCreated, p, err)
}

func (h *Handlers) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.RemoveServiceSlot(r.Context(), actorOf(r), r.PathValue("id"), r.PathValue("slotID"))
	reply(w, r, http.StatusOK, p, err)
}

func (h *Handlers) AssignVendor(w http.ResponseWriter, r *http.Request) {
	var req service.AssignRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.AssignVendor(r.Context(), actorOf(r), r.PathValue("id"), r.PathValue("slotID"), req)
	reply(w, r, http.StatusOK, p, err)
}

func (h *Handlers) RecordCommission(w http.ResponseWriter, r *http.Request) {
	var req service.CommissionRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.RecordCommission(r.Context(), actorOf(r), r.PathValue("id"), req)
	reply(w, r, http.StatusOK, p, err)
}

// RefundSurplus answers 200 for both an applied refund and a no-op; the
// outcome's applied flag tells them apart.
func (h *Handlers) RefundSurplus(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RefundSurplus(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, out, err)
}

func (h *Handlers) ClientDecision(w http.ResponseWriter, r *http.Request) {
	var req service.DecisionRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.ClientDecision(r.Context(), actorOf(r), r.PathValue("id"), req)
	reply(w, r, http.StatusOK, p, err)
}

func (h *Handlers) ResubmitProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.ResubmitProject(r.Context(), actorOf(r), r.PathValue("id"))
	reply(w, r, http.StatusOK, p, err)
}

// Vendors

// GET /v1/vendors?category&city
func (h *Handlers) SearchVendors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.SearchVendors(r.Context(), q.Get("category"), q.Get("city"))
	reply(w, r, http.StatusOK, map[string]any{"vendors": out}, err)
}

// GET /v1/vendors/top?category&city
func (h *Handlers) TopPicks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.TopPicks(r.Context(), q.Get("category"), q.Get("city"))
	reply(w, r, http.StatusOK, map[string]any{"vendors": out}, err)
}

func (h *Handlers) VendorBalance(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.VendorBalance(r.Context(), actorOf(r), r.PathValue("name"))
	reply(w, r, http.StatusOK, b, err)
}

// Payouts

func (h *Handlers) RequestPayout(w http.ResponseWriter, r *http.Request) {
	var req service.PayoutInput
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.RequestPayout(r.Context(), actorOf(r), req)
	reply(w, r, http.StatusCreated, p, err)
}

// GET /v1/payouts?vendor
func (h *Handlers) ListPayouts(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListPayouts(r.Context(), actorOf(r), r.URL.Query().Get("vendor"))
	reply(w, r, http.StatusOK, map[string]any{"payouts": out}, err)
}

func (h *Handlers) DecidePayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision model.PayoutDecision `json:"decision"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.DecidePayout(r.Context(), actorOf(r), r.PathValue("id"), req.Decision)
	reply(w, r, http.StatusOK, p, err)
}

func (h *Handlers) PlatformStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.PlatformStats(r.Context())
	reply(w, r, http.StatusOK, s, err)
}
