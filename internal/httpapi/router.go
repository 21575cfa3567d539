package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/parlakisik/event-escrow/internal/middleware"
	"github.com/parlakisik/event-escrow/internal/service"
)

func NewRouter(svc *service.Service, keys *middleware.KeyRing, limiter *middleware.RateLimiter) http.Handler {
	h := NewHandlers(svc)
	api := http.NewServeMux()

	api.HandleFunc("POST /v1/bookings", h.CreateBooking)
	api.HandleFunc("GET /v1/bookings", h.ListBookings)
	api.HandleFunc("GET /v1/bookings/{id}", h.GetBooking)
	api.HandleFunc("POST /v1/bookings/{id}/pay", h.SubmitPayment)
	api.HandleFunc("POST /v1/bookings/{id}/check-in", h.CheckIn)
	api.HandleFunc("POST /v1/bookings/{id}/deliver", h.MarkDelivered)
	api.HandleFunc("POST /v1/bookings/{id}/release", h.ReleaseFunds)
	api.HandleFunc("POST /v1/bookings/{id}/dispute", h.FileDispute)
	api.HandleFunc("POST /v1/bookings/{id}/appeal", h.SubmitAppeal)
	api.HandleFunc("POST /v1/bookings/{id}/mediate", h.Mediate)
	api.HandleFunc("GET /v1/bookings/{id}/dispute", h.GetDisputeCase)
	api.HandleFunc("GET /v1/disputes", h.ListDisputes)

	api.HandleFunc("POST /v1/allocations", h.ProposeAllocation)
	api.HandleFunc("POST /v1/allocations/revise", h.ReviseProposal)

	api.HandleFunc("POST /v1/projects", h.FinalizeProject)
	api.HandleFunc("GET /v1/projects", h.ListProjects)
	api.HandleFunc("GET /v1/projects/{id}", h.GetProject)
	api.HandleFunc("GET /v1/projects/{id}/summary", h.GetProjectSummary)
	api.HandleFunc("PUT /v1/projects/{id}/budget", h.UpdateBudget)
	api.HandleFunc("POST /v1/projects/{id}/slots", h.AddSlot)
	api.HandleFunc("DELETE /v1/projects/{id}/slots/{slotID}", h.RemoveSlot)
	api.HandleFunc("POST /v1/projects/{id}/slots/{slotID}/assign", h.AssignVendor)
	api.HandleFunc("POST /v1/projects/{id}/commission", h.RecordCommission)
	api.HandleFunc("POST /v1/projects/{id}/refund", h.RefundSurplus)
	api.HandleFunc("POST /v1/projects/{id}/decision", h.ClientDecision)
	api.HandleFunc("POST /v1/projects/{id}/resubmit", h.ResubmitProject)

	api.HandleFunc("GET /v1/vendors", h.SearchVendors)
	api.HandleFunc("GET /v1/vendors/top", h.TopPicks)
	api.HandleFunc("GET /v1/vendors/{name}/balance", h.VendorBalance)

	api.HandleFunc("POST /v1/payouts", h.RequestPayout)
	api.HandleFunc("GET /v1/payouts", h.ListPayouts)
	api.HandleFunc("POST /v1/payouts/{id}/decision", h.DecidePayout)

	api.HandleFunc("GET /v1/stats", h.PlatformStats)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("/v1/", applyMiddleware(api,
		middleware.Auth(keys),
		middleware.RateLimit(limiter),
	))

	return applyMiddleware(mux,
		middleware.RequestID,
		middleware.Logging,
		middleware.Recovery,
	)
}

// applyMiddleware wraps handler so the first middleware is outermost.
func applyMiddleware(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
