package events

import "time"

// Event envelope for all events
type Envelope struct {
	EventID        string         `json:"event_id"`
	EventType      string         `json:"event_type"`
	SchemaVersion  string         `json:"schema_version"`
	IdempotencyKey string         `json:"idempotency_key"`
	Timestamp      time.Time      `json:"timestamp"`
	Source         string         `json:"source"`
	SubjectID      string         `json:"subject_id,omitempty"`
	Data           map[string]any `json:"data"`
}

// Severity of an operator notification.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event type constants
const (
	// Booking events
	EventBookingCreated   = "booking.created"
	EventBookingPaid      = "booking.paid"
	EventBookingCheckedIn = "booking.checked_in"
	EventBookingDelivered = "booking.delivered"
	EventBookingReleased  = "booking.released"

	// Dispute events
	EventDisputeFiled    = "dispute.filed"
	EventDisputeAppealed = "dispute.appealed"
	EventDisputeResolved = "dispute.resolved"

	// Project events
	EventProjectFinalized   = "project.finalized"
	EventProjectUpdated     = "project.updated"
	EventProjectDecided     = "project.decided"
	EventProjectResubmitted = "project.resubmitted"
	EventSurplusRefunded    = "project.surplus_refunded"

	// Payout events
	EventPayoutRequested = "payout.requested"
	EventPayoutDecided   = "payout.decided"

	// Operator notifications
	EventNotification = "notification"
)
