package model

import "time"

// BookingStatus is the escrow state of a booking.
type BookingStatus string

const (
	BookingStatusUnpaid            BookingStatus = "UNPAID"
	BookingStatusPaid              BookingStatus = "PAID"
	BookingStatusPartiallyReleased BookingStatus = "PARTIALLY_RELEASED"
	BookingStatusCompleted         BookingStatus = "COMPLETED"
	BookingStatusDisputed          BookingStatus = "DISPUTED"
	BookingStatusReleased          BookingStatus = "RELEASED"
	BookingStatusRefunded          BookingStatus = "REFUNDED"
	BookingStatusSplit             BookingStatus = "SPLIT"
)

// AllBookingStatuses lists every status in lifecycle order.
var AllBookingStatuses = []BookingStatus{
	BookingStatusUnpaid,
	BookingStatusPaid,
	BookingStatusPartiallyReleased,
	BookingStatusCompleted,
	BookingStatusDisputed,
	BookingStatusReleased,
	BookingStatusRefunded,
	BookingStatusSplit,
}

// Terminal reports whether no further transition may leave the status.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusReleased, BookingStatusRefunded, BookingStatusSplit:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	for _, known := range AllBookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// BookingEvent is an action that moves a booking along the lifecycle.
type BookingEvent string

const (
	EventPay       BookingEvent = "PAY"
	EventRelease20 BookingEvent = "RELEASE_20"
	EventComplete  BookingEvent = "COMPLETE"
	EventRelease   BookingEvent = "RELEASE"
	EventDispute   BookingEvent = "DISPUTE"
	EventAppeal    BookingEvent = "APPEAL"
	EventRefund    BookingEvent = "REFUND"
	EventSplit     BookingEvent = "SPLIT"
)

// Decision is an administrator's resolution of a disputed booking.
type Decision string

const (
	DecisionRelease Decision = "RELEASE"
	DecisionRefund  Decision = "REFUND"
	DecisionSplit   Decision = "SPLIT"
)

// Event maps a decision onto the lifecycle event it triggers.
func (d Decision) Event() (BookingEvent, bool) {
	switch d {
	case DecisionRelease:
		return EventRelease, true
	case DecisionRefund:
		return EventRefund, true
	case DecisionSplit:
		return EventSplit, true
	}
	return "", false
}

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat" firestore:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" bson:"lng" firestore:"lng" validate:"min=-180,max=180"`
}

// Dispute is attached to a booking once the client files a complaint.
type Dispute struct {
	Category     string     `json:"category" bson:"category" firestore:"category"`
	Reason       string     `json:"reason" bson:"reason" firestore:"reason"`
	EvidenceRef  string     `json:"evidence_ref,omitempty" bson:"evidence_ref,omitempty" firestore:"evidence_ref,omitempty"`
	VendorAppeal string     `json:"vendor_appeal,omitempty" bson:"vendor_appeal,omitempty" firestore:"vendor_appeal,omitempty"`
	FiledAt      time.Time  `json:"filed_at" bson:"filed_at" firestore:"filed_at"`
	AppealedAt   *time.Time `json:"appealed_at,omitempty" bson:"appealed_at,omitempty" firestore:"appealed_at,omitempty"`
}

// Resolution records the administrator decision that closed a dispute.
type Resolution struct {
	Decision  Decision  `json:"decision" bson:"decision" firestore:"decision"`
	AdminID   string    `json:"admin_id" bson:"admin_id" firestore:"admin_id"`
	DecidedAt time.Time `json:"decided_at" bson:"decided_at" firestore:"decided_at"`
}

// Booking is one client to vendor engagement held in escrow.
type Booking struct {
	ID         string `json:"id" bson:"_id" firestore:"id"`
	ClientID   string `json:"client_id" bson:"client_id" firestore:"client_id"`
	VendorName string `json:"vendor_name" bson:"vendor_name" firestore:"vendor_name"`
	ProjectID  string `json:"project_id,omitempty" bson:"project_id,omitempty" firestore:"project_id,omitempty"`
	AgentID    string `json:"agent_id,omitempty" bson:"agent_id,omitempty" firestore:"agent_id,omitempty"`
	Category   string `json:"category" bson:"category" firestore:"category"`
	Price      string `json:"price" bson:"price" firestore:"price"` // Decimal as string

	Venue     Coordinates `json:"venue" bson:"venue" firestore:"venue"`
	EventDate *time.Time  `json:"event_date,omitempty" bson:"event_date,omitempty" firestore:"event_date,omitempty"`

	Status               BookingStatus `json:"status" bson:"status" firestore:"status"`
	MobilizationReleased bool          `json:"mobilization_released" bson:"mobilization_released" firestore:"mobilization_released"`

	Dispute    *Dispute    `json:"dispute,omitempty" bson:"dispute,omitempty" firestore:"dispute,omitempty"`
	Resolution *Resolution `json:"resolution,omitempty" bson:"resolution,omitempty" firestore:"resolution,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" firestore:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" firestore:"updated_at"`
}

// BookingFilter narrows a booking listing. Empty fields match everything.
type BookingFilter struct {
	ClientID   string
	VendorName string
	ProjectID  string
	Status     BookingStatus
}

// Matches reports whether b satisfies every non-empty field of f.
func (f BookingFilter) Matches(b Booking) bool {
	if f.ClientID != "" && b.ClientID != f.ClientID {
		return false
	}
	if f.VendorName != "" && b.VendorName != f.VendorName {
		return false
	}
	if f.ProjectID != "" && b.ProjectID != f.ProjectID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

// ChatMessage is one line of the conversation between client and vendor,
// consumed as mediation evidence.
type ChatMessage struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// DisputeCase bundles what an administrator sees before deciding.
type DisputeCase struct {
	Booking Booking       `json:"booking"`
	ChatLog []ChatMessage `json:"chat_log"`
}
