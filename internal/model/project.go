package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalFeedback ApprovalStatus = "FEEDBACK"
)

type RefundStatus string

const (
	RefundUnset    RefundStatus = "UNSET"
	RefundRefunded RefundStatus = "REFUNDED"
)

type AuditType string

const (
	AuditSupplierPayment AuditType = "SUPPLIER_PAYMENT"
	AuditCommission      AuditType = "COMMISSION"
	AuditRefund          AuditType = "REFUND"
)

// ClientVerdict is the client's answer to a proposed team.
type ClientVerdict string

const (
	VerdictApprove  ClientVerdict = "APPROVE"
	VerdictFeedback ClientVerdict = "FEEDBACK"
)

// ServiceSlot is one category budget inside a project.
type ServiceSlot struct {
	ID         string `json:"id" bson:"id" firestore:"id"`
	Category   string `json:"category" bson:"category" firestore:"category"`
	Budget     string `json:"budget" bson:"budget" firestore:"budget"`             // Decimal as string
	BasePrice  string `json:"base_price" bson:"base_price" firestore:"base_price"` // Decimal as string
	Padded     bool   `json:"is_padded" bson:"is_padded" firestore:"is_padded"`
	VendorID   string `json:"vendor_id,omitempty" bson:"vendor_id,omitempty" firestore:"vendor_id,omitempty"`
	VendorName string `json:"vendor_name,omitempty" bson:"vendor_name,omitempty" firestore:"vendor_name,omitempty"`
}

// Occupied reports whether a vendor has been assigned to the slot.
func (s ServiceSlot) Occupied() bool {
	return s.VendorName != ""
}

// AuditEntry is an immutable record of a fund movement on a project.
type AuditEntry struct {
	ID          string    `json:"id" bson:"id" firestore:"id"`
	Type        AuditType `json:"type" bson:"type" firestore:"type"`
	Amount      string    `json:"amount" bson:"amount" firestore:"amount"` // Decimal as string
	Category    string    `json:"category,omitempty" bson:"category,omitempty" firestore:"category,omitempty"`
	Description string    `json:"description" bson:"description" firestore:"description"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp" firestore:"timestamp"`
}

// Project is an agent's multi-vendor plan for one client event.
type Project struct {
	ID         string    `json:"id" bson:"_id" firestore:"id"`
	AgentID    string    `json:"agent_id" bson:"agent_id" firestore:"agent_id"`
	ClientID   string    `json:"client_id,omitempty" bson:"client_id,omitempty" firestore:"client_id,omitempty"`
	ClientName string    `json:"client_name" bson:"client_name" firestore:"client_name"`
	TargetDate time.Time `json:"target_date" bson:"target_date" firestore:"target_date"`

	TotalBudget       string         `json:"total_budget" bson:"total_budget" firestore:"total_budget"` // Decimal as string
	ApprovalStatus    ApprovalStatus `json:"approval_status" bson:"approval_status" firestore:"approval_status"`
	Feedback          string         `json:"feedback,omitempty" bson:"feedback,omitempty" firestore:"feedback,omitempty"`
	RefundStatus      RefundStatus   `json:"refund_status" bson:"refund_status" firestore:"refund_status"`
	FinalSupplierCost string         `json:"final_supplier_cost,omitempty" bson:"final_supplier_cost,omitempty" firestore:"final_supplier_cost,omitempty"`

	Slots      []ServiceSlot `json:"slots" bson:"slots" firestore:"slots"`
	AuditTrail []AuditEntry  `json:"audit_trail" bson:"audit_trail" firestore:"audit_trail"`

	Version   int64     `json:"version" bson:"version" firestore:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" firestore:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" firestore:"updated_at"`
}

// SlotStatus reports whether a slot is covered by a paid booking.
type SlotStatus struct {
	SlotID    string `json:"slot_id"`
	Category  string `json:"category"`
	Secured   bool   `json:"secured"`
	BookingID string `json:"booking_id,omitempty"`
}

// ProjectSummary is a project with its derived money figures.
type ProjectSummary struct {
	Project        Project         `json:"project"`
	AllocatedTotal decimal.Decimal `json:"allocated_total"`
	Surplus        decimal.Decimal `json:"surplus"`
	ActualSpent    decimal.Decimal `json:"actual_spent"`
	Slots          []SlotStatus    `json:"slots"`
}

// RefundOutcome is returned by a surplus refund. Applied is false when the
// refund was a no-op; Notice then explains why.
type RefundOutcome struct {
	Project Project         `json:"project"`
	Applied bool            `json:"applied"`
	Surplus decimal.Decimal `json:"surplus"`
	Notice  string          `json:"notice,omitempty"`
}
