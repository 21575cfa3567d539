package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "PENDING_WITHDRAWAL"
	PayoutCompleted PayoutStatus = "WITHDRAWAL_COMPLETED"
	PayoutDeclined  PayoutStatus = "DECLINED"
)

type PayoutDecision string

const (
	PayoutComplete PayoutDecision = "COMPLETE"
	PayoutDecline  PayoutDecision = "DECLINE"
)

// PayoutRequest is a vendor's request to withdraw accumulated balance.
type PayoutRequest struct {
	ID            string       `json:"id" bson:"_id" firestore:"id"`
	VendorName    string       `json:"vendor_name" bson:"vendor_name" firestore:"vendor_name"`
	Amount        string       `json:"amount" bson:"amount" firestore:"amount"` // Decimal as string
	Destination   string       `json:"destination" bson:"destination" firestore:"destination"`
	AccountNumber string       `json:"account_number" bson:"account_number" firestore:"account_number"`
	Status        PayoutStatus `json:"status" bson:"status" firestore:"status"`
	SubmittedAt   time.Time    `json:"submitted_at" bson:"submitted_at" firestore:"submitted_at"`
	DecidedAt     *time.Time   `json:"decided_at,omitempty" bson:"decided_at,omitempty" firestore:"decided_at,omitempty"`
	DecidedBy     string       `json:"decided_by,omitempty" bson:"decided_by,omitempty" firestore:"decided_by,omitempty"`
	Version       int64        `json:"version" bson:"version" firestore:"version"`
}

// VendorBalance is derived from booking statuses and payout requests.
type VendorBalance struct {
	VendorName        string          `json:"vendor_name"`
	Earned            decimal.Decimal `json:"earned"`
	PendingWithdrawal decimal.Decimal `json:"pending_withdrawal"`
	Withdrawn         decimal.Decimal `json:"withdrawn"`
	Available         decimal.Decimal `json:"available"`
}

// PlatformStats are the escrow aggregates, recomputed from statuses on read.
type PlatformStats struct {
	GMV             decimal.Decimal       `json:"gmv"`
	EscrowSecured   decimal.Decimal       `json:"escrow_secured"`
	EscrowHeld      decimal.Decimal       `json:"escrow_held"`
	PlatformRevenue decimal.Decimal       `json:"platform_revenue"`
	ClientRefunds   decimal.Decimal       `json:"client_refunds"`
	Bookings        int                   `json:"bookings"`
	ByStatus        map[BookingStatus]int `json:"by_status"`
}
