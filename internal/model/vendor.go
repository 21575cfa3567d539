package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vendor is a read-only directory record.
type Vendor struct {
	ID            string  `json:"id" bson:"_id" firestore:"id"`
	Name          string  `json:"name" bson:"name" firestore:"name"`
	Role          string  `json:"role" bson:"role" firestore:"role"`
	Category      string  `json:"category" bson:"category" firestore:"category"`
	City          string  `json:"city,omitempty" bson:"city,omitempty" firestore:"city,omitempty"`
	StartingPrice string  `json:"starting_price" bson:"starting_price" firestore:"starting_price"` // Decimal as string
	Rating        float64 `json:"rating" bson:"rating" firestore:"rating"`
	Strikes       int     `json:"strikes" bson:"strikes" firestore:"strikes"`
	Banned        bool    `json:"banned" bson:"banned" firestore:"banned"`
}

// Recommendable reports whether the vendor may appear in top picks and
// allocation matches. Raw search ignores this.
func (v Vendor) Recommendable() bool {
	return !v.Banned && v.Strikes == 0
}

// CategoryWeight selects a category for allocation. A zero weight means the
// configured default weight for that category.
type CategoryWeight struct {
	Category string  `json:"category"`
	Weight   float64 `json:"weight,omitempty"`
}

// CategoryResult is the allocation and match proposed for one category.
type CategoryResult struct {
	Category        string          `json:"category"`
	Weight          float64         `json:"weight"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	Match           *Vendor         `json:"match,omitempty"`
	Alternatives    []Vendor        `json:"alternatives"`
	IsPadded        bool            `json:"is_padded"`
	Warning         string          `json:"warning,omitempty"`
}

// Proposal is an allocation run under review by an agent.
type Proposal struct {
	ID          string           `json:"id"`
	TotalBudget decimal.Decimal  `json:"total_budget"`
	City        string           `json:"city,omitempty"`
	Categories  []CategoryWeight `json:"categories"`
	Results     []CategoryResult `json:"results"`
	ComputedAt  time.Time        `json:"computed_at"`
}
