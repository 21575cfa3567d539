package testutil

import (
	"time"

	"github.com/parlakisik/event-escrow/internal/model"
)

// Venue coordinates used across tests (Makati, Metro Manila).
var MakatiVenue = model.Coordinates{Lat: 14.5547, Lng: 121.0244}

// BookingFixture builds model.Booking values for tests.
type BookingFixture struct {
	b model.Booking
}

// NewBookingFixture creates an UNPAID ₱50,245 booking for testing
func NewBookingFixture() BookingFixture {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return BookingFixture{b: model.Booking{
		ID:         "bk_test_001",
		ClientID:   "client_test_001",
		VendorName: "Lights & Sounds PH",
		Category:   "Sounds & Lights",
		Price:      "50245.00",
		Venue:      MakatiVenue,
		Status:     model.BookingStatusUnpaid,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}
}

func (f BookingFixture) WithID(id string) BookingFixture {
	f.b.ID = id
	return f
}

func (f BookingFixture) WithClient(id string) BookingFixture {
	f.b.ClientID = id
	return f
}

func (f BookingFixture) WithVendor(name string) BookingFixture {
	f.b.VendorName = name
	return f
}

func (f BookingFixture) WithProject(id, agentID string) BookingFixture {
	f.b.ProjectID = id
	f.b.AgentID = agentID
	return f
}

func (f BookingFixture) WithCategory(category string) BookingFixture {
	f.b.Category = category
	return f
}

func (f BookingFixture) WithPrice(price string) BookingFixture {
	f.b.Price = price
	return f
}

// WithStatus sets the status; PARTIALLY_RELEASED also marks mobilization.
func (f BookingFixture) WithStatus(status model.BookingStatus) BookingFixture {
	f.b.Status = status
	if status == model.BookingStatusPartiallyReleased {
		f.b.MobilizationReleased = true
	}
	return f
}

func (f BookingFixture) WithMobilization() BookingFixture {
	f.b.MobilizationReleased = true
	return f
}

// WithDispute marks the booking DISPUTED with a filed complaint.
func (f BookingFixture) WithDispute(category, reason string) BookingFixture {
	f.b.Status = model.BookingStatusDisputed
	f.b.Dispute = &model.Dispute{Category: category, Reason: reason, FiledAt: f.b.CreatedAt}
	return f
}

func (f BookingFixture) Build() model.Booking {
	b := f.b
	if b.Dispute != nil {
		d := *b.Dispute
		b.Dispute = &d
	}
	return b
}

// VendorFixture builds model.Vendor values for tests.
type VendorFixture struct {
	v model.Vendor
}

func NewVendorFixture(id, name, category, price string) VendorFixture {
	return VendorFixture{v: model.Vendor{
		ID:            id,
		Name:          name,
		Role:          "vendor",
		Category:      category,
		City:          "Manila",
		StartingPrice: price,
		Rating:        4.5,
	}}
}

func (f VendorFixture) WithRating(r float64) VendorFixture {
	f.v.Rating = r
	return f
}

func (f VendorFixture) WithStrikes(n int) VendorFixture {
	f.v.Strikes = n
	return f
}

func (f VendorFixture) Banned() VendorFixture {
	f.v.Banned = true
	return f
}

func (f VendorFixture) WithCity(city string) VendorFixture {
	f.v.City = city
	return f
}

func (f VendorFixture) WithRole(role string) VendorFixture {
	f.v.Role = role
	return f
}

func (f VendorFixture) Build() model.Vendor {
	return f.v
}

// SampleVendors is a small directory covering every default category.
func SampleVendors() []model.Vendor {
	return []model.Vendor{
		NewVendorFixture("v_venue_1", "Grand Ballroom", "Venue", "45000").WithRating(4.8).Build(),
		NewVendorFixture("v_venue_2", "Garden Pavilion", "Venue", "30000").WithRating(4.6).Build(),
		NewVendorFixture("v_venue_3", "Rooftop Deck", "Venue", "25000").WithRating(4.1).Build(),
		NewVendorFixture("v_venue_4", "Old Hall", "Venue", "20000").WithRating(3.9).Build(),
		NewVendorFixture("v_venue_5", "Palace Hotel", "Venue", "90000").WithRating(5).Build(),
		NewVendorFixture("v_venue_6", "Struck Venue", "Venue", "44000").WithStrikes(1).Build(),
		NewVendorFixture("v_venue_7", "Banned Venue", "Venue", "44500").Banned().Build(),
		NewVendorFixture("v_cater_1", "Feast Kitchen", "Catering", "35000").WithRating(4.7).Build(),
		NewVendorFixture("v_cater_2", "Lola's Table", "catering", "28000").WithRating(4.9).Build(),
		NewVendorFixture("v_photo_1", "Snap Studio", "Photography", "15000").WithRating(4.4).Build(),
		NewVendorFixture("v_video_1", "Reel Films", "Videography", "18000").WithRating(4.2).Build(),
		NewVendorFixture("v_sound_1", "Lights & Sounds PH", "Sounds & Lights", "12000").WithRating(4.3).Build(),
		NewVendorFixture("v_host_1", "MC Aldo", "Host", "8000").WithRating(4.0).Build(),
	}
}
