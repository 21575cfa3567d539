package store

import (
	"context"
	"errors"

	"github.com/parlakisik/event-escrow/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means the stored record moved on since it was read.
	ErrConflict = errors.New("conflict")
)

// BookingStore persists bookings. SwapBooking replaces the booking only if
// its stored status still equals expected.
type BookingStore interface {
	CreateBooking(ctx context.Context, b model.Booking) error
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)
	SwapBooking(ctx context.Context, b model.Booking, expected model.BookingStatus) error
}

// ProjectStore persists projects. UpdateProject requires p.Version to be
// exactly one ahead of the stored version.
type ProjectStore interface {
	CreateProject(ctx context.Context, p model.Project) error
	GetProject(ctx context.Context, id string) (model.Project, error)
	ListProjects(ctx context.Context, agentID string) ([]model.Project, error)
	UpdateProject(ctx context.Context, p model.Project) error
}

// PayoutStore follows the same versioning rule as ProjectStore.
type PayoutStore interface {
	CreatePayout(ctx context.Context, p model.PayoutRequest) error
	GetPayout(ctx context.Context, id string) (model.PayoutRequest, error)
	ListPayouts(ctx context.Context, vendorName string) ([]model.PayoutRequest, error)
	UpdatePayout(ctx context.Context, p model.PayoutRequest) error
}

// VendorStore is the local vendor directory. Category matching is
// case-insensitive; an empty city matches every city.
type VendorStore interface {
	SaveVendor(ctx context.Context, v model.Vendor) error
	ListVendors(ctx context.Context, category, city string) ([]model.Vendor, error)
}

// Store is everything the escrow service persists.
type Store interface {
	BookingStore
	ProjectStore
	PayoutStore
	VendorStore
	Close() error
}
