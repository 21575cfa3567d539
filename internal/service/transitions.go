package service

import (
	"fmt"
	"math"

	"github.com/parlakisik/event-escrow/internal/model"
)

type edge struct {
	from  model.BookingStatus
	event model.BookingEvent
	role  model.Role
}

// transitions is the complete booking lifecycle. Anything absent is rejected.
var transitions = map[edge]model.BookingStatus{
	{model.BookingStatusUnpaid, model.EventPay, model.RoleClient}: model.BookingStatusPaid,

	{model.BookingStatusPaid, model.EventRelease20, model.RoleVendor}:              model.BookingStatusPartiallyReleased,
	{model.BookingStatusPaid, model.EventComplete, model.RoleVendor}:               model.BookingStatusCompleted,
	{model.BookingStatusPartiallyReleased, model.EventComplete, model.RoleVendor}: model.BookingStatusCompleted,
	{model.BookingStatusCompleted, model.EventRelease, model.RoleClient}:           model.BookingStatusReleased,

	{model.BookingStatusPaid, model.EventDispute, model.RoleClient}:              model.BookingStatusDisputed,
	{model.BookingStatusPartiallyReleased, model.EventDispute, model.RoleClient}: model.BookingStatusDisputed,
	{model.BookingStatusCompleted, model.EventDispute, model.RoleClient}:         model.BookingStatusDisputed,

	{model.BookingStatusDisputed, model.EventAppeal, model.RoleVendor}: model.BookingStatusDisputed,
	{model.BookingStatusDisputed, model.EventRelease, model.RoleAdmin}: model.BookingStatusReleased,
	{model.BookingStatusDisputed, model.EventRefund, model.RoleAdmin}:  model.BookingStatusRefunded,
	{model.BookingStatusDisputed, model.EventSplit, model.RoleAdmin}:   model.BookingStatusSplit,
}

var allRoles = []model.Role{model.RoleClient, model.RoleVendor, model.RoleAgent, model.RoleAdmin}

// nextStatus looks up the edge and, when there is none, reports the most
// specific reason.
func nextStatus(from model.BookingStatus, event model.BookingEvent, role model.Role) (model.BookingStatus, error) {
	if to, ok := transitions[edge{from, event, role}]; ok {
		return to, nil
	}

	switch {
	case from.Terminal():
		return "", fmt.Errorf("cannot %s booking in terminal status %s: %w", event, from, ErrTerminalState)
	case event == model.EventDispute && from == model.BookingStatusDisputed:
		return "", fmt.Errorf("cannot file a second dispute: %w", ErrAlreadyDisputed)
	case role == model.RoleAdmin && isDecision(event):
		return "", fmt.Errorf("cannot %s booking in status %s: %w", event, from, ErrNotDisputed)
	}
	for _, other := range allRoles {
		if _, ok := transitions[edge{from, event, other}]; ok && other != role {
			return "", fmt.Errorf("only %s may %s a booking in status %s: %w", other, event, from, ErrForbidden)
		}
	}
	return "", fmt.Errorf("cannot %s booking in status %s: %w", event, from, ErrInvalidTransition)
}

func isDecision(e model.BookingEvent) bool {
	return e == model.EventRelease || e == model.EventRefund || e == model.EventSplit
}

const earthRadiusMeters = 6371000.0

// distanceMeters is the haversine great-circle distance.
func distanceMeters(a, b model.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
