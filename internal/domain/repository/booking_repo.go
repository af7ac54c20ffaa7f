package repository

import (
	"context"
	"time"

	"servicehub/internal/domain/aggregate"
)

// BookingRepository defines persistence operations for booking aggregates
type BookingRepository interface {
	Save(ctx context.Context, booking *aggregate.Booking) error
	GetByID(ctx context.Context, id string) (*aggregate.Booking, error)
	GetByClientID(ctx context.Context, clientID string, offset, limit int) ([]*aggregate.Booking, error)
	GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Booking, error)
	GetByStatus(ctx context.Context, status aggregate.BookingStatus) ([]*aggregate.Booking, error)

	// FindOverlapping returns active bookings for a provider whose slot
	// overlaps the [start, end) window. Cancelled and completed bookings
	// are excluded.
	FindOverlapping(ctx context.Context, providerID string, start, end time.Time) ([]*aggregate.Booking, error)
}
