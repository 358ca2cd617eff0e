package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Booking is a reservation over a half-open interval [StartAt, EndAt).
// For a fixed tenant no two active bookings may intersect; the datastore
// enforces this with an exclusion constraint, the service layer performs an
// advisory pre-check for a friendlier error.
type Booking struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	StartAt    time.Time
	EndAt      time.Time
	Status     BookingStatus
	Price      *int // whole currency units, nil when not quoted
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Overlaps reports half-open interval intersection with [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return start.Before(b.EndAt) && end.After(b.StartAt)
}

type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status BookingStatus) error
	// ListOverlapping returns active bookings intersecting [start, end),
	// excluding excludeID when it is non-nil (used on reschedule).
	ListOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*Booking, error)
	// ListRange returns non-cancelled bookings starting in [from, to), ordered by start time.
	ListRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*Booking, error)
}
