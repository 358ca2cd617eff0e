// Package booking implements reservation operations invoked by the agent's
// tools: slot resolution, conflict detection, and cached schedule reads.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/schedule"
)

// Cache is the best-effort read-aggregate cache. Every read path tolerates
// a miss or staleness; booking writes invalidate rather than update.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

const scheduleCacheTTL = time.Minute

// Service owns booking business logic. The advisory overlap pre-check here
// produces the friendly conflict message; the datastore's exclusion
// constraint remains the sole authority under concurrent writers.
type Service struct {
	bookings  domain.BookingRepository
	customers domain.CustomerRepository
	cache     Cache
	now       func() time.Time
}

// ServiceOption configures optional Service parameters.
type ServiceOption func(*Service)

// WithNow overrides the time source (used in tests).
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(bookings domain.BookingRepository, customers domain.CustomerRepository, cache Cache, opts ...ServiceOption) *Service {
	s := &Service{
		bookings:  bookings,
		customers: customers,
		cache:     cache,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams describe a new reservation in conversational terms.
type CreateParams struct {
	CustomerName string
	Phone        string
	WeekOffset   int
	Weekday      int
	Slot         string
	Price        *int
	Notes        string
}

// Create resolves the slot, finds or registers the customer, pre-checks for
// overlap, and inserts the booking.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, params CreateParams) (*domain.Booking, error) {
	start, end, err := schedule.Resolve(s.now(), params.WeekOffset, params.Weekday, params.Slot)
	if err != nil {
		return nil, fmt.Errorf("booking.Service.Create: %w", err)
	}

	customer, err := s.findOrCreateCustomer(ctx, tenantID, params.CustomerName, params.Phone)
	if err != nil {
		return nil, fmt.Errorf("booking.Service.Create: %w", err)
	}

	if err := s.checkOverlap(ctx, tenantID, start, end, nil); err != nil {
		return nil, fmt.Errorf("booking.Service.Create: %w", err)
	}

	now := s.now()
	b := &domain.Booking{
		ID:         uuid.New(),
		TenantID:   tenantID,
		CustomerID: customer.ID,
		StartAt:    start,
		EndAt:      end,
		Status:     domain.BookingStatusActive,
		Price:      params.Price,
		Notes:      params.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("booking.Service.Create: %w", err)
	}

	s.invalidateSchedule(ctx, tenantID)
	return b, nil
}

// Reschedule moves an existing booking to a new slot, excluding itself from
// the overlap pre-check.
func (s *Service) Reschedule(ctx context.Context, tenantID, id uuid.UUID, weekOffset, weekday int, slot string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("booking.Service.Reschedule: %w", err)
	}

	start, end, err := schedule.Resolve(s.now(), weekOffset, weekday, slot)
	if err != nil {
		return nil, fmt.Errorf("booking.Service.Reschedule: %w", err)
	}

	if err := s.checkOverlap(ctx, tenantID, start, end, &id); err != nil {
		return nil, fmt.Errorf("booking.Service.Reschedule: %w", err)
	}

	b.StartAt = start
	b.EndAt = end
	b.UpdatedAt = s.now()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("booking.Service.Reschedule: %w", err)
	}

	s.invalidateSchedule(ctx, tenantID)
	return b, nil
}

// Cancel marks a booking cancelled.
func (s *Service) Cancel(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.bookings.UpdateStatus(ctx, tenantID, id, domain.BookingStatusCancelled); err != nil {
		return fmt.Errorf("booking.Service.Cancel: %w", err)
	}
	s.invalidateSchedule(ctx, tenantID)
	return nil
}

// DayBookings returns the day's non-cancelled bookings, served from cache
// when fresh.
func (s *Service) DayBookings(ctx context.Context, tenantID uuid.UUID, weekOffset, weekday int) ([]*domain.Booking, error) {
	day, err := schedule.ResolveDay(s.now(), weekOffset, weekday)
	if err != nil {
		return nil, fmt.Errorf("booking.Service.DayBookings: %w", err)
	}
	key := fmt.Sprintf("schedule:%s:day:%s", tenantID, day.Format("2006-01-02"))
	return s.cachedRange(ctx, tenantID, key, day, day.AddDate(0, 0, 1))
}

// WeekBookings returns a full week's non-cancelled bookings.
func (s *Service) WeekBookings(ctx context.Context, tenantID uuid.UUID, weekOffset int) ([]*domain.Booking, error) {
	from := schedule.WeekStart(s.now()).AddDate(0, 0, 7*weekOffset)
	key := fmt.Sprintf("schedule:%s:week:%s", tenantID, from.Format("2006-01-02"))
	return s.cachedRange(ctx, tenantID, key, from, from.AddDate(0, 0, 7))
}

// Customer resolves a booking's customer.
func (s *Service) Customer(ctx context.Context, tenantID, customerID uuid.UUID) (*domain.Customer, error) {
	c, err := s.customers.GetByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("booking.Service.Customer: %w", err)
	}
	return c, nil
}

func (s *Service) findOrCreateCustomer(ctx context.Context, tenantID uuid.UUID, name, rawPhone string) (*domain.Customer, error) {
	phone, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByPhone(ctx, tenantID, phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	customer = &domain.Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Phone:     phone,
		CreatedAt: s.now(),
	}
	if createErr := s.customers.Create(ctx, customer); createErr != nil {
		return nil, createErr
	}
	return customer, nil
}

func (s *Service) checkOverlap(ctx context.Context, tenantID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) error {
	overlapping, err := s.bookings.ListOverlapping(ctx, tenantID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return &domain.BookingConflictError{Existing: overlapping[0]}
	}
	return nil
}

func (s *Service) cachedRange(ctx context.Context, tenantID uuid.UUID, key string, from, to time.Time) ([]*domain.Booking, error) {
	if raw, err := s.cache.Get(ctx, key); err == nil && raw != nil {
		var cached []*domain.Booking
		if unmarshalErr := json.Unmarshal(raw, &cached); unmarshalErr == nil {
			return cached, nil
		}
	}

	bookings, err := s.bookings.ListRange(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	if raw, marshalErr := json.Marshal(bookings); marshalErr == nil {
		if cacheErr := s.cache.SetTTL(ctx, key, raw, scheduleCacheTTL); cacheErr != nil {
			log.Debug().Err(cacheErr).Str("key", key).Msg("booking: schedule cache write failed")
		}
	}

	return bookings, nil
}

func (s *Service) invalidateSchedule(ctx context.Context, tenantID uuid.UUID) {
	pattern := fmt.Sprintf("schedule:%s:*", tenantID)
	if err := s.cache.InvalidatePattern(ctx, pattern); err != nil {
		log.Debug().Err(err).Str("pattern", pattern).Msg("booking: schedule cache invalidation failed")
	}
}
