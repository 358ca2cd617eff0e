package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/randevu/internal/domain"
)

type BookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{pool: pool}
}

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO bookings (id, tenant_id, customer_id, start_at, end_at, status, price, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.TenantID, b.CustomerID, b.StartAt, b.EndAt,
		b.Status, b.Price, b.Notes, b.CreatedAt, b.UpdatedAt,
	)
	if isExclusionViolation(err) {
		// A concurrent writer slipped past the advisory pre-check; the
		// constraint is the authority.
		return fmt.Errorf("bookingRepo.Create: %w", &domain.BookingConflictError{})
	}
	if err != nil {
		return fmt.Errorf("bookingRepo.Create: %w", err)
	}

	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, customer_id, start_at, end_at, status, price, notes, created_at, updated_at
		 FROM bookings WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&b.ID, &b.TenantID, &b.CustomerID, &b.StartAt, &b.EndAt,
		&b.Status, &b.Price, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bookingRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("bookingRepo.GetByID: %w", err)
	}

	return &b, nil
}

func (r *BookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET customer_id = $1, start_at = $2, end_at = $3,
		        status = $4, price = $5, notes = $6, updated_at = now()
		 WHERE tenant_id = $7 AND id = $8`,
		b.CustomerID, b.StartAt, b.EndAt, b.Status, b.Price, b.Notes,
		b.TenantID, b.ID,
	)
	if isExclusionViolation(err) {
		return fmt.Errorf("bookingRepo.Update: %w", &domain.BookingConflictError{})
	}
	if err != nil {
		return fmt.Errorf("bookingRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookingRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.BookingStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET status = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
		status, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("bookingRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookingRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BookingRepo) ListOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*domain.Booking, error) {
	// Half-open interval intersection over active rows only.
	query := `SELECT id, tenant_id, customer_id, start_at, end_at, status, price, notes, created_at, updated_at
	          FROM bookings
	          WHERE tenant_id = $1 AND status = 'active' AND start_at < $3 AND end_at > $2`
	args := []any{tenantID, start, end}

	if excludeID != nil {
		query += ` AND id <> $4`
		args = append(args, *excludeID)
	}
	query += ` ORDER BY start_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookingRepo.ListOverlapping: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows, "bookingRepo.ListOverlapping")
}

func (r *BookingRepo) ListRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*domain.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, customer_id, start_at, end_at, status, price, notes, created_at, updated_at
		 FROM bookings
		 WHERE tenant_id = $1 AND status <> 'cancelled' AND start_at >= $2 AND start_at < $3
		 ORDER BY start_at
		 LIMIT 1000`,
		tenantID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("bookingRepo.ListRange: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows, "bookingRepo.ListRange")
}

func scanBookings(rows pgx.Rows, caller string) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.TenantID, &b.CustomerID, &b.StartAt, &b.EndAt,
			&b.Status, &b.Price, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return bookings, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}
