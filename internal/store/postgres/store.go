package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/metering"
)

type Store struct {
	pool      *pgxpool.Pool
	tenants   *TenantRepo
	customers *CustomerRepo
	bookings  *BookingRepo
	usage     *UsageRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		tenants:   NewTenantRepo(pool),
		customers: NewCustomerRepo(pool),
		bookings:  NewBookingRepo(pool),
		usage:     NewUsageRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository     { return s.tenants }
func (s *Store) Customers() domain.CustomerRepository { return s.customers }
func (s *Store) Bookings() domain.BookingRepository   { return s.bookings }
func (s *Store) Usage() metering.Recorder             { return s.usage }
