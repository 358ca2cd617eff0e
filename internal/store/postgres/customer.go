package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/randevu/internal/domain"
)

type CustomerRepo struct {
	pool *pgxpool.Pool
}

func NewCustomerRepo(pool *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO customers (id, tenant_id, name, phone, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.TenantID, c.Name, c.Phone, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("customerRepo.Create: phone %s: %w", c.Phone, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("customerRepo.Create: %w", err)
	}

	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Customer, error) {
	return r.get(ctx, "customerRepo.GetByID",
		`SELECT id, tenant_id, name, phone, created_at
		 FROM customers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *CustomerRepo) GetByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*domain.Customer, error) {
	return r.get(ctx, "customerRepo.GetByPhone",
		`SELECT id, tenant_id, name, phone, created_at
		 FROM customers WHERE tenant_id = $1 AND phone = $2`, tenantID, phone)
}

func (r *CustomerRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, name, phone, created_at
		 FROM customers WHERE tenant_id = $1 ORDER BY name LIMIT 1000`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("customerRepo.ListByTenant: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("customerRepo.ListByTenant: scan: %w", err)
		}
		customers = append(customers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("customerRepo.ListByTenant: rows: %w", err)
	}

	return customers, nil
}

func (r *CustomerRepo) get(ctx context.Context, caller, query string, args ...any) (*domain.Customer, error) {
	var c domain.Customer

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
