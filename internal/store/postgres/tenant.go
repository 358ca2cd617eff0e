package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/randevu/internal/domain"
)

type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, slug, channel_account_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Slug, t.ChannelAccountID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.Create: %w", err)
	}

	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.get(ctx, "tenantRepo.GetByID",
		`SELECT id, name, slug, channel_account_id, created_at, updated_at
		 FROM tenants WHERE id = $1`, id)
}

func (r *TenantRepo) GetByChannelAccount(ctx context.Context, accountID string) (*domain.Tenant, error) {
	return r.get(ctx, "tenantRepo.GetByChannelAccount",
		`SELECT id, name, slug, channel_account_id, created_at, updated_at
		 FROM tenants WHERE channel_account_id = $1`, accountID)
}

func (r *TenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, channel_account_id, created_at, updated_at
		 FROM tenants ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.List: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.ChannelAccountID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("tenantRepo.List: scan: %w", err)
		}
		tenants = append(tenants, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenantRepo.List: rows: %w", err)
	}

	return tenants, nil
}

func (r *TenantRepo) get(ctx context.Context, caller, query string, arg any) (*domain.Tenant, error) {
	var t domain.Tenant

	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.Name, &t.Slug, &t.ChannelAccountID, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	return &t, nil
}
