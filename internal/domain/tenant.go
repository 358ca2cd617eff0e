package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID               uuid.UUID
	Name             string
	Slug             string
	ChannelAccountID string // messaging channel account this tenant receives messages on
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetByChannelAccount(ctx context.Context, accountID string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
}
