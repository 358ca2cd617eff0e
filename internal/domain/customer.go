package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Phone     string // digits only, unique per tenant
	CreatedAt time.Time
}

// NormalizePhone strips everything but digits from a phone number.
// "0532 111 22 33" and "0532-111-2233" normalize to the same value.
func NormalizePhone(raw string) (string, error) {
	var sb strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	digits := sb.String()
	if len(digits) < 7 {
		return "", fmt.Errorf("phone %q too short: %w", raw, ErrValidation)
	}
	return digits, nil
}

type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	GetByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*Customer, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Customer, error)
}
