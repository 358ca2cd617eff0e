package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/randevu/internal/metering"
)

// UsageRepo is the durable metering sink. Append-only; callers treat write
// failures as non-fatal.
type UsageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

func (r *UsageRepo) Record(ctx context.Context, rec *metering.UsageRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO usage_records (tenant_id, user_id, provider, stage, prompt_tokens, completion_tokens, total_tokens, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.TenantID, rec.UserID, rec.Provider, rec.Stage,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("usageRepo.Record: %w", err)
	}

	return nil
}
