package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/gosuda/randevu/internal/domain"
)

// RateLimited wraps a Provider with a token-bucket limiter so bursts of
// concurrent conversations cannot exhaust the backend quota.
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with the given sustained rate and burst.
func NewRateLimited(inner Provider, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) CompleteTurn(ctx context.Context, history []domain.Message, tools []ToolDefinition) (domain.Message, *Usage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.Message{}, nil, fmt.Errorf("llm.RateLimited.CompleteTurn: %w", err)
	}
	return r.inner.CompleteTurn(ctx, history, tools)
}

func (r *RateLimited) Name() string { return r.inner.Name() }
