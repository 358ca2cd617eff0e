// Package metering records LLM usage events. Writes are append-only and
// strictly best-effort: a failed write is logged by the caller, never
// surfaced to the conversation.
package metering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UsageRecord is one provider call's accounting, keyed by conversation
// identity and backend. Token counts are zero when the backend omitted them.
type UsageRecord struct {
	TenantID         uuid.UUID
	UserID           string
	Provider         string
	Stage            string // "routing" or "turn"
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	RecordedAt       time.Time
}

// Recorder appends usage records to a sink.
type Recorder interface {
	Record(ctx context.Context, rec *UsageRecord) error
}

// LogRecorder writes usage records to the structured log. Used when no
// durable sink is configured.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, rec *UsageRecord) error {
	log.Info().
		Str("tenant_id", rec.TenantID.String()).
		Str("user_id", rec.UserID).
		Str("provider", rec.Provider).
		Str("stage", rec.Stage).
		Int64("prompt_tokens", rec.PromptTokens).
		Int64("completion_tokens", rec.CompletionTokens).
		Int64("total_tokens", rec.TotalTokens).
		Msg("llm usage")
	return nil
}
