// Package convo persists per-identity conversation history between turns.
package convo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/randevu/internal/domain"
)

// Key identifies one conversation: colliding user IDs across tenants never
// merge state.
type Key struct {
	TenantID uuid.UUID
	UserID   string
}

// Session is the stored history for one identity.
type Session struct {
	Key          Key
	Messages     []domain.Message
	LastActivity time.Time
}

// Store loads and saves conversation sessions. Load returns an empty session
// (nil Messages) for unknown or expired identities; Save applies compaction
// and trimming before persisting, so a loaded history never contains an
// orphaned tool-result.
type Store interface {
	Load(ctx context.Context, key Key) (*Session, error)
	Save(ctx context.Context, key Key, messages []domain.Message) error
}
