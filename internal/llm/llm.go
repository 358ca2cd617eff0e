// Package llm defines the backend-neutral contract for one model turn.
// Adapters under llm/openai and llm/anthropic translate the neutral
// message model to and from each backend's native representation; no
// backend-specific type crosses this boundary.
package llm

import (
	"context"
	"encoding/json"

	"github.com/gosuda/randevu/internal/domain"
)

// Apology is the degraded assistant turn used when a backend response
// cannot be decoded or the call fails.
const Apology = "Üzgünüm, şu an isteğinizi işleyemedim. Lütfen birazdan tekrar deneyin."

// ToolDefinition describes one registered tool. Description is what the
// router exposes during selection; Parameters is the JSON-schema map sent
// only in the execution stage.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Usage is best-effort token accounting for a single turn. Adapters return
// nil when the backend omits it; callers must not depend on its presence.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Provider runs one model turn against a backend.
//
// The returned assistant message carries zero or more tool calls. A
// malformed tool-call payload in the backend response degrades to a
// plain-text apology turn, not an error: errors are reserved for transport
// and API failures.
type Provider interface {
	CompleteTurn(ctx context.Context, history []domain.Message, tools []ToolDefinition) (domain.Message, *Usage, error)
	Name() string
}

// ApologyTurn is the assistant turn adapters fall back to when a response
// payload cannot be decoded.
func ApologyTurn() domain.Message {
	return domain.AssistantMessage(Apology)
}

// ValidArguments reports whether a tool-call arguments payload is decodable
// JSON. Empty payloads are valid (treated as {} downstream).
func ValidArguments(args string) bool {
	if args == "" {
		return true
	}
	return json.Valid([]byte(args))
}
