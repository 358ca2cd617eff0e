package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/llm"
)

// Router narrows the tool set presented to the model per turn. Selection is
// a cheap extra model call that sees only tool names and short descriptions;
// the full parameter schemas are exposed only for the mapped subset. Routing
// is a latency/cost optimization: any failure falls back to the full set, so
// it can never reduce the agent's capability.
type Router struct {
	provider llm.Provider
	registry *Registry
	maxTools int
}

func NewRouter(provider llm.Provider, registry *Registry, maxTools int) *Router {
	return &Router{provider: provider, registry: registry, maxTools: maxTools}
}

// Select returns the tool definitions to enable for this turn, plus the
// usage of the selection call (nil when the call failed or reported none).
func (r *Router) Select(ctx context.Context, userText string) ([]llm.ToolDefinition, *llm.Usage) {
	instruction := fmt.Sprintf(
		"You route a user request to tools. Available tools:\n%s\n"+
			"Reply with only a comma-separated list of at most %d tool names relevant "+
			"to the user's message. Reply with nothing else.",
		r.registry.Catalog(), r.maxTools,
	)
	history := []domain.Message{
		domain.SystemMessage(instruction),
		domain.UserMessage(userText),
	}

	turn, usage, err := r.provider.CompleteTurn(ctx, history, nil)
	if err != nil {
		log.Warn().Err(err).Msg("agent: tool selection failed, using full tool set")
		return r.registry.Definitions(), usage
	}

	names := splitNames(turn.Content)
	defs := r.registry.DefinitionsFor(names, r.maxTools)
	if len(defs) == 0 {
		log.Debug().Str("selection", turn.Content).Msg("agent: no resolvable tool names, using full tool set")
		return r.registry.Definitions(), usage
	}

	return defs, usage
}

func splitNames(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}
