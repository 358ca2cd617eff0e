package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/randevu/internal/convo"
	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/llm"
	"github.com/gosuda/randevu/internal/metering"
)

// DefaultMaxIterations caps tool round trips per incoming message.
const DefaultMaxIterations = 7

// Reply is the final outcome of one incoming message.
type Reply struct {
	Text  string
	Image []byte
}

// Agent is the per-message state machine: load session, route tools, then
// alternate model calls and tool execution until the model answers in plain
// text or the iteration cap is hit.
type Agent struct {
	provider      llm.Provider
	router        *Router
	registry      *Registry
	sessions      convo.Store
	meter         metering.Recorder
	locks         *convo.KeyMutex
	maxIterations int
	now           func() time.Time
}

// AgentOption configures optional Agent parameters.
type AgentOption func(*Agent)

// WithMaxIterations overrides the tool round-trip cap.
func WithMaxIterations(n int) AgentOption {
	return func(a *Agent) { a.maxIterations = n }
}

// WithNow overrides the time source (used in tests).
func WithNow(now func() time.Time) AgentOption {
	return func(a *Agent) { a.now = now }
}

func New(
	provider llm.Provider,
	router *Router,
	registry *Registry,
	sessions convo.Store,
	meter metering.Recorder,
	opts ...AgentOption,
) *Agent {
	a := &Agent{
		provider:      provider,
		router:        router,
		registry:      registry,
		sessions:      sessions,
		meter:         meter,
		locks:         convo.NewKeyMutex(),
		maxIterations: DefaultMaxIterations,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandleMessage processes one user message end to end and returns the reply.
// Turns for the same identity are serialized; a failed model call degrades
// to an apology, never an error to the channel layer.
func (a *Agent) HandleMessage(ctx context.Context, tenant *domain.Tenant, userID, text string) (Reply, error) {
	key := convo.Key{TenantID: tenant.ID, UserID: userID}
	release := a.locks.Lock(key)
	defer release()

	sess, err := a.sessions.Load(ctx, key)
	if err != nil {
		return Reply{}, fmt.Errorf("agent.HandleMessage: load session: %w", err)
	}

	history := sess.Messages
	if len(history) == 0 {
		history = append(history, domain.SystemMessage(systemPrompt(tenant, a.now())))
	}
	history = append(history, domain.UserMessage(text))

	tools, routeUsage := a.router.Select(ctx, text)
	a.recordUsage(ctx, key, "routing", routeUsage)

	reply := a.runLoop(ctx, key, &history, tools)

	if saveErr := a.sessions.Save(ctx, key, history); saveErr != nil {
		log.Error().Err(saveErr).
			Str("tenant_id", key.TenantID.String()).
			Str("user_id", key.UserID).
			Msg("agent: session save failed")
	}

	return reply, nil
}

// runLoop alternates AWAITING_MODEL and EXECUTING_TOOLS until the model
// stops requesting tools or the iteration cap is reached.
func (a *Agent) runLoop(ctx context.Context, key convo.Key, history *[]domain.Message, tools []llm.ToolDefinition) Reply {
	var reply Reply
	bestText := ""

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		turn, usage, err := a.provider.CompleteTurn(ctx, *history, tools)
		a.recordUsage(ctx, key, "turn", usage)
		if err != nil {
			log.Error().Err(err).Int("iteration", iteration).Msg("agent: model call failed")
			*history = append(*history, llm.ApologyTurn())
			reply.Text = llm.Apology
			return reply
		}

		*history = append(*history, turn)

		if !turn.HasToolCalls() {
			reply.Text = turn.Content
			if reply.Text == "" {
				reply.Text = llm.Apology
			}
			return reply
		}

		if turn.Content != "" {
			bestText = turn.Content
		}

		// Every call in this turn gets exactly one result before the next
		// model call is issued.
		for _, call := range turn.ToolCalls {
			result := a.executeCall(ctx, key.TenantID, call)
			if len(result.Image) > 0 {
				reply.Image = result.Image
			}
			*history = append(*history, domain.ToolResultMessage(call, result.Content))
		}
	}

	// Cap hit with tool calls still pending: exit with the best available
	// text rather than erroring.
	log.Warn().Int("max_iterations", a.maxIterations).
		Str("tenant_id", key.TenantID.String()).
		Msg("agent: iteration cap reached")
	reply.Text = bestText
	if reply.Text == "" {
		reply.Text = llm.Apology
	}
	return reply
}

// executeCall runs one tool call, containing every failure mode — unknown
// tool, bad arguments, domain error, panic — as tool-result text the model
// can read and react to in the next iteration.
func (a *Agent) executeCall(ctx context.Context, tenantID uuid.UUID, call domain.ToolCall) (result ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("recover", r).Str("tool", call.Name).Msg("agent: tool panicked")
			result = ToolResult{Content: fmt.Sprintf("error: tool %s failed unexpectedly", call.Name)}
		}
	}()

	tool, ok := a.registry.Get(call.Name)
	if !ok {
		return ToolResult{Content: fmt.Sprintf("error: unknown tool %q", call.Name)}
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return ToolResult{Content: fmt.Sprintf("error: invalid arguments for %s: %v", call.Name, err)}
		}
	}

	start := time.Now()
	result, err := tool.Handler(ctx, tenantID, args)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Msg("agent: tool returned error")
		return ToolResult{Content: "error: " + err.Error()}
	}

	log.Debug().Str("tool", call.Name).
		Dur("duration", time.Since(start)).
		Msg("agent: tool executed")
	return result
}

// recordUsage emits one metering event per provider call. Failures are
// logged and ignored; absent usage is recorded with zero counts.
func (a *Agent) recordUsage(ctx context.Context, key convo.Key, stage string, usage *llm.Usage) {
	rec := &metering.UsageRecord{
		TenantID:   key.TenantID,
		UserID:     key.UserID,
		Provider:   a.provider.Name(),
		Stage:      stage,
		RecordedAt: a.now(),
	}
	if usage != nil {
		rec.PromptTokens = usage.PromptTokens
		rec.CompletionTokens = usage.CompletionTokens
		rec.TotalTokens = usage.TotalTokens
	}
	if err := a.meter.Record(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("agent: usage metering failed")
	}
}
