// Package openai adapts the OpenAI Chat Completions API to the neutral
// llm.Provider contract. Tool results are correlated by tool_call_id: each
// neutral tool-result message becomes a role=tool chat message carrying the
// originating call's opaque ID.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/llm"
)

// Options configure the adapter. Fields mirror a minimal subset of Chat
// Completion parameters.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Provider wraps the OpenAI client behind llm.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a Provider using the official client (API key from environment).
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a Provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.3,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) CompleteTurn(ctx context.Context, history []domain.Message, tools []llm.ToolDefinition) (domain.Message, *llm.Usage, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(history),
		Model:               p.opts.Model,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.Message{}, nil, fmt.Errorf("openai.CompleteTurn: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Message{}, nil, fmt.Errorf("openai.CompleteTurn: no choices returned")
	}

	usage := &llm.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage = nil
	}

	return decodeTurn(resp.Choices[0].Message), usage, nil
}

// decodeTurn maps one response choice onto the neutral assistant turn. An
// undecodable tool-call payload degrades the whole turn to the apology.
func decodeTurn(msg openai.ChatCompletionMessage) domain.Message {
	turn := domain.AssistantMessage(msg.Content)
	for _, tc := range msg.ToolCalls {
		if !llm.ValidArguments(tc.Function.Arguments) {
			log.Warn().
				Str("tool", tc.Function.Name).
				Str("call_id", tc.ID).
				Msg("openai: undecodable tool call arguments, degrading to apology")
			return llm.ApologyTurn()
		}
		turn.ToolCalls = append(turn.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return turn
}

// buildMessages converts neutral history into chat messages. Tool results
// follow their assistant turn in history order, so the mapping is direct.
func buildMessages(history []domain.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case domain.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case domain.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}
			// Interim text accompanying the calls must survive the replay.
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case domain.RoleTool:
			messages = append(messages, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return messages
}

func buildTools(tools []llm.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, td := range tools {
		out[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        td.Name,
				Description: openai.String(td.Description),
				Parameters:  td.Parameters,
			},
		}
	}
	return out
}
