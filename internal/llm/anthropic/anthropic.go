// Package anthropic adapts the Anthropic Messages API to the neutral
// llm.Provider contract. Unlike OpenAI, tool results are not standalone
// messages: they are tool_result content blocks keyed by tool_use_id inside
// a user turn, so consecutive neutral tool-result messages are folded into
// one user message here.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/llm"
)

// Options configure the adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Provider wraps the Anthropic client behind llm.Provider.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// New creates a Provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.3,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates a Provider from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.3,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) CompleteTurn(ctx context.Context, history []domain.Message, tools []llm.ToolDefinition) (domain.Message, *llm.Usage, error) {
	params := anthropic.MessageNewParams{
		Model:       p.opts.Model,
		Messages:    buildMessages(history),
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
	}
	if system := extractSystem(history); len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return domain.Message{}, nil, fmt.Errorf("anthropic.CompleteTurn: %w", err)
	}

	var usage *llm.Usage
	if resp.Usage.InputTokens > 0 || resp.Usage.OutputTokens > 0 {
		usage = &llm.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}

	return decodeTurn(resp.Content), usage, nil
}

// decodeTurn maps response content blocks onto the neutral assistant turn.
// An undecodable tool_use input degrades the whole turn to the apology.
func decodeTurn(blocks []anthropic.ContentBlockUnion) domain.Message {
	turn := domain.Message{Role: domain.RoleAssistant}
	for _, block := range blocks {
		switch block.Type {
		case "text":
			turn.Content += block.AsText().Text
		case "tool_use":
			tb := block.AsToolUse()
			call, ok := decodeToolUse(tb)
			if !ok {
				log.Warn().
					Str("tool", tb.Name).
					Str("call_id", tb.ID).
					Msg("anthropic: undecodable tool call input, degrading to apology")
				return llm.ApologyTurn()
			}
			turn.ToolCalls = append(turn.ToolCalls, call)
		}
	}

	return turn
}

func decodeToolUse(tb anthropic.ToolUseBlock) (domain.ToolCall, bool) {
	args, err := json.Marshal(tb.Input)
	if err != nil || !llm.ValidArguments(string(args)) {
		return domain.ToolCall{}, false
	}
	return domain.ToolCall{ID: tb.ID, Name: tb.Name, Arguments: string(args)}, true
}

// buildMessages converts neutral history into Anthropic messages. Runs of
// tool-result messages collapse into a single user message of tool_result
// blocks so roles keep alternating.
func buildMessages(history []domain.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	var pendingResults []anthropic.ContentBlockParamUnion
	flushResults := func() {
		if len(pendingResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range history {
		switch m.Role {
		case domain.RoleSystem:
			continue // handled via params.System
		case domain.RoleTool:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
		case domain.RoleUser:
			flushResults()
			if m.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		case domain.RoleAssistant:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input any
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						input = tc.Arguments
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		}
	}
	flushResults()

	return messages
}

func extractSystem(history []domain.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, m := range history {
		if m.Role == domain.RoleSystem && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

func buildTools(tools []llm.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, td := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if td.Parameters != nil {
			if properties, ok := td.Parameters["properties"]; ok {
				schema.Properties = properties
			}
			if required, ok := td.Parameters["required"].([]string); ok {
				schema.Required = required
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(schema, td.Name)
	}
	return out
}
