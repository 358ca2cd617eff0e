package openai

import (
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/llm"
)

func TestBuildMessages(t *testing.T) {
	t.Parallel()

	callA := domain.ToolCall{ID: "call_a", Name: "create_booking", Arguments: `{"slot":"9-10"}`}
	callB := domain.ToolCall{ID: "call_b", Name: "list_day_bookings", Arguments: `{"weekday":0}`}
	history := []domain.Message{
		domain.SystemMessage("rezervasyon asistanısın"),
		domain.UserMessage("yarın 9-10'a randevu"),
		{Role: domain.RoleAssistant, Content: "Hemen bakıyorum.", ToolCalls: []domain.ToolCall{callA, callB}},
		domain.ToolResultMessage(callA, "created"),
		domain.ToolResultMessage(callB, "no bookings"),
		domain.AssistantMessage("Randevunuz hazır."),
	}

	msgs := buildMessages(history)
	require.Len(t, msgs, 6)

	require.NotNil(t, msgs[0].OfSystem)
	assert.Equal(t, "rezervasyon asistanısın", msgs[0].OfSystem.Content.OfString.Value)

	require.NotNil(t, msgs[1].OfUser)
	assert.Equal(t, "yarın 9-10'a randevu", msgs[1].OfUser.Content.OfString.Value)

	// The assistant turn replays both calls and keeps its interim text.
	assistant := msgs[2].OfAssistant
	require.NotNil(t, assistant)
	assert.Equal(t, "Hemen bakıyorum.", assistant.Content.OfString.Value)
	require.Len(t, assistant.ToolCalls, 2)
	assert.Equal(t, "call_a", assistant.ToolCalls[0].ID)
	assert.Equal(t, "create_booking", assistant.ToolCalls[0].Function.Name)
	assert.Equal(t, `{"slot":"9-10"}`, assistant.ToolCalls[0].Function.Arguments)
	assert.Equal(t, "call_b", assistant.ToolCalls[1].ID)

	// Each result is a standalone role=tool message correlated by call ID.
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "call_a", msgs[3].OfTool.ToolCallID)
	assert.Equal(t, "created", msgs[3].OfTool.Content.OfString.Value)
	require.NotNil(t, msgs[4].OfTool)
	assert.Equal(t, "call_b", msgs[4].OfTool.ToolCallID)

	require.NotNil(t, msgs[5].OfAssistant)
	assert.Equal(t, "Randevunuz hazır.", msgs[5].OfAssistant.Content.OfString.Value)
}

func TestBuildMessagesAssistantWithoutCalls(t *testing.T) {
	t.Parallel()

	msgs := buildMessages([]domain.Message{domain.AssistantMessage("Merhaba.")})
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].OfAssistant)
	assert.Empty(t, msgs[0].OfAssistant.ToolCalls)
}

func TestBuildTools(t *testing.T) {
	t.Parallel()

	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"slot": map[string]any{"type": "string"},
		},
		"required": []string{"slot"},
	}
	out := buildTools([]llm.ToolDefinition{
		{Name: "create_booking", Description: "yeni rezervasyon", Parameters: params},
	})

	require.Len(t, out, 1)
	assert.EqualValues(t, "function", out[0].Type)
	assert.Equal(t, "create_booking", out[0].Function.Name)
	assert.Equal(t, "yeni rezervasyon", out[0].Function.Description.Value)
	assert.Equal(t, openai.FunctionParameters(params), out[0].Function.Parameters)
}

func TestDecodeTurn(t *testing.T) {
	t.Parallel()

	t.Run("maps tool calls", func(t *testing.T) {
		t.Parallel()

		turn := decodeTurn(openai.ChatCompletionMessage{
			Content: "Bir saniye.",
			ToolCalls: []openai.ChatCompletionMessageToolCall{
				{
					ID: "call_1",
					Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      "create_booking",
						Arguments: `{"slot":"9-10"}`,
					},
				},
			},
		})

		assert.Equal(t, domain.RoleAssistant, turn.Role)
		assert.Equal(t, "Bir saniye.", turn.Content)
		require.Len(t, turn.ToolCalls, 1)
		assert.Equal(t, "call_1", turn.ToolCalls[0].ID)
		assert.Equal(t, "create_booking", turn.ToolCalls[0].Name)
	})

	t.Run("malformed arguments degrade to apology", func(t *testing.T) {
		t.Parallel()

		turn := decodeTurn(openai.ChatCompletionMessage{
			ToolCalls: []openai.ChatCompletionMessageToolCall{
				{
					ID: "call_1",
					Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      "create_booking",
						Arguments: `{"slot":`,
					},
				},
			},
		})

		assert.Equal(t, llm.Apology, turn.Content)
		assert.False(t, turn.HasToolCalls())
	})

	t.Run("plain text", func(t *testing.T) {
		t.Parallel()

		turn := decodeTurn(openai.ChatCompletionMessage{Content: "Merhaba."})
		assert.Equal(t, "Merhaba.", turn.Content)
		assert.False(t, turn.HasToolCalls())
	})
}
