package convo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/randevu/internal/convo"
	"github.com/gosuda/randevu/internal/domain"
)

func toolCallTurn(id, name string) domain.Message {
	return domain.Message{
		Role:      domain.RoleAssistant,
		ToolCalls: []domain.ToolCall{{ID: id, Name: name, Arguments: "{}"}},
	}
}

func TestCompact(t *testing.T) {
	t.Parallel()

	t.Run("collapses completed round trip", func(t *testing.T) {
		t.Parallel()

		call := domain.ToolCall{ID: "call_1", Name: "create_booking", Arguments: "{}"}
		history := []domain.Message{
			domain.SystemMessage("sys"),
			domain.UserMessage("yarın 9-10'a randevu"),
			toolCallTurn("call_1", "create_booking"),
			domain.ToolResultMessage(call, "created"),
			domain.AssistantMessage("Randevunuz oluşturuldu."),
		}

		got := convo.Compact(history)

		require.Len(t, got, 3)
		assert.Equal(t, domain.RoleSystem, got[0].Role)
		assert.Equal(t, domain.RoleUser, got[1].Role)
		assert.Equal(t, "Randevunuz oluşturuldu.", got[2].Content)
		assert.False(t, got[2].HasToolCalls())
	})

	t.Run("collapses multiple rounds", func(t *testing.T) {
		t.Parallel()

		callA := domain.ToolCall{ID: "a", Name: "list_day_bookings", Arguments: "{}"}
		callB := domain.ToolCall{ID: "b", Name: "create_booking", Arguments: "{}"}
		history := []domain.Message{
			domain.UserMessage("bugün doluluk?"),
			toolCallTurn("a", "list_day_bookings"),
			domain.ToolResultMessage(callA, "empty day"),
			domain.AssistantMessage("Bugün boş."),
			domain.UserMessage("o zaman 9-10'a yaz"),
			toolCallTurn("b", "create_booking"),
			domain.ToolResultMessage(callB, "created"),
			domain.AssistantMessage("Yazdım."),
		}

		got := convo.Compact(history)

		require.Len(t, got, 4)
		for _, m := range got {
			assert.NotEqual(t, domain.RoleTool, m.Role)
			assert.False(t, m.HasToolCalls())
		}
	})

	t.Run("keeps in-flight round", func(t *testing.T) {
		t.Parallel()

		call := domain.ToolCall{ID: "x", Name: "cancel_booking", Arguments: "{}"}
		history := []domain.Message{
			domain.UserMessage("iptal et"),
			toolCallTurn("x", "cancel_booking"),
			domain.ToolResultMessage(call, "cancelled"),
		}

		got := convo.Compact(history)
		assert.Equal(t, history, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		call := domain.ToolCall{ID: "c", Name: "update_booking", Arguments: "{}"}
		history := []domain.Message{
			domain.SystemMessage("sys"),
			domain.UserMessage("taşı"),
			toolCallTurn("c", "update_booking"),
			domain.ToolResultMessage(call, "moved"),
			domain.AssistantMessage("Taşıdım."),
		}

		once := convo.Compact(history)
		twice := convo.Compact(once)
		assert.Equal(t, once, twice)
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, convo.Compact(nil))
	})
}

func TestTrim(t *testing.T) {
	t.Parallel()

	t.Run("keeps system plus recent tail", func(t *testing.T) {
		t.Parallel()

		history := []domain.Message{domain.SystemMessage("sys")}
		for i := 0; i < 10; i++ {
			history = append(history, domain.UserMessage("msg"), domain.AssistantMessage("reply"))
		}

		got := convo.Trim(history, 6)

		require.Len(t, got, 7)
		assert.Equal(t, domain.RoleSystem, got[0].Role)
	})

	t.Run("drops orphaned tool results", func(t *testing.T) {
		t.Parallel()

		call := domain.ToolCall{ID: "orphan", Name: "create_booking", Arguments: "{}"}
		history := []domain.Message{
			domain.UserMessage("one"),
			toolCallTurn("orphan", "create_booking"),
			// Window cuts here: the result survives the size cut but its
			// issuing turn does not.
			domain.ToolResultMessage(call, "created"),
			domain.AssistantMessage("done"),
			domain.UserMessage("two"),
			domain.AssistantMessage("ok"),
		}

		got := convo.Trim(history, 4)

		for _, m := range got {
			assert.NotEqual(t, domain.RoleTool, m.Role, "tool result kept without issuing turn")
		}
	})

	t.Run("keeps paired tool result inside window", func(t *testing.T) {
		t.Parallel()

		call := domain.ToolCall{ID: "ok", Name: "create_booking", Arguments: "{}"}
		history := []domain.Message{
			domain.UserMessage("old"),
			domain.AssistantMessage("old reply"),
			domain.UserMessage("new"),
			toolCallTurn("ok", "create_booking"),
			domain.ToolResultMessage(call, "created"),
		}

		got := convo.Trim(history, 3)

		require.Len(t, got, 3)
		assert.Equal(t, domain.RoleTool, got[2].Role)
		assert.Equal(t, "ok", got[2].ToolCallID)
	})

	t.Run("no-op under limit", func(t *testing.T) {
		t.Parallel()

		history := []domain.Message{
			domain.SystemMessage("sys"),
			domain.UserMessage("hi"),
		}
		assert.Equal(t, history, convo.Trim(history, 10))
	})
}
