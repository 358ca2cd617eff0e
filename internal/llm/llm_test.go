package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/llm"
)

func TestValidArguments(t *testing.T) {
	t.Parallel()

	assert.True(t, llm.ValidArguments(""))
	assert.True(t, llm.ValidArguments("{}"))
	assert.True(t, llm.ValidArguments(`{"slot":"9-10"}`))
	assert.False(t, llm.ValidArguments(`{"slot":`))
	assert.False(t, llm.ValidArguments("not json"))
}

func TestApologyTurn(t *testing.T) {
	t.Parallel()

	turn := llm.ApologyTurn()
	assert.Equal(t, domain.RoleAssistant, turn.Role)
	assert.Equal(t, llm.Apology, turn.Content)
	assert.False(t, turn.HasToolCalls())
}
