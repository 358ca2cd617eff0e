package convo

import "github.com/gosuda/randevu/internal/domain"

// Compact collapses every completed tool round trip — assistant turn with
// tool calls, its tool results, and the closing assistant text turn — into
// just the closing text. Tool chatter is working memory for the turn that
// produced it, not useful long-term context. Compacting an already-compacted
// history is a no-op.
func Compact(messages []domain.Message) []domain.Message {
	out := append([]domain.Message(nil), messages...)

	for {
		i, k, ok := findRound(out)
		if !ok {
			return out
		}
		// Keep everything before the opening tool-call turn plus the
		// closing text turn and whatever follows it.
		out = append(out[:i], out[k:]...)
	}
}

// findRound locates the first run [assistant+toolCalls, tool-result(s),
// assistant-without-toolCalls] and returns the index of the opening turn and
// of the closing text turn.
func findRound(messages []domain.Message) (start, end int, ok bool) {
	for i := 0; i < len(messages); i++ {
		if !messages[i].HasToolCalls() {
			continue
		}
		j := i + 1
		for j < len(messages) && messages[j].Role == domain.RoleTool {
			j++
		}
		if j == i+1 || j >= len(messages) {
			continue // no results yet, or round still in flight
		}
		if messages[j].Role == domain.RoleAssistant && !messages[j].HasToolCalls() {
			return i, j, true
		}
	}
	return 0, 0, false
}

// Trim keeps the leading system message (when present) plus the most recent
// max non-system messages. Tool results are never orphaned: a result whose
// assistant tool-call turn fell off the window is dropped with it.
func Trim(messages []domain.Message, max int) []domain.Message {
	if max <= 0 {
		return messages
	}

	var system []domain.Message
	rest := messages
	if len(messages) > 0 && messages[0].Role == domain.RoleSystem {
		system = messages[:1]
		rest = messages[1:]
	}

	if len(rest) > max {
		rest = rest[len(rest)-max:]
	}

	// Collect the tool-call IDs still visible in the window, then drop any
	// result that no longer has its issuing turn.
	known := make(map[string]struct{})
	kept := make([]domain.Message, 0, len(rest))
	for _, m := range rest {
		if m.Role == domain.RoleTool {
			if _, ok := known[m.ToolCallID]; !ok {
				continue
			}
		}
		for _, tc := range m.ToolCalls {
			known[tc.ID] = struct{}{}
		}
		kept = append(kept, m)
	}

	out := make([]domain.Message, 0, len(system)+len(kept))
	out = append(out, system...)
	out = append(out, kept...)
	return out
}
