package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/randevu/internal/llm"
)

// ToolResult is what a tool hands back to the loop. Content feeds the model
// as the tool-result text; Image, when set, becomes the outbound reply
// attachment for this turn.
type ToolResult struct {
	Content string
	Image   []byte
}

// Handler executes one tool call for a tenant with already-decoded arguments.
type Handler func(ctx context.Context, tenantID uuid.UUID, args map[string]any) (ToolResult, error)

// Tool is an executable registered at startup. Parameters is a minimal
// JSON-schema map exposed to the model only during the execution stage.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry holds all registered tools in registration order.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Definitions returns every tool definition in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// DefinitionsFor maps selected names to definitions, dropping unknown names
// and capping at max. Returns nil when nothing resolves.
func (r *Registry) DefinitionsFor(names []string, max int) []llm.ToolDefinition {
	var defs []llm.ToolDefinition
	for _, name := range names {
		t, ok := r.tools[strings.TrimSpace(name)]
		if !ok {
			continue
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
		if len(defs) == max {
			break
		}
	}
	return defs
}

// Catalog renders "name: description" lines for the routing instruction.
func (r *Registry) Catalog() string {
	var sb strings.Builder
	for _, name := range r.order {
		sb.WriteString("- ")
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(r.tools[name].Description)
		sb.WriteString("\n")
	}
	return sb.String()
}
