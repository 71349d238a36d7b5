// Package tools defines the callable tool surface the model can use: the
// Tool interface, the registry advertised to the provider, and the built-in
// implementations (shell, files, memory, web).
package tools

import (
	"context"
	"fmt"

	"github.com/jholhewres/jarvis/pkg/jarvis/provider"
)

// Result is the outcome of one tool execution. On failure, Error (or Output
// when Error is empty) becomes the error text shown to the model.
type Result struct {
	Success bool
	Output  string
	Error   string
}

// Tool is one callable capability advertised to the model. Implementations
// must be safe for concurrent use.
type Tool interface {
	Name() string
	Description() string
	// ParametersSchema returns the JSON-Schema object describing the
	// argument contract.
	ParametersSchema() map[string]any
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// Registry holds the tools for one agent session. Names are unique.
type Registry struct {
	ordered []Tool
	byName  map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds a tool; duplicate names are rejected.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.byName[name] = t
	r.ordered = append(r.ordered, t)
	return nil
}

// Get looks a tool up by exact name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	return r.ordered
}

// Definitions renders the registry as provider tool definitions.
func (r *Registry) Definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(r.ordered))
	for _, t := range r.ordered {
		defs = append(defs, provider.ToolDefinition{
			Type: "function",
			Function: provider.FunctionDef{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.ParametersSchema(),
			},
		})
	}
	return defs
}

// ---------- Argument helpers ----------

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

func optionalStringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func optionalIntArg(args map[string]any, key string, fallback int) int {
	if v, ok := args[key]; ok {
		// JSON numbers decode as float64.
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return fallback
}
