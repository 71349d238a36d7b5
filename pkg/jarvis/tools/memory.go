// Package tools – memory.go exposes the memory backend to the model as
// memory_store, memory_recall and memory_forget.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jholhewres/jarvis/pkg/jarvis/memory"
)

// MemoryStoreTool saves a fact under a key.
type MemoryStoreTool struct {
	memory memory.Memory
}

// NewMemoryStoreTool creates the memory_store tool.
func NewMemoryStoreTool(m memory.Memory) *MemoryStoreTool {
	return &MemoryStoreTool{memory: m}
}

func (t *MemoryStoreTool) Name() string { return "memory_store" }

func (t *MemoryStoreTool) Description() string {
	return "Store a fact in persistent memory under a short descriptive key."
}

func (t *MemoryStoreTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key": map[string]any{
				"type":        "string",
				"description": "Short kebab-case key identifying the fact.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The fact to remember.",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Optional category: core, daily, or conversation.",
			},
		},
		"required": []string{"key", "content"},
	}
}

func (t *MemoryStoreTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return Result{}, err
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return Result{}, err
	}
	category := optionalStringArg(args, "category", memory.CategoryCore)

	if err := t.memory.Store(ctx, key, content, category); err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Output: fmt.Sprintf("stored %q", key)}, nil
}

// MemoryRecallTool searches persistent memory.
type MemoryRecallTool struct {
	memory memory.Memory
}

// NewMemoryRecallTool creates the memory_recall tool.
func NewMemoryRecallTool(m memory.Memory) *MemoryRecallTool {
	return &MemoryRecallTool{memory: m}
}

func (t *MemoryRecallTool) Name() string { return "memory_recall" }

func (t *MemoryRecallTool) Description() string {
	return "Search persistent memory for facts matching a query."
}

func (t *MemoryRecallTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Text to search for in keys and contents.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of entries to return (default 5).",
			},
		},
		"required": []string{"query"},
	}
}

func (t *MemoryRecallTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return Result{}, err
	}
	limit := optionalIntArg(args, "limit", 5)

	entries, err := t.memory.Recall(ctx, query, limit)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	if len(entries) == 0 {
		return Result{Success: true, Output: "no matching memories"}, nil
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s: %s\n", e.Key, e.Content)
	}
	return Result{Success: true, Output: strings.TrimRight(b.String(), "\n")}, nil
}

// MemoryForgetTool removes a fact by key.
type MemoryForgetTool struct {
	memory memory.Memory
}

// NewMemoryForgetTool creates the memory_forget tool.
func NewMemoryForgetTool(m memory.Memory) *MemoryForgetTool {
	return &MemoryForgetTool{memory: m}
}

func (t *MemoryForgetTool) Name() string { return "memory_forget" }

func (t *MemoryForgetTool) Description() string {
	return "Remove a fact from persistent memory by its key."
}

func (t *MemoryForgetTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key": map[string]any{
				"type":        "string",
				"description": "Key of the fact to forget.",
			},
		},
		"required": []string{"key"},
	}
}

func (t *MemoryForgetTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return Result{}, err
	}

	existed, err := t.memory.Forget(ctx, key)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	if !existed {
		return Result{Success: true, Output: fmt.Sprintf("no memory stored under %q", key)}, nil
	}
	return Result{Success: true, Output: fmt.Sprintf("forgot %q", key)}, nil
}
