// Package provider – types.go defines the chat message and tool-calling types
// shared between the agent loop and the LLM providers. The wire format is
// OpenAI's chat completions JSON; messages are role-tagged and absent fields
// are omitted.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message roles on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one message in a multi-turn conversation.
//
// Four variants, discriminated by Role:
//   - system / user: Content is always set.
//   - assistant: Content and ToolCalls are both optional.
//   - tool: Content and ToolCallID are set; ToolCallID references the call id
//     the model assigned in a prior assistant message.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: &content}
}

// UserMessage builds a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: &content}
}

// AssistantMessage builds an assistant message. Either argument may be
// nil/empty; the model can answer with text, tool calls, or both.
func AssistantMessage(content *string, toolCalls []ToolCall) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolMessage builds a tool-result message answering the given call id.
func ToolMessage(toolCallID, content string) ChatMessage {
	return ChatMessage{Role: RoleTool, Content: &content, ToolCallID: toolCallID}
}

// Text returns the message content, or "" when absent.
func (m ChatMessage) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// ToolCall is a tool invocation requested by the model. The id is opaque and
// assigned by the provider; it is never rewritten.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the function name and JSON-encoded arguments string.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// UnmarshalJSON accepts arguments as either a JSON string or a JSON object.
// Some providers (DeepSeek among them) return the object form; it is
// re-serialized to its canonical string representation.
func (f *FunctionCall) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Name = raw.Name
	if len(raw.Arguments) == 0 {
		f.Arguments = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(raw.Arguments, &s); err == nil {
		f.Arguments = s
		return nil
	}

	// Object (or any other JSON) form: compact it to a string.
	var compact json.RawMessage
	if err := json.Unmarshal(raw.Arguments, &compact); err != nil {
		return fmt.Errorf("tool call arguments: %w", err)
	}
	b, err := json.Marshal(compact)
	if err != nil {
		return err
	}
	f.Arguments = string(b)
	return nil
}

// ToolDefinition is a tool descriptor advertised to the model.
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef carries the function name, description, and JSON-Schema
// parameter contract of a tool definition.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatResponse is the structured result of a tool-capable chat call: either a
// final text (no tool calls) or a tool-use request with an optional preamble.
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// IsToolUse reports whether the model requested tool calls.
func (r *ChatResponse) IsToolUse() bool {
	return len(r.ToolCalls) > 0
}

// Provider is an adapter to an external LLM endpoint.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name identifies the provider in logs and error messages.
	Name() string

	// ChatWithSystem is the single-turn fallback path: one user message with
	// an optional system prompt, returning plain text.
	ChatWithSystem(ctx context.Context, systemPrompt, message, model string, temperature float64) (string, error)

	// ChatWithTools is the primary operation: full history plus tool
	// definitions, returning text or a tool-use request.
	ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, model string, temperature float64) (*ChatResponse, error)

	// Warmup pre-establishes the HTTP connection pool. Best effort.
	Warmup(ctx context.Context) error
}
