// Package agent implements the tool-calling loop: the bounded conversation
// between the model and the tool registry that turns one user message into
// one final answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jholhewres/jarvis/pkg/jarvis/observability"
	"github.com/jholhewres/jarvis/pkg/jarvis/provider"
	"github.com/jholhewres/jarvis/pkg/jarvis/security"
	"github.com/jholhewres/jarvis/pkg/jarvis/tools"
)

// finalAnswerPrompt is the synthetic user message appended when the
// iteration budget runs out.
const finalAnswerPrompt = "Please provide your final answer now, without using any more tools."

// iterationLimitFallback is returned when even the forced final call still
// asks for tools and carries no usable text.
const iterationLimitFallback = "I couldn't produce a final answer within the iteration limit."

// Loop drives tool-calling turns against a provider. Construct once per
// session; it is safe to share across turns as long as turns are serialized
// by the caller (history ownership rule).
type Loop struct {
	provider      provider.Provider
	registry      *tools.Registry
	defs          []provider.ToolDefinition
	model         string
	temperature   float64
	maxIterations int
	security      *security.Policy
	observer      observability.Observer
	quiet         bool
	logger        *slog.Logger
}

// LoopOptions configures a Loop.
type LoopOptions struct {
	Provider      provider.Provider
	Registry      *tools.Registry
	Model         string
	Temperature   float64
	MaxIterations int
	Security      *security.Policy
	Observer      observability.Observer
	// Quiet suppresses printing tool-use preambles to stdout.
	Quiet  bool
	Logger *slog.Logger
}

// NewLoop creates the loop. Tool definitions are rendered once up front.
func NewLoop(opts LoopOptions) *Loop {
	maxIter := opts.MaxIterations
	if maxIter < 1 {
		maxIter = 1
	}
	obs := opts.Observer
	if obs == nil {
		obs = observability.NoopObserver{}
	}
	return &Loop{
		provider:      opts.Provider,
		registry:      opts.Registry,
		defs:          opts.Registry.Definitions(),
		model:         opts.Model,
		temperature:   opts.Temperature,
		maxIterations: maxIter,
		security:      opts.Security,
		observer:      obs,
		quiet:         opts.Quiet,
		logger:        opts.Logger.With("component", "agent"),
	}
}

// Run executes one turn. history must start with a system message and end
// with the user message for this turn; the loop appends assistant and tool
// messages as it goes and returns the final assistant text.
func (l *Loop) Run(ctx context.Context, history *[]provider.ChatMessage) (string, error) {
	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		resp, err := l.provider.ChatWithTools(ctx, *history, l.defs, l.model, l.temperature)
		if err != nil {
			return "", fmt.Errorf("provider call failed: %w", err)
		}

		if !resp.IsToolUse() {
			*history = append(*history, provider.AssistantMessage(&resp.Text, nil))
			return resp.Text, nil
		}

		l.logger.Debug("model requested tools",
			"iteration", iteration,
			"calls", len(resp.ToolCalls),
		)
		var preamble *string
		if resp.Text != "" {
			preamble = &resp.Text
			if !l.quiet {
				fmt.Println(resp.Text)
			}
		}
		*history = append(*history, provider.AssistantMessage(preamble, resp.ToolCalls))
		*history = append(*history, l.executeToolCalls(ctx, resp.ToolCalls)...)
	}

	// Budget exhausted: force a terminal text with tools disabled.
	l.logger.Warn("iteration limit reached, forcing final answer", "max_iterations", l.maxIterations)
	*history = append(*history, provider.UserMessage(finalAnswerPrompt))

	resp, err := l.provider.ChatWithTools(ctx, *history, nil, l.model, l.temperature)
	if err != nil {
		return "", fmt.Errorf("provider call failed: %w", err)
	}

	final := resp.Text
	if resp.IsToolUse() && final == "" {
		final = iterationLimitFallback
	}
	*history = append(*history, provider.AssistantMessage(&final, nil))
	return final, nil
}

// executeToolCalls runs the harness over one tool-use batch. Results come
// back in the exact order of the calls.
func (l *Loop) executeToolCalls(ctx context.Context, calls []provider.ToolCall) []provider.ChatMessage {
	results := make([]provider.ChatMessage, 0, len(calls))
	for _, call := range calls {
		start := time.Now()
		content := l.executeOne(ctx, call)
		success := !strings.HasPrefix(content, "Error:")
		l.observer.ToolCall(call.Function.Name, time.Since(start), success)
		results = append(results, provider.ToolMessage(call.ID, content))
	}
	return results
}

// executeOne dispatches a single call and maps its outcome to message
// content. Tool failures never terminate the turn; they become error text
// the model can react to.
func (l *Loop) executeOne(ctx context.Context, call provider.ToolCall) string {
	name := call.Function.Name

	tool, ok := l.registry.Get(name)
	if !ok {
		// Unknown tools do not consume rate budget.
		return fmt.Sprintf("Error: unknown tool %q", name)
	}

	if !l.security.RecordAction() {
		return "Error: action rate limit exceeded, try again later"
	}

	args := make(map[string]any)
	if raw := call.Function.Arguments; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return fmt.Sprintf("Error: invalid tool arguments: %v", err)
		}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return "Error: " + err.Error()
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = result.Output
		}
		return "Error: " + msg
	}
	return result.Output
}

// TrimHistory drops the oldest user turns beyond maxTurns, keeping the
// system message at index 0 and everything from the first surviving user
// message onward. maxTurns == 0 means unlimited. Cutting at a user boundary
// guarantees no assistant/tool-call cluster is split.
func TrimHistory(history []provider.ChatMessage, maxTurns int) []provider.ChatMessage {
	if maxTurns <= 0 {
		return history
	}

	userCount := 0
	for _, m := range history {
		if m.Role == provider.RoleUser {
			userCount++
		}
	}
	if userCount <= maxTurns {
		return history
	}

	skip := userCount - maxTurns
	seen := 0
	for i := 1; i < len(history); i++ {
		if history[i].Role == provider.RoleUser {
			seen++
			if seen == skip+1 {
				trimmed := make([]provider.ChatMessage, 0, 1+len(history)-i)
				trimmed = append(trimmed, history[0])
				trimmed = append(trimmed, history[i:]...)
				return trimmed
			}
		}
	}
	return history
}

// BuildUserMessage prepends the memory-context preamble to the user's text
// when entries were recalled.
func BuildUserMessage(text string, entries []MemoryEntry) string {
	if len(entries) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString("[Memory context]\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s: %s\n", e.Key, e.Content)
	}
	b.WriteString("\n")
	b.WriteString(text)
	return b.String()
}

// MemoryEntry is a recalled memory used for context injection.
type MemoryEntry struct {
	Key     string
	Content string
}
