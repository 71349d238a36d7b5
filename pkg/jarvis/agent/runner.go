// Package agent – runner.go wraps the loop with session management: memory
// context injection, history trimming, auto-save, and the interactive REPL.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/chzyer/readline"

	"github.com/jholhewres/jarvis/pkg/jarvis/memory"
	"github.com/jholhewres/jarvis/pkg/jarvis/observability"
	"github.com/jholhewres/jarvis/pkg/jarvis/provider"
)

// recallLimit caps how many memories are injected per turn.
const recallLimit = 3

// autoSaveMaxLen truncates the assistant response stored by auto-save.
const autoSaveMaxLen = 500

// Runner owns one conversation: the history, the loop, and the memory
// integration around each turn.
type Runner struct {
	loop         *Loop
	memory       memory.Memory
	observer     observability.Observer
	systemPrompt string
	maxTurns     int
	autoSave     bool
	logger       *slog.Logger

	mu      sync.Mutex
	history []provider.ChatMessage
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Loop         *Loop
	Memory       memory.Memory
	Observer     observability.Observer
	SystemPrompt string
	MaxTurns     int
	AutoSave     bool
	Logger       *slog.Logger
}

// NewRunner creates a runner with a fresh history.
func NewRunner(opts RunnerOptions) *Runner {
	obs := opts.Observer
	if obs == nil {
		obs = observability.NoopObserver{}
	}
	return &Runner{
		loop:         opts.Loop,
		memory:       opts.Memory,
		observer:     obs,
		systemPrompt: opts.SystemPrompt,
		maxTurns:     opts.MaxTurns,
		autoSave:     opts.AutoSave,
		logger:       opts.Logger.With("component", "agent"),
		history:      []provider.ChatMessage{provider.SystemMessage(opts.SystemPrompt)},
	}
}

// RunOnce executes a single turn against a fresh history. Used by one-shot
// CLI invocations, the gateway webhook, and heartbeat tasks.
func (r *Runner) RunOnce(ctx context.Context, session, message string) (string, error) {
	history := []provider.ChatMessage{
		provider.SystemMessage(r.systemPrompt),
		provider.UserMessage(r.enrich(ctx, message)),
	}
	return r.runTurn(ctx, session, message, &history)
}

// Turn executes one turn against the persistent history. Turns are
// serialized by the runner's mutex.
func (r *Runner) Turn(ctx context.Context, session, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, provider.UserMessage(r.enrich(ctx, message)))
	text, err := r.runTurn(ctx, session, message, &r.history)
	if err != nil {
		return "", err
	}
	r.history = TrimHistory(r.history, r.maxTurns)
	return text, nil
}

func (r *Runner) runTurn(ctx context.Context, session, message string, history *[]provider.ChatMessage) (string, error) {
	r.observer.AgentStart(session, message)
	start := time.Now()

	text, err := r.loop.Run(ctx, history)
	r.observer.AgentEnd(session, time.Since(start), err)
	if err != nil {
		return "", err
	}

	if r.autoSave {
		r.saveTurn(ctx, message, text)
	}
	return text, nil
}

// enrich prepends recalled memory context to the user message. The message
// is broken into keywords because recall is a substring match; a whole
// sentence would almost never hit a stored entry.
func (r *Runner) enrich(ctx context.Context, message string) string {
	if r.memory == nil {
		return message
	}

	seen := make(map[string]bool)
	var entries []MemoryEntry
	for _, word := range recallKeywords(message) {
		recalled, err := r.memory.Recall(ctx, word, recallLimit)
		if err != nil {
			r.logger.Warn("memory recall failed", "error", err)
			break
		}
		for _, e := range recalled {
			if seen[e.Key] || len(entries) >= recallLimit {
				continue
			}
			seen[e.Key] = true
			entries = append(entries, MemoryEntry{Key: e.Key, Content: e.Content})
		}
		if len(entries) >= recallLimit {
			break
		}
	}
	return BuildUserMessage(message, entries)
}

// recallKeywords extracts the words worth searching memory for: longer than
// three characters, punctuation stripped, lowercased.
func recallKeywords(message string) []string {
	fields := strings.FieldsFunc(message, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	var words []string
	for _, f := range fields {
		if len(f) > 3 {
			words = append(words, strings.ToLower(f))
		}
	}
	return words
}

// saveTurn records the exchange in memory under a timestamped key.
func (r *Runner) saveTurn(ctx context.Context, message, response string) {
	if len(response) > autoSaveMaxLen {
		response = response[:autoSaveMaxLen] + "..."
	}
	key := "conversation-" + time.Now().UTC().Format("20060102-150405")
	content := fmt.Sprintf("Q: %s\nA: %s", message, response)
	if err := r.memory.Store(ctx, key, content, memory.CategoryConversation); err != nil {
		r.logger.Warn("auto-save failed", "error", err)
	}
}

// Interactive runs the readline REPL until /quit, EOF, or context cancel.
func (r *Runner) Interactive(ctx context.Context) error {
	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Interactive session. Type /quit to exit.")
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		}

		text, err := r.Turn(ctx, "interactive", line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(text)
	}
}
