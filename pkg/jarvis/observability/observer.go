// Package observability defines the agent event observer. Events are
// emitted by the tool loop around each turn and tool call; the default
// implementation writes them through slog.
package observability

import (
	"log/slog"
	"time"
)

// Observer receives agent lifecycle events. Implementations must be safe
// for concurrent use.
type Observer interface {
	// AgentStart fires when a turn begins.
	AgentStart(session, message string)
	// ToolCall fires after each tool invocation completes.
	ToolCall(tool string, duration time.Duration, success bool)
	// AgentEnd fires when a turn completes, with the outcome error if any.
	AgentEnd(session string, duration time.Duration, err error)
}

// LogObserver writes events as structured log records.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an observer logging under the given logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger.With("component", "agent")}
}

func (o *LogObserver) AgentStart(session, message string) {
	o.logger.Info("agent turn started", "session", session, "message_len", len(message))
}

func (o *LogObserver) ToolCall(tool string, duration time.Duration, success bool) {
	o.logger.Info("tool call",
		"tool", tool,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

func (o *LogObserver) AgentEnd(session string, duration time.Duration, err error) {
	if err != nil {
		o.logger.Error("agent turn failed",
			"session", session,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return
	}
	o.logger.Info("agent turn done",
		"session", session,
		"duration_ms", duration.Milliseconds(),
	)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) AgentStart(string, string)             {}
func (NoopObserver) ToolCall(string, time.Duration, bool)  {}
func (NoopObserver) AgentEnd(string, time.Duration, error) {}

// New returns a log observer when enabled, otherwise a no-op.
func New(enabled bool, logger *slog.Logger) Observer {
	if enabled {
		return NewLogObserver(logger)
	}
	return NoopObserver{}
}
