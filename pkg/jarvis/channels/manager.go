package channels

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jholhewres/jarvis/pkg/jarvis/health"
)

// TurnFunc runs one agent turn for a channel session and returns the reply.
type TurnFunc func(ctx context.Context, session, message string) (string, error)

// incomingBuffer absorbs bursts while a turn is running.
const incomingBuffer = 256

// Manager fans incoming messages from every transport into agent turns and
// routes replies back on the originating transport. Each transport gets a
// health component named "channel:<name>".
type Manager struct {
	channels []Channel
	turn     TurnFunc
	logger   *slog.Logger
}

// NewManager creates a manager over the given transports.
func NewManager(chs []Channel, turn TurnFunc, logger *slog.Logger) *Manager {
	return &Manager{
		channels: chs,
		turn:     turn,
		logger:   logger.With("component", "channels"),
	}
}

// Run listens on all transports until the context is cancelled. A transport
// that drops keeps its last health error; the others keep running.
func (m *Manager) Run(ctx context.Context) error {
	if len(m.channels) == 0 {
		m.logger.Info("no channels configured")
		<-ctx.Done()
		return ctx.Err()
	}

	incoming := make(chan Incoming, incomingBuffer)

	var wg sync.WaitGroup
	for _, ch := range m.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			m.listen(ctx, ch, incoming)
		}(ch)
	}

	// Close the fan-in only after every listener has stopped writing.
	go func() {
		wg.Wait()
		close(incoming)
	}()

	for msg := range incoming {
		m.handle(ctx, msg)
	}
	return ctx.Err()
}

func (m *Manager) listen(ctx context.Context, ch Channel, out chan<- Incoming) {
	component := "channel:" + ch.Name()
	health.MarkOK(component)

	err := ch.Listen(ctx, out)
	if err != nil && ctx.Err() == nil {
		health.MarkError(component, err.Error())
		m.logger.Error("channel stopped", "channel", ch.Name(), "error", err)
		return
	}
	m.logger.Info("channel closed", "channel", ch.Name())
}

func (m *Manager) handle(ctx context.Context, msg Incoming) {
	component := "channel:" + msg.Channel
	session := msg.Channel + ":" + msg.From

	start := time.Now()
	reply, err := m.turn(ctx, session, msg.Text)
	if err != nil {
		health.MarkError(component, err.Error())
		m.logger.Error("turn failed", "channel", msg.Channel, "from", msg.From, "error", err)
		reply = "Sorry, something went wrong handling that message."
	}

	if err := m.send(ctx, msg, reply); err != nil {
		health.MarkError(component, err.Error())
		m.logger.Error("reply failed", "channel", msg.Channel, "error", err)
		return
	}
	if err == nil {
		health.MarkOK(component)
	}
	m.logger.Debug("message handled", "channel", msg.Channel, "duration", time.Since(start).String())
}

func (m *Manager) send(ctx context.Context, msg Incoming, text string) error {
	for _, ch := range m.channels {
		if ch.Name() == msg.Channel {
			return ch.Send(ctx, msg.ReplyTo, text)
		}
	}
	m.logger.Warn("reply for unknown channel dropped", "channel", msg.Channel)
	return nil
}
