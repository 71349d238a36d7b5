// Package channels connects the agent to chat transports. Each transport
// implements Channel; the manager fans incoming messages into agent turns
// and routes replies back to the originating transport.
package channels

import "context"

// Incoming is one message received from a transport.
type Incoming struct {
	// Channel is the transport name the message arrived on.
	Channel string

	// From identifies the sender in transport terms (user ID, handle).
	From string

	// Text is the message body.
	Text string

	// ReplyTo is the transport-specific destination for the reply.
	ReplyTo string
}

// Channel is a chat transport the agent can listen and reply on.
type Channel interface {
	// Name identifies the transport ("discord", "cli").
	Name() string

	// Listen connects the transport and forwards messages to out until
	// the context is cancelled. It owns the connection lifecycle and
	// must return after cleanup.
	Listen(ctx context.Context, out chan<- Incoming) error

	// Send delivers text to the transport destination named by to.
	Send(ctx context.Context, to, text string) error
}
