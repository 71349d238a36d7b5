package channels

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLI is the stdin transport. One line in, one agent reply out. Mostly
// useful for channel doctoring and local testing of the manager path.
type CLI struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

// NewCLI creates a CLI transport on stdin/stdout.
func NewCLI(logger *slog.Logger) *CLI {
	return &CLI{
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logger.With("component", "cli-channel"),
	}
}

func (c *CLI) Name() string { return "cli" }

// Listen reads lines until EOF or context cancel. Blank lines are skipped.
func (c *CLI) Listen(ctx context.Context, out chan<- Incoming) error {
	scanner := bufio.NewScanner(c.in)
	lines := make(chan string)

	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			select {
			case out <- Incoming{Channel: c.Name(), From: "local", Text: text, ReplyTo: "stdout"}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Send writes the reply to stdout.
func (c *CLI) Send(ctx context.Context, to, text string) error {
	_, err := fmt.Fprintln(c.out, text)
	return err
}
