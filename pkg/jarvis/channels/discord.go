package channels

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// discordMessageLimit is Discord's per-message character cap.
const discordMessageLimit = 2000

// DiscordConfig holds the Discord transport settings.
type DiscordConfig struct {
	// BotToken is the Discord bot token.
	BotToken string

	// AllowedUsers restricts which user IDs the bot responds to.
	// Empty means respond to everyone.
	AllowedUsers []string
}

// Discord is the Discord transport on a discordgo gateway session.
type Discord struct {
	cfg     DiscordConfig
	logger  *slog.Logger
	session *discordgo.Session
}

// NewDiscord creates the Discord transport. The session is opened in Listen.
func NewDiscord(cfg DiscordConfig, logger *slog.Logger) *Discord {
	return &Discord{
		cfg:    cfg,
		logger: logger.With("component", "discord"),
	}
}

func (d *Discord) Name() string { return "discord" }

// Listen opens the gateway session and forwards messages until the context
// is cancelled. In guild channels the bot only answers when mentioned;
// direct messages always get a reply.
func (d *Discord) Listen(ctx context.Context, out chan<- Incoming) error {
	if d.cfg.BotToken == "" {
		return fmt.Errorf("discord: bot token is required")
	}

	session, err := discordgo.New("Bot " + d.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		msg, ok := d.accept(s, m)
		if !ok {
			return
		}
		select {
		case out <- msg:
		case <-ctx.Done():
		}
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: opening gateway: %w", err)
	}
	d.session = session

	user := session.State.User
	d.logger.Info("discord connected", "bot", user.Username, "id", user.ID)

	<-ctx.Done()
	if err := session.Close(); err != nil {
		d.logger.Warn("closing discord session", "error", err)
	}
	d.logger.Info("discord disconnected")
	return ctx.Err()
}

// accept filters a gateway event down to a message the agent should answer.
func (d *Discord) accept(s *discordgo.Session, m *discordgo.MessageCreate) (Incoming, bool) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return Incoming{}, false
	}
	if !d.userAllowed(m.Author.ID) {
		d.logger.Debug("message from disallowed user", "user", m.Author.ID)
		return Incoming{}, false
	}

	text := strings.TrimSpace(m.Content)
	if m.GuildID != "" {
		mention, ok := stripMention(text, s.State.User.ID)
		if !ok {
			return Incoming{}, false
		}
		text = mention
	}
	if text == "" {
		return Incoming{}, false
	}

	return Incoming{
		Channel: d.Name(),
		From:    m.Author.ID,
		Text:    text,
		ReplyTo: m.ChannelID,
	}, true
}

func (d *Discord) userAllowed(id string) bool {
	if len(d.cfg.AllowedUsers) == 0 {
		return true
	}
	for _, allowed := range d.cfg.AllowedUsers {
		if allowed == id {
			return true
		}
	}
	return false
}

// stripMention removes a leading bot mention and reports whether the
// message mentioned the bot at all.
func stripMention(text, botID string) (string, bool) {
	for _, form := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		if !strings.Contains(text, form) {
			continue
		}
		return strings.TrimSpace(strings.Replace(text, form, "", 1)), true
	}
	return "", false
}

// Send delivers text to a Discord channel, splitting past the 2000
// character cap.
func (d *Discord) Send(ctx context.Context, to, text string) error {
	if d.session == nil {
		return fmt.Errorf("discord: not connected")
	}
	for _, chunk := range splitMessage(text, discordMessageLimit) {
		if _, err := d.session.ChannelMessageSend(to, chunk); err != nil {
			return fmt.Errorf("discord: sending message: %w", err)
		}
	}
	return nil
}

// splitMessage chunks text at the limit, preferring newline boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
