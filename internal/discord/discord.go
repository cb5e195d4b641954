// Package discord connects the chat handler to a Discord bot session.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"budgetbot/internal/bot"
	"budgetbot/internal/log"
	"budgetbot/internal/ratelimit"
	"budgetbot/internal/report"
)

// maxMessageLen is Discord's limit for one message body.
const maxMessageLen = 2000

// Handler is the platform-agnostic message handler.
type Handler interface {
	Handle(ctx context.Context, msg bot.Message) []bot.Reply
	Expire(now time.Time) []bot.Reply
}

// messenger is the part of *discordgo.Session used to talk back.
type messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

type Bot struct {
	session *discordgo.Session
	api     messenger
	handler Handler
	logger  *log.Logger

	expireEvery time.Duration
	now         func() time.Time
	limiter     *ratelimit.Limiter

	mu  sync.RWMutex
	ctx context.Context
}

type Option func(*Bot)

// WithRateLimit drops messages from users over the limiter's budget.
func WithRateLimit(l *ratelimit.Limiter) Option {
	return func(b *Bot) { b.limiter = l }
}

// New prepares a session for token. Nothing connects until Run.
func New(token string, handler Handler, logger *log.Logger, opts ...Option) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("empty bot token")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := newBot(session, handler, logger)
	b.session = session
	for _, opt := range opts {
		opt(b)
	}
	session.AddHandler(b.onMessage)
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Connected to Discord", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	return b, nil
}

func newBot(api messenger, handler Handler, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Bot{
		api:         api,
		handler:     handler,
		logger:      logger.WithComponent(log.ComponentDiscord),
		expireEvery: time.Second,
		now:         time.Now,
		ctx:         context.Background(),
	}
}

// Run opens the gateway connection and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	b.logger.Info("Discord session opened", log.FieldOperation, log.OpStartup)

	b.expireLoop(ctx)

	b.logger.Info("Closing Discord session", log.FieldOperation, log.OpShutdown)
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

func (b *Bot) context() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

// expireLoop cancels overdue prompts until ctx is done.
func (b *Bot) expireLoop(ctx context.Context) {
	ticker := time.NewTicker(b.expireEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := b.now()
			b.deliver(ctx, b.handler.Expire(now))
			if b.limiter != nil {
				b.limiter.Prune(now)
			}
		}
	}
}

func (b *Bot) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if b.limiter != nil && !b.limiter.Allow(m.Author.ID, b.now()) {
		b.logger.Warn("Rate limit exceeded, dropping message",
			log.FieldChannelID, m.ChannelID,
			log.FieldUserID, m.Author.ID)
		return
	}
	ctx := b.context()
	replies := b.handler.Handle(ctx, bot.Message{
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
	})
	b.deliver(ctx, replies)
}

func (b *Bot) deliver(ctx context.Context, replies []bot.Reply) {
	for _, r := range replies {
		if err := b.send(ctx, r); err != nil {
			b.logger.Error("Failed to send reply",
				log.FieldChannelID, r.ChannelID,
				log.FieldError, err)
		}
	}
}

// send posts r, splitting long text. An attachment goes with the last chunk
// and is removed afterwards when the reply asks for it.
func (b *Bot) send(ctx context.Context, r bot.Reply) error {
	if r.Attachment != nil && r.Attachment.Remove {
		defer func() {
			if err := report.Discard(r.Attachment.Path); err != nil {
				b.logger.Warn("Failed to remove attachment", log.FieldPath, r.Attachment.Path, log.FieldError, err)
			}
		}()
	}

	chunks := splitMessage(r.Text, maxMessageLen)
	last := len(chunks) - 1
	for i, chunk := range chunks {
		if i == last && r.Attachment != nil {
			return b.sendFile(ctx, r.ChannelID, chunk, r.Attachment.Path)
		}
		if _, err := b.api.ChannelMessageSend(r.ChannelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

func (b *Bot) sendFile(ctx context.Context, channelID, text, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	_, err = b.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: text,
		Files: []*discordgo.File{{
			Name:        filepath.Base(path),
			ContentType: contentType(path),
			Reader:      bytes.NewReader(data),
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send attachment %s: %w", filepath.Base(path), err)
	}
	return nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// splitMessage cuts text into pieces of at most limit bytes, preferring line
// breaks. Empty text yields one empty chunk so attachments still go out.
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
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// DirectMessage sends to one user's private channel. It satisfies the
// month-end notifier.
type DirectMessage struct {
	bot    *Bot
	userID string
}

func (b *Bot) DirectMessage(userID string) *DirectMessage {
	return &DirectMessage{bot: b, userID: userID}
}

func (d *DirectMessage) Notify(ctx context.Context, text, path string) error {
	ch, err := d.bot.api.UserChannelCreate(d.userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open direct channel: %w", err)
	}
	r := bot.Reply{ChannelID: ch.ID, Text: text}
	if path != "" {
		r.Attachment = &bot.Attachment{Path: path}
	}
	return d.bot.send(ctx, r)
}
