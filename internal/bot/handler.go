// Package bot turns chat messages into ledger operations and replies. It
// knows nothing about the chat platform.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/log"
	"budgetbot/internal/services"
	"budgetbot/internal/session"
)

// Message is an incoming chat message.
type Message struct {
	ChannelID string
	AuthorID  string
	Content   string
}

// Attachment is a file to upload with a reply. Remove asks the sender to
// delete the file once it is delivered.
type Attachment struct {
	Path   string
	Remove bool
}

type Reply struct {
	ChannelID  string
	Text       string
	Attachment *Attachment
}

// Ledger is what the handler needs from the ledger service.
type Ledger interface {
	Record(ctx context.Context, flow core.Flow, tx core.Transaction) (services.Receipt, error)
	Recent(ctx context.Context, flow core.Flow, n int) ([]ledger.Entry, error)
	Edit(ctx context.Context, flow core.Flow, position int, tx core.Transaction) error
	SetLimit(ctx context.Context, category string, limit decimal.Decimal) (core.Plan, error)
	Plan(ctx context.Context) (core.Plan, error)
	PlanStatus(ctx context.Context, now time.Time) ([]core.Variance, error)
	Categories(ctx context.Context, flow core.Flow) ([]string, error)
}

// Reports renders report files.
type Reports interface {
	Workbook(ctx context.Context, now time.Time) (string, error)
	Chart(ctx context.Context, now time.Time) (string, error)
}

type Config struct {
	Prefix        string
	PromptTimeout time.Duration
	EditCount     int
}

type Option func(*Handler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// Handler dispatches one message at a time.
type Handler struct {
	mu      sync.Mutex
	cfg     Config
	ledger  Ledger
	reports Reports
	prompts *session.Registry[prompt]
	now     func() time.Time
	logger  *log.Logger
}

func NewHandler(cfg Config, ledger Ledger, reports Reports, logger *log.Logger, opts ...Option) *Handler {
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	if cfg.PromptTimeout <= 0 {
		cfg.PromptTimeout = 60 * time.Second
	}
	if cfg.EditCount <= 0 {
		cfg.EditCount = 5
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	h := &Handler{
		cfg:     cfg,
		ledger:  ledger,
		reports: reports,
		prompts: session.NewRegistry[prompt](cfg.PromptTimeout, 0),
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentBot),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes msg. A message from a user with a pending prompt answers
// it, unless the message is itself a command, which cancels the prompt.
func (h *Handler) Handle(ctx context.Context, msg Message) []Reply {
	h.mu.Lock()
	defer h.mu.Unlock()

	content := strings.TrimSpace(msg.Content)
	isCommand := strings.HasPrefix(content, h.cfg.Prefix)
	key := session.Key{ChannelID: msg.ChannelID, UserID: msg.AuthorID}
	now := h.now()

	var replies []Reply
	if h.prompts.Pending(key) {
		p, outcome := h.prompts.Take(key, now)
		switch {
		case outcome == session.TimedOut:
			replies = append(replies, h.reply(msg, p.timeoutText()))
		case isCommand:
			replies = append(replies, h.reply(msg, p.cancelText()))
		default:
			return append(replies, h.answer(ctx, msg, p, content)...)
		}
	}

	if !isCommand {
		return replies
	}
	return append(replies, h.command(ctx, msg, strings.TrimPrefix(content, h.cfg.Prefix), now)...)
}

// Expire cancels every prompt whose deadline passed and returns the
// messages telling the users so. Nothing is stored for a cancelled prompt.
func (h *Handler) Expire(now time.Time) []Reply {
	h.mu.Lock()
	defer h.mu.Unlock()

	expired := h.prompts.Expire(now)
	replies := make([]Reply, 0, len(expired))
	for _, e := range expired {
		h.logger.Info("Prompt timed out",
			log.FieldChannelID, e.Key.ChannelID,
			log.FieldUserID, e.Key.UserID,
			log.FieldOperation, log.OpExpire)
		replies = append(replies, Reply{ChannelID: e.Key.ChannelID, Text: e.State.timeoutText()})
	}
	return replies
}

// Pending reports how many prompts are awaiting a reply.
func (h *Handler) Pending() int {
	return h.prompts.Len()
}

func (h *Handler) begin(msg Message, p prompt, now time.Time) {
	h.prompts.Begin(session.Key{ChannelID: msg.ChannelID, UserID: msg.AuthorID}, p, now)
	h.logger.Debug("Prompt started",
		log.FieldChannelID, msg.ChannelID,
		log.FieldUserID, msg.AuthorID,
		log.FieldOperation, log.OpPrompt)
}

func (h *Handler) reply(msg Message, text string) Reply {
	return Reply{ChannelID: msg.ChannelID, Text: text}
}

// fail logs an internal error and returns the generic reply.
func (h *Handler) fail(msg Message, op string, err error) []Reply {
	h.logger.Error("Command failed",
		log.FieldError, err,
		log.FieldOperation, op,
		log.FieldChannelID, msg.ChannelID,
		log.FieldUserID, msg.AuthorID)
	return []Reply{h.reply(msg, msgInternalError)}
}
