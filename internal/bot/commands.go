package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/log"
	"budgetbot/internal/services"
)

func (h *Handler) command(ctx context.Context, msg Message, line string, now time.Time) []Reply {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "log":
		return h.logExpense(ctx, msg, args, now)
	case "income":
		return h.logIncome(ctx, msg, args, now)
	case "setlimit":
		return h.setLimit(ctx, msg, args)
	case "plan":
		return h.showPlan(ctx, msg, now)
	case "chart":
		return h.chart(ctx, msg, now)
	case "report":
		return h.report(ctx, msg, now)
	case "edit":
		return h.startEdit(ctx, msg, args, now)
	case "help":
		return []Reply{h.reply(msg, helpText(h.cfg.Prefix))}
	default:
		return []Reply{h.reply(msg, fmt.Sprintf("Unknown command %s%s. Type %shelp for the list of commands.", h.cfg.Prefix, name, h.cfg.Prefix))}
	}
}

// logExpense handles: log <amount> [category] [description...]
func (h *Handler) logExpense(ctx context.Context, msg Message, args []string, now time.Time) []Reply {
	if len(args) == 0 {
		return []Reply{h.reply(msg, fmt.Sprintf("Usage: %slog <amount> [category] [description]", h.cfg.Prefix))}
	}
	amount, err := core.ParseAmount(args[0])
	if err != nil {
		return []Reply{h.reply(msg, invalidAmountText(args[0]))}
	}
	tx := core.Transaction{Date: now, Amount: amount, Item: strings.Join(tail(args, 2), " ")}

	if len(args) >= 2 {
		tx.Category = args[1]
		return h.record(ctx, msg, core.Expense, tx)
	}

	options, err := h.ledger.Categories(ctx, core.Expense)
	if err != nil {
		return h.fail(msg, log.OpRead, err)
	}
	h.begin(msg, prompt{kind: pickCategory, flow: core.Expense, tx: tx, options: options}, now)
	return []Reply{h.reply(msg, categoryPickerText(amount, options, h.cfg.PromptTimeout))}
}

// logIncome handles: income <amount> [source] [description...]
func (h *Handler) logIncome(ctx context.Context, msg Message, args []string, now time.Time) []Reply {
	if len(args) == 0 {
		return []Reply{h.reply(msg, fmt.Sprintf("Usage: %sincome <amount> [source] [description]", h.cfg.Prefix))}
	}
	amount, err := core.ParseAmount(args[0])
	if err != nil {
		return []Reply{h.reply(msg, invalidAmountText(args[0]))}
	}
	tx := core.Transaction{Date: now, Amount: amount, Item: strings.Join(tail(args, 2), " ")}

	if len(args) >= 2 {
		tx.Category = args[1]
		return h.record(ctx, msg, core.Income, tx)
	}

	h.begin(msg, prompt{kind: askSource, flow: core.Income, tx: tx}, now)
	return []Reply{h.reply(msg, fmt.Sprintf("What is the source of this income (%s)? You have %s to answer.",
		core.FormatAmount(amount), h.cfg.PromptTimeout))}
}

func (h *Handler) record(ctx context.Context, msg Message, flow core.Flow, tx core.Transaction) []Reply {
	receipt, err := h.ledger.Record(ctx, flow, tx)
	if errors.Is(err, core.ErrEmptyCategory) {
		return []Reply{h.reply(msg, fmt.Sprintf("A %s is required. Nothing was logged.", strings.ToLower(flow.Label())))}
	}
	if err != nil {
		return h.fail(msg, log.OpAppend, err)
	}
	return []Reply{h.reply(msg, receiptText(receipt))}
}

// setLimit handles: setlimit <category...> <amount>
func (h *Handler) setLimit(ctx context.Context, msg Message, args []string) []Reply {
	if len(args) < 2 {
		return []Reply{h.reply(msg, fmt.Sprintf("Usage: %ssetlimit <category> <amount>", h.cfg.Prefix))}
	}
	raw := args[len(args)-1]
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return []Reply{h.reply(msg, invalidAmountText(raw))}
	}
	category := strings.Join(args[:len(args)-1], " ")
	if _, err := h.ledger.SetLimit(ctx, category, amount); err != nil {
		return h.fail(msg, log.OpSetLimit, err)
	}
	return []Reply{h.reply(msg, fmt.Sprintf("Monthly limit for %s set to %s.", category, core.FormatAmount(amount)))}
}

func (h *Handler) showPlan(ctx context.Context, msg Message, now time.Time) []Reply {
	p, err := h.ledger.Plan(ctx)
	if err != nil {
		return h.fail(msg, log.OpRead, err)
	}
	if len(p) == 0 {
		return []Reply{h.reply(msg, fmt.Sprintf("No budget plan set. Use %ssetlimit <category> <amount>.", h.cfg.Prefix))}
	}
	status, err := h.ledger.PlanStatus(ctx, now)
	if err != nil {
		return h.fail(msg, log.OpRead, err)
	}
	return []Reply{h.reply(msg, planText(p, status, now))}
}

func (h *Handler) chart(ctx context.Context, msg Message, now time.Time) []Reply {
	path, err := h.reports.Chart(ctx, now)
	if err != nil {
		return h.fail(msg, log.OpRender, err)
	}
	return []Reply{{
		ChannelID:  msg.ChannelID,
		Text:       fmt.Sprintf("Budget chart for %s.", now.Format("January 2006")),
		Attachment: &Attachment{Path: path, Remove: true},
	}}
}

func (h *Handler) report(ctx context.Context, msg Message, now time.Time) []Reply {
	path, err := h.reports.Workbook(ctx, now)
	if errors.Is(err, services.ErrNoData) {
		return []Reply{h.reply(msg, msgNoData)}
	}
	if err != nil {
		return h.fail(msg, log.OpRender, err)
	}
	return []Reply{{
		ChannelID:  msg.ChannelID,
		Text:       "Here is your detailed budget report.",
		Attachment: &Attachment{Path: path, Remove: true},
	}}
}

// startEdit handles: edit [expense|income]
func (h *Handler) startEdit(ctx context.Context, msg Message, args []string, now time.Time) []Reply {
	flow := core.Expense
	if len(args) > 0 {
		f, err := core.ParseFlow(args[0])
		if err != nil {
			return []Reply{h.reply(msg, fmt.Sprintf("Usage: %sedit [expense|income]", h.cfg.Prefix))}
		}
		flow = f
	}

	entries, err := h.ledger.Recent(ctx, flow, h.cfg.EditCount)
	if err != nil {
		return h.fail(msg, log.OpRead, err)
	}
	if len(entries) == 0 {
		return []Reply{h.reply(msg, fmt.Sprintf("No %s records to edit.", flow))}
	}

	h.begin(msg, prompt{kind: chooseEdit, flow: flow, entries: entries}, now)
	return []Reply{h.reply(msg, editListText(flow, entries, h.cfg.PromptTimeout))}
}

func tail(args []string, from int) []string {
	if len(args) <= from {
		return nil
	}
	return args[from:]
}
