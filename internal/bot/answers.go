package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/log"
)

func (h *Handler) answer(ctx context.Context, msg Message, p prompt, content string) []Reply {
	switch p.kind {
	case pickCategory:
		return h.answerCategory(ctx, msg, p, content)
	case askSource:
		return h.answerSource(ctx, msg, p, content)
	default:
		return h.answerEdit(ctx, msg, p, content)
	}
}

// answerCategory accepts a number from the offered list or a new name.
func (h *Handler) answerCategory(ctx context.Context, msg Message, p prompt, content string) []Reply {
	if content == "" {
		return []Reply{h.reply(msg, "No category given. Expense not logged.")}
	}
	category := content
	if n, err := strconv.Atoi(content); err == nil {
		if n < 1 || n > len(p.options) {
			return []Reply{h.reply(msg, fmt.Sprintf("Invalid selection %d. Expense not logged.", n))}
		}
		category = p.options[n-1]
	}
	tx := p.tx
	tx.Category = category
	return h.record(ctx, msg, core.Expense, tx)
}

func (h *Handler) answerSource(ctx context.Context, msg Message, p prompt, content string) []Reply {
	if content == "" {
		return []Reply{h.reply(msg, "No source given. Income not logged.")}
	}
	tx := p.tx
	tx.Category = content
	return h.record(ctx, msg, core.Income, tx)
}

// answerEdit expects: <n> <amount> <category> [description...]. The
// description is kept when omitted.
func (h *Handler) answerEdit(ctx context.Context, msg Message, p prompt, content string) []Reply {
	fields := strings.Fields(content)
	if len(fields) < 3 {
		return []Reply{h.reply(msg, "Invalid format. Expected: <number> <amount> <category> [description]. Edit cancelled.")}
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return []Reply{h.reply(msg, fmt.Sprintf("%q is not a record number. Edit cancelled.", fields[0]))}
	}
	entry, ok := ledger.Pick(p.entries, n)
	if !ok {
		return []Reply{h.reply(msg, fmt.Sprintf("Invalid selection %d: choose between 1 and %d. Edit cancelled.", n, len(p.entries)))}
	}
	amount, err := core.ParseAmount(fields[1])
	if err != nil {
		return []Reply{h.reply(msg, invalidAmountText(fields[1])+" Edit cancelled.")}
	}

	tx := entry.Transaction
	tx.Amount = amount
	tx.Category = fields[2]
	if len(fields) > 3 {
		tx.Item = strings.Join(fields[3:], " ")
	}
	if err := h.ledger.Edit(ctx, p.flow, entry.Position, tx); err != nil {
		return h.fail(msg, log.OpReplace, err)
	}
	return []Reply{h.reply(msg, fmt.Sprintf("Updated %s record %d: %s", p.flow, n, describe(tx)))}
}
