package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetbot/internal/aggregate"
	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/services"
)

const (
	msgInternalError = "Something went wrong, please try again later."
	msgNoData        = "No data found! Log some expenses first."
)

var hundred = decimal.NewFromInt(100)

func helpText(prefix string) string {
	lines := []string{
		"Commands:",
		prefix + "log <amount> [category] [description]  log an expense (asks for the category when omitted)",
		prefix + "income <amount> [source] [description]  log income (asks for the source when omitted)",
		prefix + "setlimit <category> <amount>  set a monthly limit",
		prefix + "plan  show the budget plan and this month's spending",
		prefix + "chart  chart of this month",
		prefix + "report  detailed spreadsheet report",
		prefix + "edit [expense|income]  edit one of the latest records",
		prefix + "help  this message",
	}
	return strings.Join(lines, "\n")
}

func invalidAmountText(raw string) string {
	return fmt.Sprintf("Invalid amount %q: use a number such as 12.50.", raw)
}

func describe(tx core.Transaction) string {
	s := fmt.Sprintf("%s for %s", core.FormatAmount(tx.Amount), tx.Category)
	if tx.Item != "" {
		s += fmt.Sprintf(" (%s)", tx.Item)
	}
	return s
}

func receiptText(r services.Receipt) string {
	text := fmt.Sprintf("Logged %s: %s", r.Flow, describe(r.Transaction))
	switch r.Alert {
	case aggregate.AlertNear:
		pct := r.MonthTotal.Div(r.Limit).Mul(hundred).Round(0)
		text += fmt.Sprintf("\nWarning: %s has used %s%% of its limit this month (%s of %s).",
			r.Transaction.Category, pct.String(), core.FormatAmount(r.MonthTotal), core.FormatAmount(r.Limit))
	case aggregate.AlertOver:
		text += fmt.Sprintf("\nOver budget: %s is at %s this month, above its limit of %s.",
			r.Transaction.Category, core.FormatAmount(r.MonthTotal), core.FormatAmount(r.Limit))
	}
	return text
}

func categoryPickerText(amount decimal.Decimal, options []string, timeout time.Duration) string {
	var b strings.Builder
	if len(options) == 0 {
		fmt.Fprintf(&b, "Type a category for %s.", core.FormatAmount(amount))
	} else {
		fmt.Fprintf(&b, "Choose a category for %s by number, or type a new one:", core.FormatAmount(amount))
		for i, name := range options {
			fmt.Fprintf(&b, "\n%d. %s", i+1, name)
		}
	}
	fmt.Fprintf(&b, "\nYou have %s to answer.", timeout)
	return b.String()
}

func planText(p core.Plan, status []core.Variance, now time.Time) string {
	spent := make(map[string]core.Variance, len(status))
	for _, v := range status {
		spent[v.Category] = v
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Budget plan for %s:", now.Format("January 2006"))
	for _, name := range p.Categories() {
		v := spent[name]
		fmt.Fprintf(&b, "\n%s: %s (spent %s, ", name, core.FormatAmount(p[name]), core.FormatAmount(v.Actual))
		if v.OverLimit {
			fmt.Fprintf(&b, "%s over)", core.FormatAmount(v.Variance.Neg()))
		} else {
			fmt.Fprintf(&b, "%s left)", core.FormatAmount(p[name].Sub(v.Actual)))
		}
	}
	return b.String()
}

func editListText(flow core.Flow, entries []ledger.Entry, timeout time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Last %d %s records:", len(entries), flow)
	for _, e := range entries {
		tx := e.Transaction
		fmt.Fprintf(&b, "\n%d. %s | %s | %s | %s",
			e.Number, tx.Date.Format(core.TimeLayout), tx.Item, core.FormatAmount(tx.Amount), tx.Category)
	}
	fmt.Fprintf(&b, "\nReply with: <number> <amount> <%s> [description]. You have %s.",
		strings.ToLower(flow.Label()), timeout)
	return b.String()
}
