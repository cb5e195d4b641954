package google

import (
	"fmt"
	"strings"
	"time"

	"budgetbot/internal/core"
)

// Header is the first row of every mirrored tab.
var Header = []any{"Date", "Item", "Amount", "Category"}

func rowValues(tx core.Transaction) []any {
	return []any{
		tx.Date.Format(core.TimeLayout),
		tx.Item,
		core.FormatAmount(tx.Amount),
		tx.Category,
	}
}

// rowNumber maps a ledger position to its 1-based sheet row.
func rowNumber(position int) int {
	return position + 2
}

func rowRange(tab string, position int) string {
	n := rowNumber(position)
	return fmt.Sprintf("%s!A%d:D%d", quoteTab(tab), n, n)
}

func columnsRange(tab string) string {
	return fmt.Sprintf("%s!A:D", quoteTab(tab))
}

// quoteTab wraps tab names containing spaces or punctuation in single quotes, as A1 notation requires.
func quoteTab(tab string) string {
	if tab == "" || strings.IndexFunc(tab, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	}) < 0 {
		return tab
	}
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// parseRow reads a mirrored row back. Amounts may come back with a decimal comma.
func parseRow(row []any, loc *time.Location) (core.Transaction, error) {
	cols := toStrings(row)
	if len(cols) < 4 {
		return core.Transaction{}, fmt.Errorf("expected 4 columns, got %d", len(cols))
	}
	date, err := time.ParseInLocation(core.TimeLayout, cols[0], loc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", cols[0], err)
	}
	amount, err := core.ParseAmount(cols[2])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", cols[2], err)
	}
	return core.Transaction{Date: date, Item: cols[1], Amount: amount, Category: cols[3]}, nil
}
