package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense Flow = "expense"
	Income  Flow = "income"
)

// TimeLayout is how ledgers store a transaction timestamp (second precision).
const TimeLayout = "2006-01-02 15:04:05"

type (
	// Flow is the direction of money for a ledger.
	Flow string

	Transaction struct {
		Date     time.Time
		Item     string
		Amount   decimal.Decimal
		Category string // category for expenses, source for income
	}

	// Plan maps a category to its monthly limit.
	Plan map[string]decimal.Decimal
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidFlow   = errors.New("invalid flow")
	ErrZeroDate      = errors.New("date cannot be zero")
)

// ParseFlow accepts the singular and plural spelling of a flow.
func ParseFlow(s string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "expenses":
		return Expense, nil
	case "income", "incomes":
		return Income, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFlow, s)
	}
}

func (f Flow) Validate() error {
	switch f {
	case Expense, Income:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFlow, string(f))
	}
}

// Label returns the word used for the category column of the flow.
func (f Flow) Label() string {
	if f == Income {
		return "Source"
	}
	return "Category"
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Item) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// InMonth reports whether the transaction falls in the calendar month of ref.
func (t Transaction) InMonth(ref time.Time) bool {
	return t.Date.Year() == ref.Year() && t.Date.Month() == ref.Month()
}

// Clone returns an independent copy of the plan.
func (p Plan) Clone() Plan {
	out := make(Plan, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Categories returns the plan keys in lexical order.
func (p Plan) Categories() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Limit returns the limit for category and whether one is set.
func (p Plan) Limit(category string) (decimal.Decimal, bool) {
	v, ok := p[category]
	return v, ok
}
