// Package aggregate turns ledger records into the totals shown in replies
// and reports. Everything here is a pure function.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"budgetbot/internal/core"
)

// Alert is the budget threshold state of one category.
type Alert int

const (
	AlertNone Alert = iota
	AlertNear
	AlertOver
)

func (a Alert) String() string {
	switch a {
	case AlertNear:
		return "near"
	case AlertOver:
		return "over"
	default:
		return "none"
	}
}

// NearRatio is the share of a limit from which AlertNear is raised.
var NearRatio = decimal.RequireFromString("0.9")

// SumByCategory groups records by category and sums their amounts, sorted by name.
func SumByCategory(txs []core.Transaction) []core.CategoryAmount {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Total sums every amount.
func Total(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// CategoryTotal sums the records of one category.
func CategoryTotal(txs []core.Transaction, category string) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Category == category {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// PlanVsActual compares each category found in actuals or plan. A category
// missing on one side counts as zero there.
func PlanVsActual(actuals []core.CategoryAmount, plan core.Plan) []core.Variance {
	spent := make(map[string]decimal.Decimal, len(actuals))
	for _, a := range actuals {
		spent[a.Name] = spent[a.Name].Add(a.Amount)
	}
	names := make(map[string]struct{}, len(spent)+len(plan))
	for name := range spent {
		names[name] = struct{}{}
	}
	for name := range plan {
		names[name] = struct{}{}
	}

	out := make([]core.Variance, 0, len(names))
	for name := range names {
		planned := plan[name]
		actual := spent[name]
		variance := planned.Sub(actual)
		out = append(out, core.Variance{
			Category:  name,
			Planned:   planned,
			Actual:    actual,
			Variance:  variance,
			OverLimit: variance.IsNegative(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// CheckLimit classifies total against limit. A zero or negative limit never alerts.
func CheckLimit(total, limit decimal.Decimal) Alert {
	if !limit.IsPositive() {
		return AlertNone
	}
	if total.GreaterThan(limit) {
		return AlertOver
	}
	if total.GreaterThanOrEqual(limit.Mul(NearRatio)) {
		return AlertNear
	}
	return AlertNone
}

// CheckCategory looks the category up in the plan and classifies total.
// Categories without a limit never alert.
func CheckCategory(plan core.Plan, category string, total decimal.Decimal) (Alert, decimal.Decimal) {
	limit, ok := plan.Limit(category)
	if !ok {
		return AlertNone, decimal.Zero
	}
	return CheckLimit(total, limit), limit
}

// Overview computes income and expense totals and their difference.
func Overview(expenses, income []core.Transaction) core.Overview {
	in := Total(income)
	out := Total(expenses)
	return core.Overview{
		TotalIncome:  in,
		TotalExpense: out,
		Balance:      in.Sub(out),
	}
}

// NonZero drops entries with a zero amount.
func NonZero(sums []core.CategoryAmount) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(sums))
	for _, s := range sums {
		if !s.Amount.IsZero() {
			out = append(out, s)
		}
	}
	return out
}
