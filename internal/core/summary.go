package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Variance compares the planned limit of a category with what was spent.
type Variance struct {
	Category  string
	Planned   decimal.Decimal
	Actual    decimal.Decimal
	Variance  decimal.Decimal // Planned - Actual
	OverLimit bool
}

// Overview is the income/expense balance over a set of transactions.
type Overview struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
}
