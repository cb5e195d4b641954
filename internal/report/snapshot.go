// Package report renders the tabular workbook and the chart figure from a
// snapshot of both ledgers and the plan.
package report

import (
	"context"
	"fmt"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/plan"
)

// Snapshot is everything a renderer needs. HasExpenses and HasIncome tell an
// absent ledger apart from an empty one.
type Snapshot struct {
	Expenses    []core.Transaction
	Income      []core.Transaction
	HasExpenses bool
	HasIncome   bool
	Plan        core.Plan
	Now         time.Time
}

// Take reads both ledgers and the plan.
func Take(ctx context.Context, expenses, income ledger.Ledger, plans plan.Store, now time.Time) (Snapshot, error) {
	snap := Snapshot{Now: now}
	var err error
	if snap.Expenses, snap.HasExpenses, err = ledger.Load(ctx, expenses); err != nil {
		return Snapshot{}, fmt.Errorf("load expenses: %w", err)
	}
	if snap.Income, snap.HasIncome, err = ledger.Load(ctx, income); err != nil {
		return Snapshot{}, fmt.Errorf("load income: %w", err)
	}
	if snap.Plan, err = plans.Load(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load plan: %w", err)
	}
	return snap, nil
}

// Empty reports whether neither ledger exists.
func (s Snapshot) Empty() bool {
	return !s.HasExpenses && !s.HasIncome
}

// MonthExpenses returns the expenses of the snapshot's calendar month.
func (s Snapshot) MonthExpenses() []core.Transaction {
	return ledger.FilterMonth(s.Expenses, s.Now)
}

// MonthIncome returns the income of the snapshot's calendar month.
func (s Snapshot) MonthIncome() []core.Transaction {
	return ledger.FilterMonth(s.Income, s.Now)
}
