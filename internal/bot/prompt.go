package bot

import (
	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
)

type promptKind int

const (
	pickCategory promptKind = iota
	askSource
	chooseEdit
)

// prompt is what a conversation waits for. tx holds the pending record for
// the log and income prompts.
type prompt struct {
	kind    promptKind
	flow    core.Flow
	tx      core.Transaction
	options []string
	entries []ledger.Entry
}

func (p prompt) timeoutText() string {
	switch p.kind {
	case pickCategory:
		return "Timed out waiting for a category. Expense not logged."
	case askSource:
		return "Timed out waiting for a source. Income not logged."
	default:
		return "Timed out waiting for your edit. Nothing was changed."
	}
}

func (p prompt) cancelText() string {
	switch p.kind {
	case pickCategory:
		return "Category prompt cancelled. Expense not logged."
	case askSource:
		return "Source prompt cancelled. Income not logged."
	default:
		return "Edit cancelled. Nothing was changed."
	}
}
