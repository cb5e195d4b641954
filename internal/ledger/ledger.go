// Package ledger defines the transaction store port and the read helpers
// shared by every backend.
package ledger

import (
	"context"
	"errors"
	"time"

	"budgetbot/internal/core"
)

var (
	// ErrNotFound is returned by All when the ledger has never been written.
	ErrNotFound = errors.New("ledger not found")
	// ErrBadHeader is returned when a ledger file does not start with the expected header.
	ErrBadHeader = errors.New("unexpected ledger header")
	// ErrPosition is returned by Replace for a position outside the ledger.
	ErrPosition = errors.New("ledger position out of range")
)

// Ledger is the append-ordered store of transactions for one flow.
type Ledger interface {
	// Append adds tx at the end, creating the store if needed.
	Append(ctx context.Context, tx core.Transaction) error
	// All returns every record in append order, or ErrNotFound if the store is absent.
	All(ctx context.Context) ([]core.Transaction, error)
	// Replace overwrites the record at position (0-based) leaving the others untouched.
	Replace(ctx context.Context, position int, tx core.Transaction) error
}

// Entry is one record of a recent list. Number is what the user sees (1-based),
// Position is where the record lives in the ledger.
type Entry struct {
	Number      int
	Position    int
	Transaction core.Transaction
}

// Load returns all records and whether the ledger exists.
func Load(ctx context.Context, l Ledger) ([]core.Transaction, bool, error) {
	txs, err := l.All(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return txs, true, nil
}

// CurrentMonth returns the records whose timestamp falls in the year and month of now.
// An absent or empty ledger yields an empty result.
func CurrentMonth(ctx context.Context, l Ledger, now time.Time) ([]core.Transaction, error) {
	txs, _, err := Load(ctx, l)
	if err != nil {
		return nil, err
	}
	return FilterMonth(txs, now), nil
}

// FilterMonth keeps the transactions in the calendar month of ref.
func FilterMonth(txs []core.Transaction, ref time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.InMonth(ref) {
			out = append(out, tx)
		}
	}
	return out
}

// Recent returns the last n records numbered from 1, oldest first.
func Recent(ctx context.Context, l Ledger, n int) ([]Entry, error) {
	txs, _, err := Load(ctx, l)
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(txs) == 0 {
		return nil, nil
	}
	start := len(txs) - n
	if start < 0 {
		start = 0
	}
	entries := make([]Entry, 0, len(txs)-start)
	for i := start; i < len(txs); i++ {
		entries = append(entries, Entry{
			Number:      len(entries) + 1,
			Position:    i,
			Transaction: txs[i],
		})
	}
	return entries, nil
}

// Pick returns the entry shown with the given number.
func Pick(entries []Entry, number int) (Entry, bool) {
	if number < 1 || number > len(entries) {
		return Entry{}, false
	}
	return entries[number-1], true
}
