// Package memory is an in-process ledger used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	exists  bool
	items   []core.Transaction
	appends int
}

var _ ledger.Ledger = (*Store)(nil)

// New returns an absent ledger; All reports ledger.ErrNotFound until the first Append.
func New() *Store {
	return &Store{}
}

// NewWith returns a ledger that already holds txs.
func NewWith(txs ...core.Transaction) *Store {
	return &Store{exists: true, items: append([]core.Transaction(nil), txs...)}
}

func (s *Store) Append(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = true
	s.items = append(s.items, tx)
	s.appends++
	return nil
}

func (s *Store) All(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return nil, ledger.ErrNotFound
	}
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *Store) Replace(_ context.Context, position int, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists || position < 0 || position >= len(s.items) {
		return fmt.Errorf("%w: %d of %d", ledger.ErrPosition, position, len(s.items))
	}
	s.items[position] = tx
	return nil
}

// Appends reports how many records were added since construction.
func (s *Store) Appends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appends
}
