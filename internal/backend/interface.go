package backend

import (
	"context"
	"fmt"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/plan"
)

// Stores bundles the two ledgers and the plan for one backend.
type Stores struct {
	Expenses ledger.Ledger
	Income   ledger.Ledger
	Plan     plan.Store
}

// Ledger returns the store for flow.
func (s Stores) Ledger(flow core.Flow) (ledger.Ledger, error) {
	switch flow {
	case core.Expense:
		return s.Expenses, nil
	case core.Income:
		return s.Income, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFlow, string(flow))
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the stores and an optional cleanup function.
type BackendResult struct {
	Stores  Stores
	Cleanup CleanupFunc
}

// Close runs Cleanup if one is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// CSV specific
	ExpenseFile string
	IncomeFile  string
	PlanFile    string

	// SQLite specific
	SQLiteDBPath string
}

// BackendType names a storage backend.
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
