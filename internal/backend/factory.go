package backend

import (
	"context"
	"fmt"
	"path/filepath"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger/csvfile"
	"budgetbot/internal/ledger/memory"
	"budgetbot/internal/log"
	"budgetbot/internal/plan"
	"budgetbot/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config), nil
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVBackend(config Config) *BackendResult {
	f.logger.Info("Initialized csv backend",
		"expense_file", config.ExpenseFile,
		"income_file", config.IncomeFile,
		"plan_file", config.PlanFile)

	return &BackendResult{
		Stores: Stores{
			Expenses: csvfile.New(config.ExpenseFile),
			Income:   csvfile.New(config.IncomeFile),
			Plan:     plan.NewFileStore(config.PlanFile),
		},
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", filepath.Clean(config.SQLiteDBPath))

	return &BackendResult{
		Stores: Stores{
			Expenses: repo.Ledger(core.Expense),
			Income:   repo.Ledger(core.Income),
			Plan:     repo.Plan(),
		},
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{
		Stores: Stores{
			Expenses: memory.New(),
			Income:   memory.New(),
			Plan:     plan.NewMemoryStore(),
		},
	}
}
