// Package storage is the SQLite backend for both ledgers and the budget plan.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/log"
	"budgetbot/internal/plan"
)

type SQLiteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer; modernc serialises anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ledger returns the view of the transactions table for one flow.
func (r *SQLiteRepository) Ledger(flow core.Flow) *FlowLedger {
	return &FlowLedger{repo: r, flow: flow}
}

// Plan returns the budget_limits table as a plan store.
func (r *SQLiteRepository) Plan() *PlanStore {
	return &PlanStore{repo: r}
}

// FlowLedger implements ledger.Ledger over the rows of one flow. Positions
// follow insertion order (the row id). A flow without rows counts as absent.
type FlowLedger struct {
	repo *SQLiteRepository
	flow core.Flow
}

var _ ledger.Ledger = (*FlowLedger)(nil)

func (l *FlowLedger) Append(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()

	res, err := l.repo.db.ExecContext(ctx,
		`INSERT INTO transactions (flow, occurred_at, item, amount, category) VALUES (?, ?, ?, ?, ?)`,
		string(l.flow), tx.Date.Format(core.TimeLayout), tx.Item, tx.Amount.String(), tx.Category)
	if err != nil {
		return fmt.Errorf("insert %s: %w", l.flow, err)
	}
	id, _ := res.LastInsertId()
	slog.DebugContext(ctx, "Transaction saved to SQLite",
		log.FieldFlow, l.flow,
		"id", id,
		log.FieldCategory, tx.Category,
		log.FieldAmount, tx.Amount.String())
	return nil
}

func (l *FlowLedger) All(ctx context.Context) ([]core.Transaction, error) {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()

	rows, err := l.repo.db.QueryContext(ctx,
		`SELECT occurred_at, item, amount, category FROM transactions WHERE flow = ? ORDER BY id`,
		string(l.flow))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", l.flow, err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var occurred, item, amount, category string
		if err := rows.Scan(&occurred, &item, &amount, &category); err != nil {
			return nil, fmt.Errorf("scan %s: %w", l.flow, err)
		}
		date, err := time.ParseInLocation(core.TimeLayout, occurred, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurred, err)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		txs = append(txs, core.Transaction{Date: date, Item: item, Amount: amt, Category: category})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", l.flow, err)
	}
	if len(txs) == 0 {
		return nil, ledger.ErrNotFound
	}
	return txs, nil
}

func (l *FlowLedger) Replace(ctx context.Context, position int, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if position < 0 {
		return fmt.Errorf("%w: %d", ledger.ErrPosition, position)
	}
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()

	res, err := l.repo.db.ExecContext(ctx, `
		UPDATE transactions
		SET occurred_at = ?, item = ?, amount = ?, category = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = (SELECT id FROM transactions WHERE flow = ? ORDER BY id LIMIT 1 OFFSET ?)`,
		tx.Date.Format(core.TimeLayout), tx.Item, tx.Amount.String(), tx.Category,
		string(l.flow), position)
	if err != nil {
		return fmt.Errorf("update %s: %w", l.flow, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ledger.ErrPosition, position)
	}
	slog.DebugContext(ctx, "Transaction updated in SQLite",
		log.FieldFlow, l.flow,
		log.FieldPosition, position)
	return nil
}

// PlanStore implements plan.Store over the budget_limits table.
type PlanStore struct {
	repo *SQLiteRepository
}

var _ plan.Store = (*PlanStore)(nil)

func (s *PlanStore) Load(ctx context.Context) (core.Plan, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	rows, err := s.repo.db.QueryContext(ctx, `SELECT category, amount FROM budget_limits`)
	if err != nil {
		return nil, fmt.Errorf("query budget limits: %w", err)
	}
	defer rows.Close()

	p := core.Plan{}
	for rows.Next() {
		var category, amount string
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("scan budget limit: %w", err)
		}
		v, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse limit %q for %s: %w", amount, category, err)
		}
		p[category] = v
	}
	return p, rows.Err()
}

// Save replaces the whole table with p inside one transaction.
func (s *PlanStore) Save(ctx context.Context, p core.Plan) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	dbtx, err := s.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM budget_limits`); err != nil {
		return fmt.Errorf("clear budget limits: %w", err)
	}
	for _, category := range p.Categories() {
		if _, err := dbtx.ExecContext(ctx,
			`INSERT INTO budget_limits (category, amount) VALUES (?, ?)`,
			category, p[category].String()); err != nil {
			return fmt.Errorf("insert limit %s: %w", category, err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.DebugContext(ctx, "Budget plan saved to SQLite", "categories", len(p))
	return nil
}
