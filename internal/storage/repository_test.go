package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/plan"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "budgetbot.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func tx(day int, item, amount, category string) core.Transaction {
	return core.Transaction{
		Date:     time.Date(2024, 6, day, 8, 15, 0, 0, time.Local),
		Item:     item,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
	}
}

func TestFlowLedger_AppendAllReplace(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	expenses := repo.Ledger(core.Expense)
	income := repo.Ledger(core.Income)

	if _, err := expenses.All(ctx); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("empty flow: expected ErrNotFound, got %v", err)
	}

	for _, e := range []core.Transaction{
		tx(1, "Bread", "2.40", "Food"),
		tx(2, "Train", "12", "Transport"),
		tx(3, "Cheese", "7.15", "Food"),
	} {
		if err := expenses.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := income.Append(ctx, tx(1, "Salary", "2000", "Job")); err != nil {
		t.Fatalf("append income: %v", err)
	}

	got, err := expenses.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 3 || got[0].Item != "Bread" || got[2].Item != "Cheese" {
		t.Fatalf("unexpected expenses: %+v", got)
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("2.4")) {
		t.Errorf("amount round trip: %s", got[0].Amount)
	}
	if !got[1].Date.Equal(time.Date(2024, 6, 2, 8, 15, 0, 0, time.Local)) {
		t.Errorf("date round trip: %v", got[1].Date)
	}

	if err := expenses.Replace(ctx, 1, tx(2, "Taxi", "30", "Transport")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ = expenses.All(ctx)
	if got[0].Item != "Bread" || got[1].Item != "Taxi" || got[2].Item != "Cheese" {
		t.Fatalf("replace touched other rows: %+v", got)
	}

	inc, _ := income.All(ctx)
	if len(inc) != 1 || inc[0].Item != "Salary" {
		t.Fatalf("flows are not isolated: %+v", inc)
	}

	for _, pos := range []int{-1, 3} {
		if err := expenses.Replace(ctx, pos, tx(1, "x", "1", "y")); !errors.Is(err, ledger.ErrPosition) {
			t.Errorf("position %d: expected ErrPosition, got %v", pos, err)
		}
	}
}

func TestPlanStore(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	store := repo.Plan()

	p, err := store.Load(ctx)
	if err != nil || len(p) != 0 {
		t.Fatalf("empty plan: %v %v", p, err)
	}

	if _, err := plan.SetLimit(ctx, store, "Food", decimal.NewFromInt(300)); err != nil {
		t.Fatalf("set food: %v", err)
	}
	if _, err := plan.SetLimit(ctx, store, "Rent", decimal.NewFromInt(900)); err != nil {
		t.Fatalf("set rent: %v", err)
	}
	if _, err := plan.SetLimit(ctx, store, "Food", decimal.RequireFromString("350.5")); err != nil {
		t.Fatalf("overwrite food: %v", err)
	}

	p, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(p) != 2 || !p["Food"].Equal(decimal.RequireFromString("350.5")) || !p["Rent"].Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected plan: %v", p)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgetbot.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}
