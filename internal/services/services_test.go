package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetbot/internal/aggregate"
	"budgetbot/internal/amqp"
	"budgetbot/internal/backend"
	"budgetbot/internal/core"
	"budgetbot/internal/ledger/memory"
	"budgetbot/internal/log"
	"budgetbot/internal/plan"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev *amqp.LedgerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Output: &bytes.Buffer{}})
}

func memStores() backend.Stores {
	return backend.Stores{Expenses: memory.New(), Income: memory.New(), Plan: plan.NewMemoryStore()}
}

var today = time.Date(2024, 11, 14, 19, 5, 0, 0, time.Local)

func expense(amount, category, item string) core.Transaction {
	return core.Transaction{Date: today, Item: item, Amount: decimal.RequireFromString(amount), Category: category}
}

func TestLedgerService_RecordThresholds(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewLedgerService(memStores(), pub, quietLogger())

	if _, err := svc.SetLimit(ctx, "Food", decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("set limit: %v", err)
	}

	steps := []struct {
		amount string
		total  string
		alert  aggregate.Alert
	}{
		{"150", "150", aggregate.AlertNone},
		{"800", "950", aggregate.AlertNear},
		{"100", "1050", aggregate.AlertOver},
	}
	for i, step := range steps {
		r, err := svc.Record(ctx, core.Expense, expense(step.amount, "Food", "Lunch"))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !r.MonthTotal.Equal(decimal.RequireFromString(step.total)) || r.Alert != step.alert {
			t.Errorf("step %d: total=%s alert=%v, want %s %v", i, r.MonthTotal, r.Alert, step.total, step.alert)
		}
		if r.Position != i {
			t.Errorf("step %d: position=%d", i, r.Position)
		}
	}

	if len(pub.events) != 3 || pub.events[2].Kind != amqp.EventRecorded || pub.events[2].Position != 2 {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestLedgerService_RecordIncludesAmountOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memStores(), nil, quietLogger())

	lastMonth := expense("70", "Food", "old")
	lastMonth.Date = today.AddDate(0, -1, 0)
	if _, err := svc.Record(ctx, core.Expense, lastMonth); err != nil {
		t.Fatal(err)
	}
	r, err := svc.Record(ctx, core.Expense, expense("150", "Food", "Lunch"))
	if err != nil {
		t.Fatal(err)
	}
	if !r.MonthTotal.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("month total = %s, want 150", r.MonthTotal)
	}
	if r.Alert != aggregate.AlertNone {
		t.Errorf("alert without limit = %v", r.Alert)
	}
}

func TestLedgerService_RecordRejectsInvalid(t *testing.T) {
	stores := memStores()
	svc := NewLedgerService(stores, nil, quietLogger())
	_, err := svc.Record(context.Background(), core.Expense, expense("5", "  ", "x"))
	if !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if stores.Expenses.(*memory.Store).Appends() != 0 {
		t.Fatal("invalid transaction was stored")
	}
	if _, err := svc.Record(context.Background(), "transfer", expense("5", "x", "y")); !errors.Is(err, core.ErrInvalidFlow) {
		t.Fatalf("expected ErrInvalidFlow, got %v", err)
	}
}

func TestLedgerService_PublishFailureDoesNotFail(t *testing.T) {
	svc := NewLedgerService(memStores(), &fakePublisher{err: amqp.ErrCircuitOpen}, quietLogger())
	if _, err := svc.Record(context.Background(), core.Income, expense("2000", "Job", "Salary")); err != nil {
		t.Fatalf("record should succeed when publishing fails: %v", err)
	}
}

func TestLedgerService_RecentAndEdit(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewLedgerService(memStores(), pub, quietLogger())
	for i, item := range []string{"a", "b", "c", "d", "e", "f"} {
		if _, err := svc.Record(ctx, core.Income, expense("10", "Job", item)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := svc.Recent(ctx, core.Income, 5)
	if err != nil || len(entries) != 5 {
		t.Fatalf("recent: %v %v", entries, err)
	}
	// entry 2 of the last five is "c", position 2
	pick := entries[1]
	if pick.Transaction.Item != "c" || pick.Position != 2 {
		t.Fatalf("unexpected entry: %+v", pick)
	}

	edited := pick.Transaction
	edited.Amount = decimal.NewFromInt(99)
	edited.Category = "Bonus"
	if err := svc.Edit(ctx, core.Income, pick.Position, edited); err != nil {
		t.Fatalf("edit: %v", err)
	}

	after, _ := svc.Recent(ctx, core.Income, 6)
	for i, e := range after {
		if i == 2 {
			if e.Transaction.Category != "Bonus" || !e.Transaction.Amount.Equal(decimal.NewFromInt(99)) {
				t.Errorf("edited entry = %+v", e.Transaction)
			}
			continue
		}
		if e.Transaction.Category != "Job" {
			t.Errorf("entry %d changed: %+v", i, e.Transaction)
		}
	}
	last := pub.events[len(pub.events)-1]
	if last.Kind != amqp.EventEdited || last.Position != 2 || last.Flow != core.Income {
		t.Errorf("unexpected edit event: %+v", last)
	}
}

func TestLedgerService_Categories(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memStores(), nil, quietLogger())
	if _, err := svc.SetLimit(ctx, "Rent", decimal.NewFromInt(900)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Record(ctx, core.Expense, expense("5", "Food", "x")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Record(ctx, core.Expense, expense("5", "Rent", "y")); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Categories(ctx, core.Expense)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "Food" || got[1] != "Rent" {
		t.Fatalf("categories = %v", got)
	}
	income, _ := svc.Categories(ctx, core.Income)
	if len(income) != 0 {
		t.Fatalf("income categories = %v", income)
	}
}

func TestLedgerService_PlanStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memStores(), nil, quietLogger())
	svc.SetLimit(ctx, "Food", decimal.NewFromInt(1000))
	svc.Record(ctx, core.Expense, expense("1200", "Food", "feast"))

	rows, err := svc.PlanStatus(ctx, today)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || !rows[0].Variance.Equal(decimal.NewFromInt(-200)) || !rows[0].OverLimit {
		t.Fatalf("unexpected status: %+v", rows)
	}
}

func TestReportService(t *testing.T) {
	ctx := context.Background()
	stores := memStores()
	dir := t.TempDir()
	reports := NewReportService(stores, dir, quietLogger())

	if _, err := reports.Workbook(ctx, today); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	chart, err := reports.Chart(ctx, today)
	if err != nil {
		t.Fatalf("chart without data: %v", err)
	}
	if _, err := os.Stat(chart); err != nil {
		t.Fatalf("chart not written: %v", err)
	}

	svc := NewLedgerService(stores, nil, quietLogger())
	if _, err := svc.Record(ctx, core.Expense, expense("12", "Food", "x")); err != nil {
		t.Fatal(err)
	}
	out, err := reports.All(ctx, today)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if filepath.Base(out.Workbook) != "Budget_Report_2024-11-14.xlsx" || filepath.Base(out.Chart) != "budget_chart.png" {
		t.Fatalf("unexpected artifacts: %+v", out)
	}
	if filepath.Dir(out.Workbook) != filepath.Dir(out.Chart) {
		t.Errorf("one request should share a directory: %+v", out)
	}
	if filepath.Dir(filepath.Dir(out.Chart)) != dir || filepath.Dir(out.Chart) == filepath.Dir(chart) {
		t.Errorf("each request needs its own directory under %s: %s, %s", dir, chart, out.Chart)
	}
}
