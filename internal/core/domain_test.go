package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	good := Transaction{Date: now, Item: "Lunch", Amount: decimal.NewFromInt(15), Category: "Food"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zeroAmount := good
	zeroAmount.Amount = decimal.Zero
	if err := zeroAmount.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Amount: decimal.NewFromInt(1), Category: "c"}, ErrZeroDate},
		{Transaction{Date: now, Amount: decimal.NewFromInt(-1), Category: "c"}, ErrInvalidAmount},
		{Transaction{Date: now, Amount: decimal.NewFromInt(1), Category: "  "}, ErrEmptyCategory},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestTransactionInMonth(t *testing.T) {
	tx := Transaction{Date: time.Date(2025, 3, 31, 23, 59, 59, 0, time.Local)}
	if !tx.InMonth(time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatal("expected march transaction to be in march")
	}
	if tx.InMonth(time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatal("march transaction must not be in april")
	}
	if tx.InMonth(time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatal("march 2025 transaction must not be in march 2024")
	}
}

func TestParseFlow(t *testing.T) {
	for in, want := range map[string]Flow{"expense": Expense, "Expenses": Expense, "income": Income} {
		got, err := ParseFlow(in)
		if err != nil || got != want {
			t.Fatalf("ParseFlow(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFlow("savings"); !errors.Is(err, ErrInvalidFlow) {
		t.Fatalf("expected ErrInvalidFlow, got %v", err)
	}
}

func TestPlanCategoriesSortedAndClone(t *testing.T) {
	p := Plan{"Rent": decimal.NewFromInt(900), "Food": decimal.NewFromInt(300)}
	cats := p.Categories()
	if len(cats) != 2 || cats[0] != "Food" || cats[1] != "Rent" {
		t.Fatalf("unexpected categories: %v", cats)
	}
	c := p.Clone()
	c["Food"] = decimal.NewFromInt(1)
	if !p["Food"].Equal(decimal.NewFromInt(300)) {
		t.Fatal("clone must not alias the original plan")
	}
}
