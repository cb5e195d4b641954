package amqp

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetbot/internal/core"
)

func sampleTx() core.Transaction {
	return core.Transaction{
		Date:     time.Date(2024, 2, 29, 23, 59, 1, 0, time.Local),
		Item:     "Concert",
		Amount:   decimal.RequireFromString("42.10"),
		Category: "Fun",
	}
}

func TestNewLedgerEvent(t *testing.T) {
	ev := NewLedgerEvent(EventRecorded, core.Expense, 7, sampleTx())
	if _, err := uuid.Parse(ev.ID); err != nil {
		t.Fatalf("invalid id %q: %v", ev.ID, err)
	}
	if ev.Timestamp != "2024-02-29 23:59:01" {
		t.Errorf("timestamp = %q", ev.Timestamp)
	}
	if time.Since(ev.EmittedAt) > time.Second {
		t.Error("EmittedAt should be recent")
	}
	if other := NewLedgerEvent(EventRecorded, core.Expense, 7, sampleTx()); other.ID == ev.ID {
		t.Error("event ids should be unique")
	}
}

func TestLedgerEventFromJSON(t *testing.T) {
	ev := NewLedgerEvent(EventEdited, core.Income, 2, sampleTx())
	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON: %v", err)
	}
	tx, err := got.Transaction()
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	want := sampleTx()
	if !tx.Date.Equal(want.Date) || !tx.Amount.Equal(want.Amount) || tx.Item != want.Item || tx.Category != want.Category {
		t.Errorf("transaction = %+v, want %+v", tx, want)
	}
	if got.Kind != EventEdited || got.Flow != core.Income || got.Position != 2 {
		t.Errorf("event = %+v", got)
	}
}

func TestLedgerEventFromJSON_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad json":     `{"id": 1`,
		"bad id":       `{"id":"abc","kind":"recorded","flow":"expense"}`,
		"bad flow":     `{"id":"2b1d6c1e-6f0a-4d55-9f4e-1c1f0b9b7c11","kind":"recorded","flow":"transfer"}`,
		"neg position": `{"id":"2b1d6c1e-6f0a-4d55-9f4e-1c1f0b9b7c11","kind":"recorded","flow":"expense","position":-1}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LedgerEventFromJSON([]byte(body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
