package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetbot/internal/core"
)

// EventKind says what happened to a ledger record.
type EventKind string

const (
	EventRecorded EventKind = "recorded"
	EventEdited   EventKind = "edited"
)

// LedgerEvent describes one appended or replaced ledger record. Position is
// the 0-based index of the record in its ledger.
type LedgerEvent struct {
	ID        string          `json:"id"`
	Kind      EventKind       `json:"kind"`
	Flow      core.Flow       `json:"flow"`
	Position  int             `json:"position"`
	Timestamp string          `json:"timestamp"`
	Item      string          `json:"item"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	EmittedAt time.Time       `json:"emitted_at"`
}

func NewLedgerEvent(kind EventKind, flow core.Flow, position int, tx core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Flow:      flow,
		Position:  position,
		Timestamp: tx.Date.Format(core.TimeLayout),
		Item:      tx.Item,
		Amount:    tx.Amount,
		Category:  tx.Category,
		EmittedAt: time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and validates an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *LedgerEvent) Validate() error {
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("invalid event id %q: %w", e.ID, err)
	}
	switch e.Kind {
	case EventRecorded, EventEdited:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if err := e.Flow.Validate(); err != nil {
		return err
	}
	if e.Position < 0 {
		return fmt.Errorf("negative position %d", e.Position)
	}
	return nil
}

// Transaction rebuilds the record carried by the event.
func (e *LedgerEvent) Transaction() (core.Transaction, error) {
	date, err := time.ParseInLocation(core.TimeLayout, e.Timestamp, time.Local)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return core.Transaction{
		Date:     date,
		Item:     e.Item,
		Amount:   e.Amount,
		Category: e.Category,
	}, nil
}
