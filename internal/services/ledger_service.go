// Package services holds the operations shared by the chat bot and the CLI.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetbot/internal/aggregate"
	"budgetbot/internal/amqp"
	"budgetbot/internal/backend"
	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/log"
	"budgetbot/internal/plan"
)

// EventPublisher sends ledger events. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Receipt is the outcome of recording a transaction. For expenses it carries
// the month-to-date total of the category and its threshold state.
type Receipt struct {
	Flow        core.Flow
	Transaction core.Transaction
	Position    int
	MonthTotal  decimal.Decimal
	Limit       decimal.Decimal
	Alert       aggregate.Alert
}

// LedgerService records and edits transactions and maintains the plan.
type LedgerService struct {
	stores    backend.Stores
	publisher EventPublisher
	logger    *log.Logger
}

// NewLedgerService wires the stores. publisher may be nil when AMQP is off.
func NewLedgerService(stores backend.Stores, publisher EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		stores:    stores,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// Record appends tx to the ledger of flow. After an expense it checks the
// category's current-month total against the plan.
func (s *LedgerService) Record(ctx context.Context, flow core.Flow, tx core.Transaction) (Receipt, error) {
	store, err := s.stores.Ledger(flow)
	if err != nil {
		return Receipt{}, err
	}
	tx.Item = strings.TrimSpace(tx.Item)
	tx.Category = strings.TrimSpace(tx.Category)
	if err := tx.Validate(); err != nil {
		return Receipt{}, err
	}
	if err := store.Append(ctx, tx); err != nil {
		return Receipt{}, fmt.Errorf("append %s: %w", flow, err)
	}

	all, err := store.All(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("read back %s: %w", flow, err)
	}
	receipt := Receipt{Flow: flow, Transaction: tx, Position: len(all) - 1}

	s.logger.Info("Transaction recorded",
		log.FieldFlow, flow,
		log.FieldCategory, tx.Category,
		log.FieldAmount, core.FormatAmount(tx.Amount))

	if flow == core.Expense {
		p, err := s.stores.Plan.Load(ctx)
		if err != nil {
			return Receipt{}, fmt.Errorf("load plan: %w", err)
		}
		receipt.MonthTotal = aggregate.CategoryTotal(ledger.FilterMonth(all, tx.Date), tx.Category)
		receipt.Alert, receipt.Limit = aggregate.CheckCategory(p, tx.Category, receipt.MonthTotal)
	}

	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventRecorded, flow, receipt.Position, tx))
	return receipt, nil
}

// Recent lists the last n records of flow, numbered from 1.
func (s *LedgerService) Recent(ctx context.Context, flow core.Flow, n int) ([]ledger.Entry, error) {
	store, err := s.stores.Ledger(flow)
	if err != nil {
		return nil, err
	}
	return ledger.Recent(ctx, store, n)
}

// Edit overwrites the record at position and publishes the change.
func (s *LedgerService) Edit(ctx context.Context, flow core.Flow, position int, tx core.Transaction) error {
	store, err := s.stores.Ledger(flow)
	if err != nil {
		return err
	}
	tx.Item = strings.TrimSpace(tx.Item)
	tx.Category = strings.TrimSpace(tx.Category)
	if err := store.Replace(ctx, position, tx); err != nil {
		return fmt.Errorf("replace %s: %w", flow, err)
	}
	s.logger.Info("Transaction edited",
		log.FieldFlow, flow,
		log.FieldPosition, position,
		log.FieldCategory, tx.Category,
		log.FieldAmount, core.FormatAmount(tx.Amount))

	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventEdited, flow, position, tx))
	return nil
}

// SetLimit stores the monthly limit of category and returns the new plan.
func (s *LedgerService) SetLimit(ctx context.Context, category string, limit decimal.Decimal) (core.Plan, error) {
	p, err := plan.SetLimit(ctx, s.stores.Plan, category, limit)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Budget limit set",
		log.FieldCategory, strings.TrimSpace(category),
		log.FieldAmount, core.FormatAmount(limit))
	return p, nil
}

func (s *LedgerService) Plan(ctx context.Context) (core.Plan, error) {
	return s.stores.Plan.Load(ctx)
}

// PlanStatus compares the plan with the expenses of now's month.
func (s *LedgerService) PlanStatus(ctx context.Context, now time.Time) ([]core.Variance, error) {
	p, err := s.stores.Plan.Load(ctx)
	if err != nil {
		return nil, err
	}
	month, err := ledger.CurrentMonth(ctx, s.stores.Expenses, now)
	if err != nil {
		return nil, err
	}
	return aggregate.PlanVsActual(aggregate.SumByCategory(month), p), nil
}

// Categories returns the known categories of flow, sorted. For expenses
// that is every plan key and every category already used.
func (s *LedgerService) Categories(ctx context.Context, flow core.Flow) ([]string, error) {
	store, err := s.stores.Ledger(flow)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	if flow == core.Expense {
		p, err := s.stores.Plan.Load(ctx)
		if err != nil {
			return nil, err
		}
		for name := range p {
			seen[name] = struct{}{}
		}
	}
	txs, _, err := ledger.Load(ctx, store)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		seen[tx.Category] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		if name != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// publish never fails the caller; the record is already stored.
func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("Failed to publish ledger event",
			log.FieldError, err,
			log.FieldEventID, ev.ID,
			log.FieldFlow, ev.Flow)
	}
}
