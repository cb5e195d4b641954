package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"budgetbot/internal/amqp"
	"budgetbot/internal/log"
	"budgetbot/internal/sheets"
)

// MirrorWorker copies ledger events into a spreadsheet.
type MirrorWorker struct {
	mirror sheets.Mirror
	logger *log.Logger

	appended atomic.Int64
	updated  atomic.Int64
	failed   atomic.Int64
}

func NewMirrorWorker(mirror sheets.Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent applies one event. A returned error makes the consumer requeue the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.logger.Info("Processing ledger event",
		log.FieldEventID, ev.ID,
		"kind", ev.Kind,
		log.FieldFlow, ev.Flow,
		log.FieldPosition, ev.Position)

	tx, err := ev.Transaction()
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("decode event %s: %w", ev.ID, err)
	}

	var ref string
	switch ev.Kind {
	case amqp.EventRecorded:
		ref, err = w.mirror.Append(ctx, ev.Flow, tx)
	case amqp.EventEdited:
		ref, err = w.mirror.Update(ctx, ev.Flow, ev.Position, tx)
	default:
		w.logger.Warn("Ignoring unknown event kind", log.FieldEventID, ev.ID, "kind", ev.Kind)
		return nil
	}
	if err != nil {
		w.failed.Add(1)
		w.logger.Error("Failed to mirror event",
			log.FieldEventID, ev.ID,
			log.FieldOperation, log.OpMirror,
			log.FieldError, err)
		return fmt.Errorf("mirror %s event %s: %w", ev.Kind, ev.ID, err)
	}

	if ev.Kind == amqp.EventRecorded {
		w.appended.Add(1)
	} else {
		w.updated.Add(1)
	}
	w.logger.Info("Event mirrored",
		log.FieldEventID, ev.ID,
		"sheets_ref", ref,
		log.FieldCategory, tx.Category,
		log.FieldAmount, ev.Amount.StringFixed(2))
	return nil
}

// Stats is a snapshot of the worker's counters.
type Stats struct {
	Appended int64
	Updated  int64
	Failed   int64
}

func (w *MirrorWorker) Stats() Stats {
	return Stats{
		Appended: w.appended.Load(),
		Updated:  w.updated.Load(),
		Failed:   w.failed.Load(),
	}
}
