package sheets

import (
	"context"

	"budgetbot/internal/core"
)

// Ports for outbound adapters.
type (
	// RowAppender adds a record at the end of the flow's tab.
	RowAppender interface {
		Append(ctx context.Context, flow core.Flow, tx core.Transaction) (rowRef string, err error)
	}

	// RowUpdater overwrites the row holding the record at position (0-based,
	// header excluded).
	RowUpdater interface {
		Update(ctx context.Context, flow core.Flow, position int, tx core.Transaction) (rowRef string, err error)
	}

	// Mirror keeps a spreadsheet copy of the ledgers.
	Mirror interface {
		RowAppender
		RowUpdater
	}
)
