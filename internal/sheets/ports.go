package sheets

import (
	"context"

	"secondbrain/internal/core"
)

// Ports for the transaction journal mirror.
type (
	// JournalWriter keeps one row per transaction, keyed by transaction id.
	JournalWriter interface {
		// Upsert writes tx, replacing the row with the same id if present.
		Upsert(ctx context.Context, tx core.Transaction) error
		// Delete removes the row for id. Missing rows are not an error.
		Delete(ctx context.Context, id string) error
	}

	// JournalLister reads back the mirrored rows.
	JournalLister interface {
		List(ctx context.Context) ([]core.Transaction, error)
	}

	Journal interface {
		JournalWriter
		JournalLister
	}
)
