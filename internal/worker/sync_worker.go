// Package worker mirrors the ledger's transactions into a journal sheet.
package worker

import (
	"context"
	"fmt"

	"secondbrain/internal/amqp"
	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
	"secondbrain/internal/sheets"
	"secondbrain/internal/storage"
)

// SyncWorker applies ledger events to the journal and periodically
// reconciles the journal against the stored transactions, in case AMQP
// messages were lost.
type SyncWorker struct {
	store     storage.Store
	journal   sheets.Journal
	batchSize int
}

func NewSyncWorker(store storage.Store, journal sheets.Journal, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		journal:   journal,
		batchSize: batchSize,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	logger(ctx).InfoContext(ctx, "Processing ledger event", "type", event.Type)

	switch event.Type {
	case amqp.EventTransactionRecorded, amqp.EventTransactionUpdated:
		if err := w.journal.Upsert(ctx, *event.Transaction); err != nil {
			return fmt.Errorf("upsert journal row %s: %w", event.Transaction.ID, err)
		}
		logger(ctx).InfoContext(ctx, "Journal row synced", applog.FieldOperation, applog.OpSync,
			applog.FieldTransactionID, event.Transaction.ID,
			applog.FieldAmountCents, event.Transaction.Amount.Cents)
	case amqp.EventTransactionDeleted:
		if err := w.journal.Delete(ctx, event.Transaction.ID); err != nil {
			return fmt.Errorf("delete journal row %s: %w", event.Transaction.ID, err)
		}
		logger(ctx).InfoContext(ctx, "Journal row deleted", applog.FieldOperation, applog.OpSync, applog.FieldTransactionID, event.Transaction.ID)
	case amqp.EventAccountDeleted:
		// Reassigned rows arrive as transaction.updated events.
		logger(ctx).InfoContext(ctx, "Account deleted",
			applog.FieldAccountID, event.AccountID,
			"reassigned_to", event.ReassignedTo)
	case amqp.EventBudgetDeleted:
		logger(ctx).InfoContext(ctx, "Budget deleted", applog.FieldBudgetID, event.BudgetID)
	default:
		logger(ctx).WarnContext(ctx, "Ignoring unknown ledger event", "type", event.Type)
	}
	return nil
}

// ReconcileResult counts the journal changes made by Reconcile.
type ReconcileResult struct {
	Upserted int
	Deleted  int
	Pending  int
}

// Reconcile brings the journal in line with the stored transactions. At
// most batchSize rows are written or removed per call; Pending reports how
// many differences are left for the next run.
func (w *SyncWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var stored []core.Transaction
	if _, err := w.store.Get(ctx, storage.KeyExpenses, &stored); err != nil {
		return ReconcileResult{}, fmt.Errorf("load transactions: %w", err)
	}
	mirrored, err := w.journal.List(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list journal: %w", err)
	}

	byID := make(map[string]core.Transaction, len(mirrored))
	for _, tx := range mirrored {
		byID[tx.ID] = tx
	}

	var res ReconcileResult
	budget := w.batchSize
	seen := make(map[string]struct{}, len(stored))

	for _, tx := range stored {
		seen[tx.ID] = struct{}{}
		if row, ok := byID[tx.ID]; ok && sameRow(row, tx) {
			continue
		}
		if budget == 0 {
			res.Pending++
			continue
		}
		if err := w.journal.Upsert(ctx, tx); err != nil {
			logger(ctx).ErrorContext(ctx, "Failed to upsert journal row", "id", tx.ID, applog.FieldError, err)
			res.Pending++
			continue
		}
		budget--
		res.Upserted++
	}

	for _, row := range mirrored {
		if _, ok := seen[row.ID]; ok {
			continue
		}
		if budget == 0 {
			res.Pending++
			continue
		}
		if err := w.journal.Delete(ctx, row.ID); err != nil {
			logger(ctx).ErrorContext(ctx, "Failed to delete journal row", "id", row.ID, applog.FieldError, err)
			res.Pending++
			continue
		}
		budget--
		res.Deleted++
	}
	return res, nil
}

// StartupSyncCheck runs a reconcile at worker startup with a larger batch.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	startup := *w
	startup.batchSize = w.batchSize * 5

	res, err := startup.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("startup reconcile: %w", err)
	}
	if res.Upserted == 0 && res.Deleted == 0 && res.Pending == 0 {
		logger(ctx).InfoContext(ctx, "Journal already in sync on startup")
		return nil
	}
	logger(ctx).InfoContext(ctx, "Startup sync completed",
		"upserted", res.Upserted,
		"deleted", res.Deleted,
		"pending", res.Pending)
	return nil
}

// sameRow compares the fields the journal stores. Dates are compared by
// calendar day since the journal keeps no time of day.
func sameRow(a, b core.Transaction) bool {
	return a.ID == b.ID &&
		a.Description == b.Description &&
		a.Amount == b.Amount &&
		a.AccountID == b.AccountID &&
		a.CategoryID == b.CategoryID &&
		a.LinkedBudgetID == b.LinkedBudgetID &&
		a.Date.UTC().Format("2006-01-02") == b.Date.UTC().Format("2006-01-02")
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentWorker)
}
