package wallet

import (
	"context"
	"strings"

	"secondbrain/internal/amqp"
	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
	"secondbrain/internal/ofx"
)

// ImportResult counts what an import did.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// importID derives a stable transaction id so re-importing a statement is a
// no-op.
func importID(fitid string) string {
	return "ofx-" + fitid
}

// ImportStatement records statement entries into accountID under
// categoryID ("other" when empty). Entries already imported, or with a
// zero amount, are skipped. The whole batch commits atomically and does
// not ask for overdraft confirmation.
func (l *Ledger) ImportStatement(ctx context.Context, accountID, categoryID string, entries []ofx.Entry) (ImportResult, error) {
	if categoryID == "" {
		categoryID = core.CategoryOther
	}
	if categoryID == core.CategoryInternalTransfer {
		return ImportResult{}, core.Invalid("categoryId", core.ErrReservedCategory)
	}

	var res ImportResult
	err := l.mutate(ctx, "import_statement", func(s *state) ([]*amqp.LedgerEvent, error) {
		res = ImportResult{}
		ai, err := s.accountIndex(accountID)
		if err != nil {
			return nil, core.Invalid("accountId", err)
		}
		if _, err := s.categoryIndex(categoryID); err != nil {
			return nil, core.Invalid("categoryId", err)
		}

		seen := make(map[string]bool, len(s.transactions))
		for _, tx := range s.transactions {
			seen[tx.ID] = true
		}

		var events []*amqp.LedgerEvent
		for _, e := range entries {
			id := importID(e.FITID)
			if e.FITID == "" || e.Amount.IsZero() || seen[id] {
				res.Skipped++
				continue
			}
			desc := strings.TrimSpace(e.Description)
			if len([]rune(desc)) > 200 {
				desc = string([]rune(desc)[:200])
			}
			tx := core.Transaction{
				ID:          id,
				Description: desc,
				Amount:      e.Amount,
				AccountID:   accountID,
				CategoryID:  categoryID,
				Date:        e.Posted.Noon(),
			}
			if err := tx.Validate(); err != nil {
				logger(ctx).WarnContext(ctx, "Skipping statement entry", "fitid", e.FITID, applog.FieldError, err)
				res.Skipped++
				continue
			}
			s.accounts[ai].Balance = s.accounts[ai].Balance.Add(tx.BalanceDelta())
			s.transactions = append([]core.Transaction{tx}, s.transactions...)
			seen[id] = true
			events = append(events, amqp.NewTransactionEvent(amqp.EventTransactionRecorded, tx))
			res.Imported++
		}
		return events, nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	logger(ctx).InfoContext(ctx, "Statement imported",
		applog.FieldAccountID, accountID,
		applog.FieldImported, res.Imported,
		applog.FieldSkipped, res.Skipped)
	return res, nil
}
