package wallet

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"secondbrain/internal/amqp"
	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
)

// quotedName extracts the goal name from legacy transfer descriptions such
// as `Add funds to "Trip"`.
var quotedName = regexp.MustCompile(`"(.*?)"`)

// RecordTransactionParams describes a user-entered expense or income.
// Amount is always positive; Kind decides the sign.
type RecordTransactionParams struct {
	Description string
	Amount      core.Money
	AccountID   string
	CategoryID  string
	Date        core.Date
	Kind        core.TransactionKind
	// Confirmed acknowledges that an expense takes a budgeted account
	// below zero.
	Confirmed bool
}

// RecordTransaction creates a transaction and applies its balance delta to
// the account.
func (l *Ledger) RecordTransaction(ctx context.Context, p RecordTransactionParams) (core.Transaction, error) {
	if err := p.Amount.Validate(); err != nil {
		return core.Transaction{}, core.Invalid("amount", err)
	}
	if !p.Kind.IsValid() {
		return core.Transaction{}, core.Invalid("kind", fmt.Errorf("unknown kind %q", p.Kind))
	}
	if err := p.Date.Validate(); err != nil {
		return core.Transaction{}, core.Invalid("date", err)
	}
	if p.CategoryID == core.CategoryInternalTransfer {
		return core.Transaction{}, core.Invalid("categoryId", errors.New("internal transfers are created by goal operations only"))
	}

	var created core.Transaction
	err := l.mutate(ctx, "record_transaction", func(s *state) ([]*amqp.LedgerEvent, error) {
		ai, err := s.accountIndex(p.AccountID)
		if err != nil {
			return nil, core.Invalid("accountId", err)
		}
		if _, err := s.categoryIndex(p.CategoryID); err != nil {
			return nil, core.Invalid("categoryId", err)
		}

		tx := core.Transaction{
			ID:          l.newID(),
			Description: strings.TrimSpace(p.Description),
			Amount:      p.Kind.SignedAmount(p.Amount),
			AccountID:   p.AccountID,
			CategoryID:  p.CategoryID,
			Date:        p.Date.Noon(),
		}
		if err := tx.Validate(); err != nil {
			return nil, err
		}

		acc := &s.accounts[ai]
		next := acc.Balance.Add(tx.BalanceDelta())
		if p.Kind == core.KindExpense && acc.IncludeInBudget && next.IsNegative() && !p.Confirmed {
			return nil, fmt.Errorf("%s would drop to %s: %w", acc.Name, next, core.ErrConfirmationRequired)
		}
		acc.Balance = next
		s.transactions = append([]core.Transaction{tx}, s.transactions...)
		created = tx
		return []*amqp.LedgerEvent{amqp.NewTransactionEvent(amqp.EventTransactionRecorded, tx)}, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	logger(ctx).InfoContext(ctx, "Transaction recorded",
		applog.FieldTransactionID, created.ID,
		applog.FieldAccountID, created.AccountID,
		applog.FieldCategoryID, created.CategoryID,
		applog.FieldAmountCents, created.Amount.Cents)
	return created, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// For internal transfers the linked goal's saved amount is reversed too;
// when no goal can be resolved only the account side is reversed.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	return l.mutate(ctx, "delete_transaction", func(s *state) ([]*amqp.LedgerEvent, error) {
		ti, err := s.transactionIndex(id)
		if err != nil {
			return nil, err
		}
		tx := s.transactions[ti]

		if ai, err := s.accountIndex(tx.AccountID); err == nil {
			s.accounts[ai].Balance = s.accounts[ai].Balance.Add(tx.Amount)
		} else {
			logger(ctx).WarnContext(ctx, "Deleted transaction references a missing account",
				applog.FieldTransactionID, tx.ID, applog.FieldAccountID, tx.AccountID)
		}

		if tx.IsTransfer() {
			if bi, ok := s.resolveTransferBudget(tx); ok {
				s.budgets[bi].SavedAmount = s.budgets[bi].SavedAmount.Sub(tx.Amount)
			} else {
				logger(ctx).WarnContext(ctx, "No savings goal matches transfer, reversing account side only",
					applog.FieldTransactionID, tx.ID,
					"linked_budget_id", tx.LinkedBudgetID,
					applog.FieldDescription, tx.Description)
			}
		}

		s.transactions = append(s.transactions[:ti], s.transactions[ti+1:]...)
		return []*amqp.LedgerEvent{amqp.NewTransactionEvent(amqp.EventTransactionDeleted, tx)}, nil
	})
}

// resolveTransferBudget finds the goal a transfer belongs to, by id first
// and by the quoted name in the description for records without one.
func (s *state) resolveTransferBudget(tx core.Transaction) (int, bool) {
	if tx.LinkedBudgetID != "" {
		if i, err := s.budgetIndex(tx.LinkedBudgetID); err == nil {
			return i, true
		}
		return -1, false
	}
	m := quotedName.FindStringSubmatch(tx.Description)
	if m == nil {
		return -1, false
	}
	return s.budgetByName(m[1])
}

// EditTransactionParams holds the replacement fields of a transaction.
// Amount is positive. An empty Kind keeps the original direction.
type EditTransactionParams struct {
	Description string
	Amount      core.Money
	AccountID   string
	CategoryID  string
	Date        core.Date
	Kind        core.TransactionKind
}

// EditTransaction replaces the fields of a non-transfer transaction and
// moves the balance difference onto the effective account.
func (l *Ledger) EditTransaction(ctx context.Context, id string, p EditTransactionParams) (core.Transaction, error) {
	if err := p.Amount.Validate(); err != nil {
		return core.Transaction{}, core.Invalid("amount", err)
	}
	if err := p.Date.Validate(); err != nil {
		return core.Transaction{}, core.Invalid("date", err)
	}
	if p.Kind != "" && !p.Kind.IsValid() {
		return core.Transaction{}, core.Invalid("kind", fmt.Errorf("unknown kind %q", p.Kind))
	}
	if p.CategoryID == core.CategoryInternalTransfer {
		return core.Transaction{}, core.Invalid("categoryId", errors.New("cannot turn a transaction into an internal transfer"))
	}

	var updated core.Transaction
	err := l.mutate(ctx, "edit_transaction", func(s *state) ([]*amqp.LedgerEvent, error) {
		ti, err := s.transactionIndex(id)
		if err != nil {
			return nil, err
		}
		old := s.transactions[ti]
		if old.IsTransfer() {
			return nil, core.ErrImmutableTransfer
		}

		kind := p.Kind
		if kind == "" {
			kind = core.KindExpense
			if old.Amount.IsNegative() {
				kind = core.KindIncome
			}
		}
		tx := old
		tx.Description = strings.TrimSpace(p.Description)
		tx.Amount = kind.SignedAmount(p.Amount)
		tx.AccountID = p.AccountID
		tx.CategoryID = p.CategoryID
		tx.Date = p.Date.Noon()
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		if _, err := s.categoryIndex(tx.CategoryID); err != nil {
			return nil, core.Invalid("categoryId", err)
		}
		newIdx, err := s.accountIndex(tx.AccountID)
		if err != nil {
			return nil, core.Invalid("accountId", err)
		}

		if old.AccountID == tx.AccountID {
			s.accounts[newIdx].Balance = s.accounts[newIdx].Balance.Add(old.Amount.Sub(tx.Amount))
		} else {
			if oldIdx, err := s.accountIndex(old.AccountID); err == nil {
				s.accounts[oldIdx].Balance = s.accounts[oldIdx].Balance.Add(old.Amount)
			}
			s.accounts[newIdx].Balance = s.accounts[newIdx].Balance.Sub(tx.Amount)
		}

		s.transactions[ti] = tx
		updated = tx
		return []*amqp.LedgerEvent{amqp.NewTransactionEvent(amqp.EventTransactionUpdated, tx)}, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}
