package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"secondbrain/internal/amqp"
	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
)

// CreateAccount adds an account with an opening balance. New accounts count
// towards the budget.
func (l *Ledger) CreateAccount(ctx context.Context, name string, opening core.Money) (core.Account, error) {
	acc := core.Account{
		ID:              l.newID(),
		Name:            strings.TrimSpace(name),
		Balance:         opening,
		IncludeInBudget: true,
	}
	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}
	err := l.mutate(ctx, "create_account", func(s *state) ([]*amqp.LedgerEvent, error) {
		s.accounts = append(s.accounts, acc)
		return nil, nil
	})
	if err != nil {
		return core.Account{}, err
	}
	logger(ctx).InfoContext(ctx, "Account created", applog.FieldAccountID, acc.ID, "name", acc.Name)
	return acc, nil
}

// UpdateAccount renames an account and sets its balance. This is the
// manual correction path and does not create a transaction.
func (l *Ledger) UpdateAccount(ctx context.Context, id, name string, balance core.Money) (core.Account, error) {
	name = strings.TrimSpace(name)
	var updated core.Account
	err := l.mutate(ctx, "update_account", func(s *state) ([]*amqp.LedgerEvent, error) {
		i, err := s.accountIndex(id)
		if err != nil {
			return nil, err
		}
		acc := s.accounts[i]
		acc.Name = name
		acc.Balance = balance
		if err := acc.Validate(); err != nil {
			return nil, err
		}
		s.accounts[i] = acc
		updated = acc
		return nil, nil
	})
	return updated, err
}

// SetIncludeInBudget controls whether the account counts towards total funds.
func (l *Ledger) SetIncludeInBudget(ctx context.Context, id string, include bool) (core.Account, error) {
	return l.updateInclude(ctx, id, func(bool) bool { return include })
}

// ToggleIncludeInBudget flips whether the account counts towards total funds.
func (l *Ledger) ToggleIncludeInBudget(ctx context.Context, id string) (core.Account, error) {
	return l.updateInclude(ctx, id, func(cur bool) bool { return !cur })
}

func (l *Ledger) updateInclude(ctx context.Context, id string, next func(bool) bool) (core.Account, error) {
	var updated core.Account
	err := l.mutate(ctx, "set_include_in_budget", func(s *state) ([]*amqp.LedgerEvent, error) {
		i, err := s.accountIndex(id)
		if err != nil {
			return nil, err
		}
		s.accounts[i].IncludeInBudget = next(s.accounts[i].IncludeInBudget)
		updated = s.accounts[i]
		return nil, nil
	})
	return updated, err
}

// DeleteAccount moves every transaction of the account to reassignTo and
// removes the account. The last remaining account cannot be deleted.
func (l *Ledger) DeleteAccount(ctx context.Context, id, reassignTo string) error {
	moved := 0
	err := l.mutate(ctx, "delete_account", func(s *state) ([]*amqp.LedgerEvent, error) {
		i, err := s.accountIndex(id)
		if err != nil {
			return nil, err
		}
		if len(s.accounts) == 1 {
			return nil, fmt.Errorf("cannot delete the last account: %w", core.ErrReferentialIntegrity)
		}
		if reassignTo == "" {
			return nil, fmt.Errorf("a reassignment account is required: %w", core.ErrReferentialIntegrity)
		}
		if reassignTo == id {
			return nil, core.Invalid("reassignTo", errors.New("must differ from the deleted account"))
		}
		if _, err := s.accountIndex(reassignTo); err != nil {
			return nil, core.Invalid("reassignTo", err)
		}

		var events []*amqp.LedgerEvent
		for ti := range s.transactions {
			if s.transactions[ti].AccountID == id {
				s.transactions[ti].AccountID = reassignTo
				events = append(events, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, s.transactions[ti]))
				moved++
			}
		}
		s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
		return append(events, &amqp.LedgerEvent{
			Type:         amqp.EventAccountDeleted,
			AccountID:    id,
			ReassignedTo: reassignTo,
			Timestamp:    l.now(),
		}), nil
	})
	if err != nil {
		return err
	}
	logger(ctx).InfoContext(ctx, "Account deleted", applog.FieldAccountID, id, "reassigned_to", reassignTo, "moved_transactions", moved)
	return nil
}
