package wallet

import (
	"context"
	"fmt"
	"strings"

	"secondbrain/internal/amqp"
	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
)

// BudgetParams holds the user-editable fields of a savings goal. The saved
// amount only changes through Allocate, Withdraw and transfer reversal.
type BudgetParams struct {
	Name         string
	TargetAmount core.Money
	ImageURL     string
	TargetDate   *core.Date
}

func (p BudgetParams) apply(b core.Budget) core.Budget {
	b.Name = strings.TrimSpace(p.Name)
	b.TargetAmount = p.TargetAmount
	b.ImageURL = strings.TrimSpace(p.ImageURL)
	b.TargetDate = nil
	if p.TargetDate != nil && !p.TargetDate.IsZero() {
		d := *p.TargetDate
		b.TargetDate = &d
	}
	return b
}

// CreateBudget adds a savings goal with nothing saved.
func (l *Ledger) CreateBudget(ctx context.Context, p BudgetParams) (core.Budget, error) {
	b := p.apply(core.Budget{ID: l.newID()})
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	err := l.mutate(ctx, "create_budget", func(s *state) ([]*amqp.LedgerEvent, error) {
		s.budgets = append(s.budgets, b)
		return nil, nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	logger(ctx).InfoContext(ctx, "Savings goal created", applog.FieldBudgetID, b.ID, "name", b.Name, "target_cents", b.TargetAmount.Cents)
	return b, nil
}

// UpdateBudget replaces the editable fields of a goal.
func (l *Ledger) UpdateBudget(ctx context.Context, id string, p BudgetParams) (core.Budget, error) {
	var updated core.Budget
	err := l.mutate(ctx, "update_budget", func(s *state) ([]*amqp.LedgerEvent, error) {
		i, err := s.budgetIndex(id)
		if err != nil {
			return nil, err
		}
		b := p.apply(s.budgets[i])
		if err := b.Validate(); err != nil {
			return nil, err
		}
		s.budgets[i] = b
		updated = b
		return nil, nil
	})
	return updated, err
}

// Allocate earmarks amount from the source account for the goal and
// records the matching internal transfer.
func (l *Ledger) Allocate(ctx context.Context, budgetID string, amount core.Money, sourceAccountID string) (core.Transaction, error) {
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, core.Invalid("amount", err)
	}
	var created core.Transaction
	err := l.mutate(ctx, "allocate", func(s *state) ([]*amqp.LedgerEvent, error) {
		bi, err := s.budgetIndex(budgetID)
		if err != nil {
			return nil, err
		}
		ai, err := s.accountIndex(sourceAccountID)
		if err != nil {
			return nil, core.Invalid("sourceAccountId", err)
		}
		acc := &s.accounts[ai]
		if acc.Balance.Cents < amount.Cents {
			return nil, fmt.Errorf("%s holds %s, need %s: %w", acc.Name, acc.Balance, amount, core.ErrInsufficientFunds)
		}
		s.ensureTransferCategory()

		budget := &s.budgets[bi]
		acc.Balance = acc.Balance.Sub(amount)
		budget.SavedAmount = budget.SavedAmount.Add(amount)
		created = l.transfer(s, `Add funds to "`+budget.Name+`"`, amount, acc.ID, budget.ID)
		return []*amqp.LedgerEvent{amqp.NewTransactionEvent(amqp.EventTransactionRecorded, created)}, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	logger(ctx).InfoContext(ctx, "Funds allocated", applog.FieldOperation, applog.OpAllocate, applog.FieldBudgetID, budgetID, applog.FieldAccountID, sourceAccountID, applog.FieldAmountCents, amount.Cents)
	return created, nil
}

// Withdraw releases amount from the goal into the destination account and
// records the matching internal transfer.
func (l *Ledger) Withdraw(ctx context.Context, budgetID string, amount core.Money, destAccountID string) (core.Transaction, error) {
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, core.Invalid("amount", err)
	}
	var created core.Transaction
	err := l.mutate(ctx, "withdraw", func(s *state) ([]*amqp.LedgerEvent, error) {
		bi, err := s.budgetIndex(budgetID)
		if err != nil {
			return nil, err
		}
		ai, err := s.accountIndex(destAccountID)
		if err != nil {
			return nil, core.Invalid("destAccountId", err)
		}
		budget := &s.budgets[bi]
		if budget.SavedAmount.Cents < amount.Cents {
			return nil, fmt.Errorf("%s holds %s, need %s: %w", budget.Name, budget.SavedAmount, amount, core.ErrInsufficientSavings)
		}
		s.ensureTransferCategory()

		acc := &s.accounts[ai]
		acc.Balance = acc.Balance.Add(amount)
		budget.SavedAmount = budget.SavedAmount.Sub(amount)
		created = l.transfer(s, `Withdraw from "`+budget.Name+`"`, amount.Neg(), acc.ID, budget.ID)
		return []*amqp.LedgerEvent{amqp.NewTransactionEvent(amqp.EventTransactionRecorded, created)}, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	logger(ctx).InfoContext(ctx, "Funds withdrawn", applog.FieldOperation, applog.OpWithdraw, applog.FieldBudgetID, budgetID, applog.FieldAccountID, destAccountID, applog.FieldAmountCents, amount.Cents)
	return created, nil
}

func (l *Ledger) transfer(s *state, description string, amount core.Money, accountID, budgetID string) core.Transaction {
	tx := core.Transaction{
		ID:             l.newID(),
		Description:    description,
		Amount:         amount,
		AccountID:      accountID,
		CategoryID:     core.CategoryInternalTransfer,
		Date:           l.now().UTC(),
		LinkedBudgetID: budgetID,
	}
	s.transactions = append([]core.Transaction{tx}, s.transactions...)
	return tx
}

// DeleteBudget removes a goal. Any saved amount is credited back to
// transferAccountID, which is required when something is saved.
func (l *Ledger) DeleteBudget(ctx context.Context, id, transferAccountID string) error {
	return l.mutate(ctx, "delete_budget", func(s *state) ([]*amqp.LedgerEvent, error) {
		bi, err := s.budgetIndex(id)
		if err != nil {
			return nil, err
		}
		budget := s.budgets[bi]
		if budget.SavedAmount.Cents > 0 {
			if transferAccountID == "" {
				return nil, core.Invalid("transferAccountId", fmt.Errorf("%s still holds %s: %w", budget.Name, budget.SavedAmount, core.ErrMissingReference))
			}
			ai, err := s.accountIndex(transferAccountID)
			if err != nil {
				return nil, core.Invalid("transferAccountId", err)
			}
			s.accounts[ai].Balance = s.accounts[ai].Balance.Add(budget.SavedAmount)
		}
		s.budgets = append(s.budgets[:bi], s.budgets[bi+1:]...)
		return []*amqp.LedgerEvent{{
			Type:      amqp.EventBudgetDeleted,
			BudgetID:  id,
			AccountID: transferAccountID,
			Timestamp: l.now(),
		}}, nil
	})
}
