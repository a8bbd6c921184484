package wallet

import (
	"context"
	"fmt"

	"secondbrain/internal/core"
)

// Command is a typed ledger intent. The set of implementations is closed;
// Dispatch routes each one to its mutator.
type Command interface {
	command()
}

type (
	RecordTransactionCmd struct {
		RecordTransactionParams
	}

	EditTransactionCmd struct {
		ID string
		EditTransactionParams
	}

	DeleteTransactionCmd struct {
		ID string
	}

	CreateAccountCmd struct {
		Name    string
		Opening core.Money
	}

	UpdateAccountCmd struct {
		ID      string
		Name    string
		Balance core.Money
	}

	ToggleIncludeInBudgetCmd struct {
		ID string
	}

	DeleteAccountCmd struct {
		ID         string
		ReassignTo string
	}

	CreateCategoryCmd struct {
		Name  string
		Color string
	}

	UpdateCategoryCmd struct {
		ID    string
		Name  string
		Color string
	}

	DeleteCategoryCmd struct {
		ID string
	}

	CreateBudgetCmd struct {
		BudgetParams
	}

	UpdateBudgetCmd struct {
		ID string
		BudgetParams
	}

	AllocateCmd struct {
		BudgetID        string
		Amount          core.Money
		SourceAccountID string
	}

	WithdrawCmd struct {
		BudgetID      string
		Amount        core.Money
		DestAccountID string
	}

	DeleteBudgetCmd struct {
		ID                string
		TransferAccountID string
	}
)

func (RecordTransactionCmd) command()     {}
func (EditTransactionCmd) command()       {}
func (DeleteTransactionCmd) command()     {}
func (CreateAccountCmd) command()         {}
func (UpdateAccountCmd) command()         {}
func (ToggleIncludeInBudgetCmd) command() {}
func (DeleteAccountCmd) command()         {}
func (CreateCategoryCmd) command()        {}
func (UpdateCategoryCmd) command()        {}
func (DeleteCategoryCmd) command()        {}
func (CreateBudgetCmd) command()          {}
func (UpdateBudgetCmd) command()          {}
func (AllocateCmd) command()              {}
func (WithdrawCmd) command()              {}
func (DeleteBudgetCmd) command()          {}

// Dispatch executes cmd and returns the created or updated entity, or nil
// for deletions.
func (l *Ledger) Dispatch(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case RecordTransactionCmd:
		return l.RecordTransaction(ctx, c.RecordTransactionParams)
	case EditTransactionCmd:
		return l.EditTransaction(ctx, c.ID, c.EditTransactionParams)
	case DeleteTransactionCmd:
		return nil, l.DeleteTransaction(ctx, c.ID)
	case CreateAccountCmd:
		return l.CreateAccount(ctx, c.Name, c.Opening)
	case UpdateAccountCmd:
		return l.UpdateAccount(ctx, c.ID, c.Name, c.Balance)
	case ToggleIncludeInBudgetCmd:
		return l.ToggleIncludeInBudget(ctx, c.ID)
	case DeleteAccountCmd:
		return nil, l.DeleteAccount(ctx, c.ID, c.ReassignTo)
	case CreateCategoryCmd:
		return l.CreateCategory(ctx, c.Name, c.Color)
	case UpdateCategoryCmd:
		return l.UpdateCategory(ctx, c.ID, c.Name, c.Color)
	case DeleteCategoryCmd:
		return nil, l.DeleteCategory(ctx, c.ID)
	case CreateBudgetCmd:
		return l.CreateBudget(ctx, c.BudgetParams)
	case UpdateBudgetCmd:
		return l.UpdateBudget(ctx, c.ID, c.BudgetParams)
	case AllocateCmd:
		return l.Allocate(ctx, c.BudgetID, c.Amount, c.SourceAccountID)
	case WithdrawCmd:
		return l.Withdraw(ctx, c.BudgetID, c.Amount, c.DestAccountID)
	case DeleteBudgetCmd:
		return nil, l.DeleteBudget(ctx, c.ID, c.TransferAccountID)
	default:
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}
}
