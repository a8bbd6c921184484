package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/internal/core"
)

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	l, bank, cash := bankAndCash(t)

	out, err := l.Dispatch(ctx, CreateBudgetCmd{BudgetParams{Name: "Trip", TargetAmount: core.Cents(50000)}})
	require.NoError(t, err)
	trip, ok := out.(core.Budget)
	require.True(t, ok)

	out, err = l.Dispatch(ctx, AllocateCmd{BudgetID: trip.ID, Amount: core.Cents(2000), SourceAccountID: bank.ID})
	require.NoError(t, err)
	transfer := out.(core.Transaction)
	assert.True(t, transfer.IsTransfer())

	out, err = l.Dispatch(ctx, RecordTransactionCmd{expense(cash.ID, 700)})
	require.NoError(t, err)
	tx := out.(core.Transaction)

	_, err = l.Dispatch(ctx, DeleteTransactionCmd{ID: tx.ID})
	require.NoError(t, err)

	out, err = l.Dispatch(ctx, ToggleIncludeInBudgetCmd{ID: cash.ID})
	require.NoError(t, err)
	assert.False(t, out.(core.Account).IncludeInBudget)

	_, err = l.Dispatch(ctx, WithdrawCmd{BudgetID: trip.ID, Amount: core.Cents(5000), DestAccountID: bank.ID})
	assert.ErrorIs(t, err, core.ErrInsufficientSavings)

	_, err = l.Dispatch(ctx, DeleteBudgetCmd{ID: trip.ID, TransferAccountID: bank.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(100000), balance(t, l, bank.ID))
	assert.Equal(t, int64(15000), balance(t, l, cash.ID))
}

func TestDispatchRejectsNil(t *testing.T) {
	l, _, _ := bankAndCash(t)
	_, err := l.Dispatch(context.Background(), nil)
	assert.Error(t, err)
}
