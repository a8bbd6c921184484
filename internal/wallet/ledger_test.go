package wallet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/internal/amqp"
	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
	"secondbrain/internal/storage"
	"secondbrain/internal/storage/memory"
)

var fixedNow = time.Date(2024, time.July, 10, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// failingStore accepts reads and rejects writes once fail is set.
type failingStore struct {
	*memory.Store
	fail bool
}

func (s *failingStore) SetBatch(ctx context.Context, entries map[string]any) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.SetBatch(ctx, entries)
}

func (s *failingStore) Set(ctx context.Context, key string, value any) error {
	return s.SetBatch(ctx, map[string]any{key: value})
}

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func newTestLedger(t *testing.T, store storage.Store, opts ...Option) *Ledger {
	t.Helper()
	base := []Option{WithoutSeed(), sequentialIDs(), WithClock(func() time.Time { return fixedNow })}
	l, err := New(context.Background(), store, append(base, opts...)...)
	require.NoError(t, err)
	return l
}

// bankAndCash builds the two-account wallet used by most tests.
func bankAndCash(t *testing.T, opts ...Option) (*Ledger, core.Account, core.Account) {
	t.Helper()
	ctx := context.Background()
	l := newTestLedger(t, memory.New(), opts...)
	bank, err := l.CreateAccount(ctx, "Bank", core.Cents(100000))
	require.NoError(t, err)
	cash, err := l.CreateAccount(ctx, "Cash", core.Cents(15000))
	require.NoError(t, err)
	return l, bank, cash
}

func balance(t *testing.T, l *Ledger, id string) int64 {
	t.Helper()
	acc, err := l.Account(id)
	require.NoError(t, err)
	return acc.Balance.Cents
}

func expense(accountID string, cents int64) RecordTransactionParams {
	return RecordTransactionParams{
		Description: "Groceries",
		Amount:      core.Cents(cents),
		AccountID:   accountID,
		CategoryID:  core.CategoryOther,
		Date:        core.NewDate(2024, 7, 3),
		Kind:        core.KindExpense,
	}
}

func TestNewSeedsDefaults(t *testing.T) {
	store := memory.New()
	l, err := New(context.Background(), store)
	require.NoError(t, err)

	assert.Len(t, l.Accounts(), 3)
	assert.Len(t, l.Categories(), 6)

	totals := l.Totals()
	// Credit card is excluded from the budget.
	assert.Equal(t, int64(115000), totals.TotalFunds.Cents)

	_, ok := store.Raw(storage.KeyAccounts)
	assert.True(t, ok, "seeded state should be persisted")
}

func TestNewWithoutSeedKeepsReservedCategories(t *testing.T) {
	l := newTestLedger(t, memory.New())

	assert.Empty(t, l.Accounts())
	ids := []string{}
	for _, c := range l.Categories() {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{core.CategoryOther, core.CategoryInternalTransfer}, ids)
}

func TestLoadBackfillsLegacyData(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, storage.KeyAccounts, []map[string]any{
		{"id": "a1", "name": "Bank", "balance": 100},
		{"id": "a2", "name": "Card", "balance": -20, "includeInBudget": false},
	}))
	require.NoError(t, store.Set(ctx, storage.KeyCategories, []core.Category{
		{ID: core.CategoryOther, Name: "Other", Color: "bg-gray-400"},
	}))
	require.NoError(t, store.Set(ctx, storage.KeyBudgets, []map[string]any{
		{"id": "b1", "name": "Trip", "targetAmount": 500},
	}))

	l := newTestLedger(t, store)

	accounts := l.Accounts()
	require.Len(t, accounts, 2)
	assert.True(t, accounts[0].IncludeInBudget, "missing flag defaults to true")
	assert.False(t, accounts[1].IncludeInBudget)

	b, err := l.Budget("b1")
	require.NoError(t, err)
	assert.True(t, b.SavedAmount.IsZero())
	assert.Equal(t, int64(50000), b.TargetAmount.Cents)

	_, err = l.state.categoryIndex(core.CategoryInternalTransfer)
	assert.NoError(t, err, "transfer category is restored")

	// The migrated shape is written back.
	var stored []core.Account
	found, err := store.Get(ctx, storage.KeyAccounts, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, stored[0].IncludeInBudget)

	var cats []core.Category
	_, err = store.Get(ctx, storage.KeyCategories, &cats)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}

func TestAllocateScenario(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)

	trip, err := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})
	require.NoError(t, err)

	tx, err := l.Allocate(ctx, trip.ID, core.Cents(30000), bank.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(70000), balance(t, l, bank.ID))
	got, err := l.Budget(trip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), got.SavedAmount.Cents)

	totals := l.Totals()
	assert.Equal(t, int64(85000), totals.TotalFunds.Cents)
	assert.Equal(t, int64(30000), totals.TotalSaved.Cents)
	assert.Equal(t, int64(55000), totals.AvailableToSpend.Cents)

	assert.Equal(t, core.CategoryInternalTransfer, tx.CategoryID)
	assert.Equal(t, `Add funds to "Trip"`, tx.Description)
	assert.Equal(t, int64(30000), tx.Amount.Cents)
	assert.Equal(t, trip.ID, tx.LinkedBudgetID)
	assert.Equal(t, fixedNow, tx.Date)
}

func TestWithdrawInsufficientSavingsLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)
	trip, err := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})
	require.NoError(t, err)
	_, err = l.Allocate(ctx, trip.ID, core.Cents(30000), bank.ID)
	require.NoError(t, err)

	before := l.state.clone()
	_, err = l.Withdraw(ctx, trip.ID, core.Cents(100000), bank.ID)
	assert.ErrorIs(t, err, core.ErrInsufficientSavings)
	assert.Equal(t, before, l.state)
}

func TestWithdrawReleasesSavings(t *testing.T) {
	ctx := context.Background()
	l, bank, cash := bankAndCash(t)
	trip, err := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})
	require.NoError(t, err)
	_, err = l.Allocate(ctx, trip.ID, core.Cents(30000), bank.ID)
	require.NoError(t, err)

	tx, err := l.Withdraw(ctx, trip.ID, core.Cents(10000), cash.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(25000), balance(t, l, cash.ID))
	got, _ := l.Budget(trip.ID)
	assert.Equal(t, int64(20000), got.SavedAmount.Cents)
	assert.Equal(t, `Withdraw from "Trip"`, tx.Description)
	assert.Equal(t, int64(-10000), tx.Amount.Cents)
}

func TestAllocateInsufficientFundsLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	l, _, cash := bankAndCash(t)
	trip, err := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})
	require.NoError(t, err)

	before := l.state.clone()
	_, err = l.Allocate(ctx, trip.ID, core.Cents(15001), cash.ID)
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	assert.Equal(t, before, l.state)
}

func TestConservationAcrossTransfers(t *testing.T) {
	ctx := context.Background()
	l, bank, cash := bankAndCash(t)
	trip, _ := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})
	car, _ := l.CreateBudget(ctx, BudgetParams{Name: "Car", TargetAmount: core.Cents(900000)})

	start := l.Totals()
	steps := []func() error{
		func() error { _, err := l.Allocate(ctx, trip.ID, core.Cents(12345), bank.ID); return err },
		func() error { _, err := l.Allocate(ctx, car.ID, core.Cents(5000), cash.ID); return err },
		func() error { _, err := l.Withdraw(ctx, trip.ID, core.Cents(345), cash.ID); return err },
		func() error { _, err := l.Withdraw(ctx, car.ID, core.Cents(5000), bank.ID); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		got := l.Totals()
		assert.Equal(t, start.TotalFunds.Cents, got.TotalFunds.Cents+got.TotalSaved.Cents, "step %d", i)
	}
}

func TestDeleteExpenseRestoresBalance(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)

	tx, err := l.RecordTransaction(ctx, expense(bank.ID, 5000))
	require.NoError(t, err)
	assert.Equal(t, int64(95000), balance(t, l, bank.ID))

	require.NoError(t, l.DeleteTransaction(ctx, tx.ID))
	assert.Equal(t, int64(100000), balance(t, l, bank.ID))
	_, err = l.Transaction(tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, l.ListTransactions(TransactionFilter{}))
}

func TestDeleteTransferReversesBothSides(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)
	trip, _ := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})

	before := l.Totals()
	tx, err := l.Allocate(ctx, trip.ID, core.Cents(30000), bank.ID)
	require.NoError(t, err)
	require.NoError(t, l.DeleteTransaction(ctx, tx.ID))

	assert.Equal(t, before, l.Totals())
	assert.Equal(t, int64(100000), balance(t, l, bank.ID))
	got, _ := l.Budget(trip.ID)
	assert.True(t, got.SavedAmount.IsZero())
}

func TestDeleteWithdrawalRestoresSavings(t *testing.T) {
	ctx := context.Background()
	l, bank, cash := bankAndCash(t)
	trip, _ := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})
	_, err := l.Allocate(ctx, trip.ID, core.Cents(30000), bank.ID)
	require.NoError(t, err)

	before := l.Totals()
	tx, err := l.Withdraw(ctx, trip.ID, core.Cents(10000), cash.ID)
	require.NoError(t, err)
	require.NoError(t, l.DeleteTransaction(ctx, tx.ID))

	assert.Equal(t, before, l.Totals())
	assert.Equal(t, int64(15000), balance(t, l, cash.ID))
	got, _ := l.Budget(trip.ID)
	assert.Equal(t, int64(30000), got.SavedAmount.Cents)
}

func TestDeleteLegacyTransferResolvesByName(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, storage.KeyAccounts, []core.Account{
		{ID: "bank", Name: "Bank", Balance: core.Cents(70000), IncludeInBudget: true},
	}))
	require.NoError(t, store.Set(ctx, storage.KeyBudgets, []core.Budget{
		{ID: "b1", Name: "Trip", TargetAmount: core.Cents(200000), SavedAmount: core.Cents(30000)},
	}))
	require.NoError(t, store.Set(ctx, storage.KeyExpenses, []core.Transaction{{
		ID:          "t1",
		Description: `Add funds to "Trip"`,
		Amount:      core.Cents(30000),
		AccountID:   "bank",
		CategoryID:  core.CategoryInternalTransfer,
		Date:        fixedNow,
	}}))

	l := newTestLedger(t, store)
	require.NoError(t, l.DeleteTransaction(ctx, "t1"))

	assert.Equal(t, int64(100000), balance(t, l, "bank"))
	b, _ := l.Budget("b1")
	assert.True(t, b.SavedAmount.IsZero())
}

func TestRecordIncome(t *testing.T) {
	ctx := context.Background()
	l, _, cash := bankAndCash(t)

	p := expense(cash.ID, 2500)
	p.Kind = core.KindIncome
	tx, err := l.RecordTransaction(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, int64(-2500), tx.Amount.Cents)
	assert.Equal(t, int64(17500), balance(t, l, cash.ID))
	assert.Equal(t, 12, tx.Date.Hour())
}

func TestRecordRequiresConfirmationBelowZero(t *testing.T) {
	ctx := context.Background()
	l, _, cash := bankAndCash(t)

	_, err := l.RecordTransaction(ctx, expense(cash.ID, 20000))
	assert.ErrorIs(t, err, core.ErrConfirmationRequired)
	assert.Equal(t, int64(15000), balance(t, l, cash.ID))

	p := expense(cash.ID, 20000)
	p.Confirmed = true
	_, err = l.RecordTransaction(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), balance(t, l, cash.ID))
}

func TestRecordValidation(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)

	tests := []struct {
		name  string
		edit  func(p *RecordTransactionParams)
		field string
	}{
		{"zero amount", func(p *RecordTransactionParams) { p.Amount = core.Money{} }, "amount"},
		{"bad kind", func(p *RecordTransactionParams) { p.Kind = "refund" }, "kind"},
		{"no date", func(p *RecordTransactionParams) { p.Date = core.Date{} }, "date"},
		{"empty description", func(p *RecordTransactionParams) { p.Description = "  " }, "description"},
		{"unknown account", func(p *RecordTransactionParams) { p.AccountID = "nope" }, "accountId"},
		{"unknown category", func(p *RecordTransactionParams) { p.CategoryID = "nope" }, "categoryId"},
		{"transfer category", func(p *RecordTransactionParams) { p.CategoryID = core.CategoryInternalTransfer }, "categoryId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := expense(bank.ID, 1000)
			tt.edit(&p)
			_, err := l.RecordTransaction(ctx, p)
			require.ErrorIs(t, err, core.ErrValidation)
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.Equal(t, int64(100000), balance(t, l, bank.ID))
}

func TestEditTransactionSameAccount(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)
	tx, err := l.RecordTransaction(ctx, expense(bank.ID, 5000))
	require.NoError(t, err)

	updated, err := l.EditTransaction(ctx, tx.ID, EditTransactionParams{
		Description: "Dinner",
		Amount:      core.Cents(8000),
		AccountID:   bank.ID,
		CategoryID:  core.CategoryOther,
		Date:        core.NewDate(2024, 7, 4),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(92000), balance(t, l, bank.ID))
	assert.Equal(t, "Dinner", updated.Description)
	assert.Equal(t, tx.ID, updated.ID)
}

func TestEditTransactionAcrossAccounts(t *testing.T) {
	ctx := context.Background()
	l, bank, cash := bankAndCash(t)
	tx, err := l.RecordTransaction(ctx, expense(bank.ID, 5000))
	require.NoError(t, err)

	_, err = l.EditTransaction(ctx, tx.ID, EditTransactionParams{
		Description: "Groceries",
		Amount:      core.Cents(3000),
		AccountID:   cash.ID,
		CategoryID:  core.CategoryOther,
		Date:        core.NewDate(2024, 7, 3),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100000), balance(t, l, bank.ID))
	assert.Equal(t, int64(12000), balance(t, l, cash.ID))
}

func TestEditKeepsIncomeSign(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)
	p := expense(bank.ID, 5000)
	p.Kind = core.KindIncome
	tx, err := l.RecordTransaction(ctx, p)
	require.NoError(t, err)

	updated, err := l.EditTransaction(ctx, tx.ID, EditTransactionParams{
		Description: "Salary",
		Amount:      core.Cents(6000),
		AccountID:   bank.ID,
		CategoryID:  core.CategoryOther,
		Date:        core.NewDate(2024, 7, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-6000), updated.Amount.Cents)
	assert.Equal(t, int64(106000), balance(t, l, bank.ID))
}

func TestEditTransferIsRejected(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)
	trip, _ := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(1000)})
	tx, err := l.Allocate(ctx, trip.ID, core.Cents(500), bank.ID)
	require.NoError(t, err)

	_, err = l.EditTransaction(ctx, tx.ID, EditTransactionParams{
		Description: "x", Amount: core.Cents(1), AccountID: bank.ID,
		CategoryID: core.CategoryOther, Date: core.NewDate(2024, 7, 3),
	})
	assert.ErrorIs(t, err, core.ErrImmutableTransfer)
}

func TestDeleteAccountReassignsTransactions(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	l, bank, cash := bankAndCash(t, WithPublisher(pub))
	tx, err := l.RecordTransaction(ctx, expense(cash.ID, 1000))
	require.NoError(t, err)

	require.NoError(t, l.DeleteAccount(ctx, cash.ID, bank.ID))

	_, err = l.Account(cash.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	moved, err := l.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, bank.ID, moved.AccountID)
	// The removed account's balance is not carried over.
	assert.Equal(t, int64(100000), balance(t, l, bank.ID))

	assert.Equal(t, []amqp.EventType{
		amqp.EventTransactionRecorded,
		amqp.EventTransactionUpdated,
		amqp.EventAccountDeleted,
	}, pub.types())
}

func TestDeleteAccountGuards(t *testing.T) {
	ctx := context.Background()
	l, bank, cash := bankAndCash(t)

	assert.ErrorIs(t, l.DeleteAccount(ctx, cash.ID, ""), core.ErrReferentialIntegrity)
	assert.ErrorIs(t, l.DeleteAccount(ctx, cash.ID, cash.ID), core.ErrValidation)
	assert.ErrorIs(t, l.DeleteAccount(ctx, cash.ID, "missing"), core.ErrNotFound)
	assert.ErrorIs(t, l.DeleteAccount(ctx, "missing", bank.ID), core.ErrNotFound)

	require.NoError(t, l.DeleteAccount(ctx, cash.ID, bank.ID))
	assert.ErrorIs(t, l.DeleteAccount(ctx, bank.ID, cash.ID), core.ErrReferentialIntegrity)
}

func TestToggleIncludeInBudget(t *testing.T) {
	ctx := context.Background()
	l, _, cash := bankAndCash(t)

	acc, err := l.ToggleIncludeInBudget(ctx, cash.ID)
	require.NoError(t, err)
	assert.False(t, acc.IncludeInBudget)
	assert.Equal(t, int64(100000), l.Totals().TotalFunds.Cents)

	acc, err = l.SetIncludeInBudget(ctx, cash.ID, true)
	require.NoError(t, err)
	assert.True(t, acc.IncludeInBudget)
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)

	food, err := l.CreateCategory(ctx, "Food", "")
	require.NoError(t, err)
	assert.Equal(t, CategoryColors[2], food.Color)

	renamed, err := l.UpdateCategory(ctx, food.ID, "Eating out", "")
	require.NoError(t, err)
	assert.Equal(t, food.Color, renamed.Color)

	p := expense(bank.ID, 1200)
	p.CategoryID = food.ID
	tx, err := l.RecordTransaction(ctx, p)
	require.NoError(t, err)

	require.NoError(t, l.DeleteCategory(ctx, food.ID))
	moved, _ := l.Transaction(tx.ID)
	assert.Equal(t, core.CategoryOther, moved.CategoryID)

	assert.ErrorIs(t, l.DeleteCategory(ctx, core.CategoryOther), core.ErrReservedCategory)
	assert.ErrorIs(t, l.DeleteCategory(ctx, core.CategoryInternalTransfer), core.ErrReservedCategory)

	_, err = l.UpdateCategory(ctx, core.CategoryInternalTransfer, "X", "")
	assert.ErrorIs(t, err, core.ErrReservedCategory)
	_, err = l.UpdateCategory(ctx, core.CategoryOther, "Misc", "bg-red-500")
	assert.ErrorIs(t, err, core.ErrReservedCategory)
	for _, c := range l.Categories() {
		assert.NotEqual(t, "Misc", c.Name)
	}
}

func TestDeleteBudget(t *testing.T) {
	ctx := context.Background()
	l, bank, cash := bankAndCash(t)
	trip, _ := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})
	_, err := l.Allocate(ctx, trip.ID, core.Cents(30000), bank.ID)
	require.NoError(t, err)

	err = l.DeleteBudget(ctx, trip.ID, "")
	assert.ErrorIs(t, err, core.ErrValidation)

	require.NoError(t, l.DeleteBudget(ctx, trip.ID, cash.ID))
	assert.Equal(t, int64(45000), balance(t, l, cash.ID))
	assert.Empty(t, l.Budgets())

	empty, _ := l.CreateBudget(ctx, BudgetParams{Name: "Bike", TargetAmount: core.Cents(100)})
	assert.NoError(t, l.DeleteBudget(ctx, empty.ID, ""))
}

func TestUpdateBudgetKeepsSavedAmount(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)
	trip, _ := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})
	_, err := l.Allocate(ctx, trip.ID, core.Cents(1000), bank.ID)
	require.NoError(t, err)

	due := core.NewDate(2025, 1, 31)
	got, err := l.UpdateBudget(ctx, trip.ID, BudgetParams{Name: "Japan", TargetAmount: core.Cents(300000), TargetDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "Japan", got.Name)
	assert.Equal(t, int64(1000), got.SavedAmount.Cents)
	require.NotNil(t, got.TargetDate)
	assert.Equal(t, "2025-01-31", got.TargetDate.String())

	_, err = l.UpdateBudget(ctx, trip.ID, BudgetParams{Name: "Japan"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.New()}
	l := newTestLedger(t, store)
	bank, err := l.CreateAccount(ctx, "Bank", core.Cents(100000))
	require.NoError(t, err)

	store.fail = true
	before := l.state.clone()
	_, err = l.RecordTransaction(ctx, expense(bank.ID, 500))
	require.Error(t, err)
	assert.Equal(t, before, l.state)

	store.fail = false
	reloaded := newTestLedger(t, store.Store)
	assert.Equal(t, before.accounts, reloaded.Accounts())
	assert.Empty(t, reloaded.ListTransactions(TransactionFilter{}))
}

func TestPublishErrorDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	l, bank, _ := bankAndCash(t, WithPublisher(pub))

	tx, err := l.RecordTransaction(ctx, expense(bank.ID, 500))
	require.NoError(t, err)
	_, err = l.Transaction(tx.ID)
	assert.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestListTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	l, bank, cash := bankAndCash(t)
	for day := 1; day <= 5; day++ {
		p := expense(bank.ID, 100)
		p.Date = core.NewDate(2024, 7, day)
		_, err := l.RecordTransaction(ctx, p)
		require.NoError(t, err)
	}
	_, err := l.RecordTransaction(ctx, expense(cash.ID, 100))
	require.NoError(t, err)

	all := l.ListTransactions(TransactionFilter{AccountID: bank.ID})
	require.Len(t, all, 5)
	assert.Equal(t, 5, all[0].Date.Day())

	window := l.ListTransactions(TransactionFilter{From: core.NewDate(2024, 7, 2), To: core.NewDate(2024, 7, 3)})
	assert.Len(t, window, 3)

	assert.Len(t, l.ListTransactions(TransactionFilter{Limit: 2}), 2)
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	ctx := context.Background()
	l, bank, _ := bankAndCash(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.RecordTransaction(ctx, expense(bank.ID, 100))
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(98000), balance(t, l, bank.ID))
}

func TestAllocateLogsUnderWalletComponent(t *testing.T) {
	var buf bytes.Buffer
	ctx := applog.NewContext(context.Background(), applog.New(applog.Config{Output: &buf}))
	l, bank, _ := bankAndCash(t)
	trip, _ := l.CreateBudget(ctx, BudgetParams{Name: "Trip", TargetAmount: core.Cents(200000)})

	buf.Reset()
	_, err := l.Allocate(ctx, trip.ID, core.Cents(500), bank.ID)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "component=wallet")
	assert.Contains(t, out, "operation=allocate")
	assert.Contains(t, out, "budget_id="+trip.ID)
	assert.Contains(t, out, "account_id="+bank.ID)
	assert.Equal(t, 1, strings.Count(out, "component="))
}
