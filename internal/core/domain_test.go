package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateBoundaries(t *testing.T) {
	d := NewDate(2024, 7, 15)
	assert.Equal(t, time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC), d.Noon())
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), d.StartOfDay())
	assert.Equal(t, time.Date(2024, 7, 15, 23, 59, 59, 0, time.UTC), d.EndOfDay())
	assert.Equal(t, "2024-07-15", d.String())
}

func TestDateJSON(t *testing.T) {
	var holder struct {
		D *Date `json:"d,omitempty"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-03-01"}`), &holder))
	require.NotNil(t, holder.D)
	assert.Equal(t, NewDate(2025, 3, 1), *holder.D)

	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-03-01T12:00:00Z"}`), &holder))
	assert.Equal(t, NewDate(2025, 3, 1), *holder.D)

	out, err := json.Marshal(holder)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-03-01"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"d":"01/03/2025"}`), &holder))
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          "t1",
		Description: "Groceries",
		Amount:      Cents(4250),
		AccountID:   "bank",
		CategoryID:  "food",
		Date:        NewDate(2025, 1, 1).Noon(),
	}
	require.NoError(t, good.Validate())

	tests := []struct {
		name   string
		mutate func(*Transaction)
		field  string
	}{
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, "description"},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, "description"},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, "amount"},
		{"missing account", func(tx *Transaction) { tx.AccountID = "" }, "accountId"},
		{"missing category", func(tx *Transaction) { tx.CategoryID = "" }, "categoryId"},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := good
			tt.mutate(&tx)
			err := tx.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestTransactionSignConvention(t *testing.T) {
	expense := Transaction{Amount: KindExpense.SignedAmount(Cents(5000))}
	income := Transaction{Amount: KindIncome.SignedAmount(Cents(5000))}

	assert.Equal(t, int64(5000), expense.Amount.Cents)
	assert.Equal(t, int64(-5000), expense.BalanceDelta().Cents)
	assert.Equal(t, int64(-5000), income.Amount.Cents)
	assert.Equal(t, int64(5000), income.BalanceDelta().Cents)
	assert.True(t, Transaction{CategoryID: CategoryInternalTransfer}.IsTransfer())
	assert.False(t, Transaction{CategoryID: CategoryOther}.IsTransfer())
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{Name: "Trip", TargetAmount: Cents(100000)}
	require.NoError(t, b.Validate())

	b.TargetAmount = Money{}
	assert.ErrorIs(t, b.Validate(), ErrInvalidAmount)

	b.TargetAmount = Cents(-1)
	assert.ErrorIs(t, b.Validate(), ErrValidation)

	b = Budget{Name: "", TargetAmount: Cents(1)}
	assert.ErrorIs(t, b.Validate(), ErrEmptyName)
}

func TestBudgetProgress(t *testing.T) {
	assert.InDelta(t, 0.3, Budget{TargetAmount: Cents(1000), SavedAmount: Cents(300)}.Progress(), 1e-9)
	assert.Equal(t, 1.0, Budget{TargetAmount: Cents(1000), SavedAmount: Cents(3000)}.Progress())
	assert.Equal(t, 0.0, Budget{}.Progress())
}
