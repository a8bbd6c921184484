package wallet

import (
	"context"
	"fmt"

	"secondbrain/internal/core"
	"secondbrain/internal/storage"
)

var transferCategory = core.Category{
	ID:    core.CategoryInternalTransfer,
	Name:  "Savings Goal Transfer",
	Color: "bg-gray-500 dark:bg-white/50",
}

var defaultCategories = []core.Category{
	{ID: "food", Name: "Food", Color: "bg-gray-800 dark:bg-white"},
	{ID: "transport", Name: "Transport", Color: "bg-gray-700 dark:bg-white/80"},
	{ID: "shopping", Name: "Shopping", Color: "bg-gray-600 dark:bg-white/60"},
	{ID: "bills", Name: "Bills", Color: "bg-gray-500 dark:bg-white/40"},
	{ID: core.CategoryOther, Name: "Other", Color: "bg-gray-400 dark:bg-white/20"},
	transferCategory,
}

var defaultAccounts = []core.Account{
	{ID: "bank", Name: "Bank", Balance: core.Cents(100000), IncludeInBudget: true},
	{ID: "cash", Name: "Cash", Balance: core.Cents(15000), IncludeInBudget: true},
	{ID: "card", Name: "Credit Card", Balance: core.Cents(-20000), IncludeInBudget: false},
}

// CategoryColors is the palette new categories cycle through when no color
// is given.
var CategoryColors = []string{
	"bg-gray-800 dark:bg-white",
	"bg-gray-700 dark:bg-white/90",
	"bg-gray-600 dark:bg-white/80",
	"bg-gray-500 dark:bg-white/70",
	"bg-gray-400 dark:bg-white/60",
	"bg-gray-300 dark:bg-white/50",
}

// Older blobs lack includeInBudget on accounts and savedAmount on budgets.
type storedAccount struct {
	core.Account
	IncludeInBudget *bool `json:"includeInBudget"`
}

type storedBudget struct {
	core.Budget
	SavedAmount *core.Money `json:"savedAmount"`
}

func (l *Ledger) load(ctx context.Context) error {
	s := &state{}
	dirty := false

	var accounts []storedAccount
	found, err := l.store.Get(ctx, storage.KeyAccounts, &accounts)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	switch {
	case found:
		for _, a := range accounts {
			acc := a.Account
			acc.IncludeInBudget = true
			if a.IncludeInBudget != nil {
				acc.IncludeInBudget = *a.IncludeInBudget
			} else {
				dirty = true
			}
			s.accounts = append(s.accounts, acc)
		}
	case l.seed:
		s.accounts = append(s.accounts, defaultAccounts...)
		dirty = true
	}

	found, err = l.store.Get(ctx, storage.KeyCategories, &s.categories)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if !found {
		if l.seed {
			s.categories = append(s.categories, defaultCategories...)
		} else {
			s.categories = []core.Category{{ID: core.CategoryOther, Name: "Other", Color: CategoryColors[4]}, transferCategory}
		}
		dirty = true
	}
	if s.ensureTransferCategory() {
		logger(ctx).InfoContext(ctx, "Restored internal transfer category")
		dirty = true
	}

	if _, err := l.store.Get(ctx, storage.KeyExpenses, &s.transactions); err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	var budgets []storedBudget
	if _, err := l.store.Get(ctx, storage.KeyBudgets, &budgets); err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	for _, b := range budgets {
		budget := b.Budget
		budget.SavedAmount = core.Money{}
		if b.SavedAmount != nil {
			budget.SavedAmount = *b.SavedAmount
		} else {
			dirty = true
		}
		s.budgets = append(s.budgets, budget)
	}

	if dirty {
		if err := l.persist(ctx, s); err != nil {
			return fmt.Errorf("persist migrated ledger: %w", err)
		}
	}

	l.state = s
	logger(ctx).InfoContext(ctx, "Ledger loaded",
		"accounts", len(s.accounts),
		"categories", len(s.categories),
		"transactions", len(s.transactions),
		"budgets", len(s.budgets),
		"migrated", dirty)
	return nil
}
