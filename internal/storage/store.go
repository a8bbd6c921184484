// Package storage provides the key-value persistence used by the wallet,
// the CRM tracker and settings. Each collection is stored as one JSON blob
// under a fixed key.
package storage

import (
	"context"
	"errors"
)

// Collection keys.
const (
	KeyAccounts   = "secondbrain-wallet-accounts"
	KeyCategories = "secondbrain-wallet-categories"
	KeyExpenses   = "secondbrain-wallet-expenses"
	KeyBudgets    = "secondbrain-wallet-budgets"
	KeyNotes      = "secondbrain-notes"
	KeyHabits     = "secondbrain-habits"
	KeyHabitLogs  = "secondbrain-habit-logs"
	KeyTheme      = "secondbrain-settings-theme"
	KeyCurrency   = "secondbrain-settings-currency"
	KeyProjects   = "secondbrain-crm-projects"
	KeyTasks      = "secondbrain-crm-tasks"
)

var ErrEmptyKey = errors.New("empty key")

// Store reads and writes JSON values by key.
type Store interface {
	// Get decodes the value stored under key into dst. It reports false
	// and leaves dst untouched when the key is absent.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set encodes value as JSON and stores it under key.
	Set(ctx context.Context, key string, value any) error
}

// BatchStore writes several keys atomically.
type BatchStore interface {
	Store
	SetBatch(ctx context.Context, entries map[string]any) error
}

// SetAll writes entries through SetBatch when the store supports it and
// falls back to sequential Set calls otherwise.
func SetAll(ctx context.Context, s Store, entries map[string]any) error {
	if bs, ok := s.(BatchStore); ok {
		return bs.SetBatch(ctx, entries)
	}
	for key, value := range entries {
		if err := s.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
