package wallet

import (
	"context"
	"fmt"
	"strings"

	"secondbrain/internal/amqp"
	"secondbrain/internal/core"
)

func isReserved(id string) bool {
	return id == core.CategoryOther || id == core.CategoryInternalTransfer
}

// CreateCategory adds a category. An empty color picks the next palette
// entry.
func (l *Ledger) CreateCategory(ctx context.Context, name, color string) (core.Category, error) {
	cat := core.Category{ID: l.newID(), Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	err := l.mutate(ctx, "create_category", func(s *state) ([]*amqp.LedgerEvent, error) {
		if cat.Color == "" {
			cat.Color = CategoryColors[len(s.categories)%len(CategoryColors)]
		}
		s.categories = append(s.categories, cat)
		return nil, nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return cat, nil
}

// UpdateCategory renames or recolors a category. An empty color keeps the
// current one. The reserved categories cannot be edited.
func (l *Ledger) UpdateCategory(ctx context.Context, id, name, color string) (core.Category, error) {
	if isReserved(id) {
		return core.Category{}, fmt.Errorf("category %q: %w", id, core.ErrReservedCategory)
	}
	var updated core.Category
	err := l.mutate(ctx, "update_category", func(s *state) ([]*amqp.LedgerEvent, error) {
		i, err := s.categoryIndex(id)
		if err != nil {
			return nil, err
		}
		cat := s.categories[i]
		cat.Name = strings.TrimSpace(name)
		if c := strings.TrimSpace(color); c != "" {
			cat.Color = c
		}
		if err := cat.Validate(); err != nil {
			return nil, err
		}
		s.categories[i] = cat
		updated = cat
		return nil, nil
	})
	return updated, err
}

// DeleteCategory removes a category and moves its transactions to "other".
// The reserved categories cannot be deleted.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) error {
	if isReserved(id) {
		return fmt.Errorf("category %q: %w", id, core.ErrReservedCategory)
	}
	return l.mutate(ctx, "delete_category", func(s *state) ([]*amqp.LedgerEvent, error) {
		i, err := s.categoryIndex(id)
		if err != nil {
			return nil, err
		}
		if _, err := s.categoryIndex(core.CategoryOther); err != nil {
			return nil, fmt.Errorf("fallback category missing: %w", core.ErrReferentialIntegrity)
		}
		var events []*amqp.LedgerEvent
		for ti := range s.transactions {
			if s.transactions[ti].CategoryID == id {
				s.transactions[ti].CategoryID = core.CategoryOther
				events = append(events, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, s.transactions[ti]))
			}
		}
		s.categories = append(s.categories[:i], s.categories[i+1:]...)
		return events, nil
	})
}
