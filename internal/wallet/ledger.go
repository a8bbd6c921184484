// Package wallet implements the ledger service: accounts, categories,
// transactions and savings goals, persisted through a key-value store.
//
// Every mutator runs in one critical section. It validates against a copy
// of the current state, persists the copy, and only then swaps it in, so a
// rejected or failed mutation leaves both memory and the store untouched.
package wallet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"secondbrain/internal/amqp"
	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
	"secondbrain/internal/storage"
)

// Publisher receives ledger events after they are committed.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

type Ledger struct {
	mu        sync.Mutex
	store     storage.Store
	publisher Publisher
	newID     func() string
	now       func() time.Time
	seed      bool
	state     *state
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets the event publisher. A nil publisher disables events.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithClock overrides the time source used to stamp transfers.
func WithClock(fn func() time.Time) Option {
	return func(l *Ledger) { l.now = fn }
}

// WithoutSeed starts an empty store with no accounts and only the reserved
// categories.
func WithoutSeed() Option {
	return func(l *Ledger) { l.seed = false }
}

// New loads the ledger from store, backfilling legacy shapes and restoring
// the reserved categories when they are missing.
func New(ctx context.Context, store storage.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
		seed:  true,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

type state struct {
	accounts     []core.Account
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
}

func (s *state) clone() *state {
	return &state{
		accounts:     append([]core.Account(nil), s.accounts...),
		categories:   append([]core.Category(nil), s.categories...),
		transactions: append([]core.Transaction(nil), s.transactions...),
		budgets:      append([]core.Budget(nil), s.budgets...),
	}
}

func (s *state) accountIndex(id string) (int, error) {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("account %q: %w", id, core.ErrNotFound)
}

func (s *state) categoryIndex(id string) (int, error) {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("category %q: %w", id, core.ErrNotFound)
}

func (s *state) transactionIndex(id string) (int, error) {
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("transaction %q: %w", id, core.ErrNotFound)
}

func (s *state) budgetIndex(id string) (int, error) {
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("budget %q: %w", id, core.ErrNotFound)
}

func (s *state) budgetByName(name string) (int, bool) {
	for i := range s.budgets {
		if s.budgets[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// ensureTransferCategory restores the internal-transfer category. It
// reports whether the category had to be added.
func (s *state) ensureTransferCategory() bool {
	if _, err := s.categoryIndex(core.CategoryInternalTransfer); err == nil {
		return false
	}
	s.categories = append(s.categories, transferCategory)
	return true
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentWallet)
}

// mutate applies fn to a copy of the state, persists it and commits it.
// Events returned by fn are published after the lock is released.
func (l *Ledger) mutate(ctx context.Context, op string, fn func(s *state) ([]*amqp.LedgerEvent, error)) error {
	l.mu.Lock()
	next := l.state.clone()
	events, err := fn(next)
	if err != nil {
		l.mu.Unlock()
		logger(ctx).DebugContext(ctx, "Ledger mutation rejected", applog.FieldOperation, op, applog.FieldError, err)
		return err
	}
	if err := l.persist(ctx, next); err != nil {
		l.mu.Unlock()
		logger(ctx).ErrorContext(ctx, "Failed to persist ledger", applog.FieldOperation, op, applog.FieldError, err)
		return fmt.Errorf("persist ledger: %w", err)
	}
	l.state = next
	l.mu.Unlock()

	l.publish(ctx, events)
	return nil
}

func (l *Ledger) persist(ctx context.Context, s *state) error {
	return storage.SetAll(ctx, l.store, map[string]any{
		storage.KeyAccounts:   s.accounts,
		storage.KeyCategories: s.categories,
		storage.KeyExpenses:   s.transactions,
		storage.KeyBudgets:    s.budgets,
	})
}

func (l *Ledger) publish(ctx context.Context, events []*amqp.LedgerEvent) {
	if l.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := l.publisher.PublishLedgerEvent(ctx, ev); err != nil {
			// The mutation is already committed locally
			logger(ctx).ErrorContext(ctx, "Failed to publish ledger event", "type", ev.Type, applog.FieldError, err)
		}
	}
}

// Accounts returns a copy of all accounts in creation order.
func (l *Ledger) Accounts() []core.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Account(nil), l.state.accounts...)
}

// Account returns a single account.
func (l *Ledger) Account(id string) (core.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, err := l.state.accountIndex(id)
	if err != nil {
		return core.Account{}, err
	}
	return l.state.accounts[i], nil
}

// Categories returns a copy of all categories.
func (l *Ledger) Categories() []core.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Category(nil), l.state.categories...)
}

// Budgets returns a copy of all savings goals.
func (l *Ledger) Budgets() []core.Budget {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Budget(nil), l.state.budgets...)
}

// Budget returns a single savings goal.
func (l *Ledger) Budget(id string) (core.Budget, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, err := l.state.budgetIndex(id)
	if err != nil {
		return core.Budget{}, err
	}
	return l.state.budgets[i], nil
}

// Transaction returns a single transaction.
func (l *Ledger) Transaction(id string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, err := l.state.transactionIndex(id)
	if err != nil {
		return core.Transaction{}, err
	}
	return l.state.transactions[i], nil
}

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	From       core.Date
	To         core.Date
	Limit      int
}

func (f TransactionFilter) match(tx core.Transaction) bool {
	if f.AccountID != "" && tx.AccountID != f.AccountID {
		return false
	}
	if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
		return false
	}
	if !f.From.IsZero() && tx.Date.Before(f.From.StartOfDay()) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To.EndOfDay()) {
		return false
	}
	return true
}

// ListTransactions returns matching transactions, newest first.
func (l *Ledger) ListTransactions(f TransactionFilter) []core.Transaction {
	l.mu.Lock()
	out := make([]core.Transaction, 0, len(l.state.transactions))
	for _, tx := range l.state.transactions {
		if f.match(tx) {
			out = append(out, tx)
		}
	}
	l.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Totals recomputes the derived wallet figures.
func (l *Ledger) Totals() core.Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.ComputeTotals(l.state.accounts, l.state.budgets)
}

// MonthOverview summarizes spending and income for a calendar month.
func (l *Ledger) MonthOverview(year, month int) core.MonthOverview {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.SummarizeMonth(year, month, l.state.transactions, l.state.categories)
}
